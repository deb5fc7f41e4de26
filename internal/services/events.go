package services

import (
	"context"
	"fmt"
	"time"

	"github.com/AnshRaj112/leadvault-backend/internal/models"
	"github.com/AnshRaj112/leadvault-backend/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultEmitTimeout bounds how long a mutation waits on its event sinks.
const DefaultEmitTimeout = 3 * time.Second

// EventSink receives ledger events after the mutation is final.
type EventSink interface {
	Publish(ctx context.Context, evt models.LedgerEvent) error
}

// JournalSink writes events to the append-only journal.
type JournalSink struct {
	Journal repository.EventJournal
}

func (s JournalSink) Publish(ctx context.Context, evt models.LedgerEvent) error {
	return s.Journal.Append(ctx, evt)
}

type namedSink struct {
	name string
	sink EventSink
}

// FanOut publishes every event to all registered sinks concurrently.
// A failing sink does not stop the others.
type FanOut struct {
	sinks  []namedSink
	logger *zap.Logger
}

func NewFanOut(logger *zap.Logger) *FanOut {
	return &FanOut{logger: logger}
}

// Add registers sink under name. Nil sinks are ignored.
func (f *FanOut) Add(name string, sink EventSink) *FanOut {
	if sink != nil {
		f.sinks = append(f.sinks, namedSink{name: name, sink: sink})
	}
	return f
}

func (f *FanOut) Len() int { return len(f.sinks) }

func (f *FanOut) Publish(ctx context.Context, evt models.LedgerEvent) error {
	var g errgroup.Group
	for _, s := range f.sinks {
		s := s
		g.Go(func() error {
			if err := s.sink.Publish(ctx, evt); err != nil {
				f.logger.Warn("ledger event sink failed",
					zap.String("sink", s.name),
					zap.String("event_id", evt.ID.String()),
					zap.String("user_id", evt.UserID),
					zap.Error(err),
				)
				return fmt.Errorf("%s: %w", s.name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// emitter delivers events on behalf of a service. Delivery outlives the
// request context because the ledger write it describes is already committed.
type emitter struct {
	sink    EventSink
	logger  *zap.Logger
	timeout time.Duration
}

func newEmitter(sink EventSink, logger *zap.Logger) emitter {
	return emitter{sink: sink, logger: logger, timeout: DefaultEmitTimeout}
}

func (e emitter) emit(ctx context.Context, evt models.LedgerEvent) {
	if e.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	if err := e.sink.Publish(ctx, evt); err != nil {
		e.logger.Warn("ledger event not fully delivered",
			zap.String("type", string(evt.Type)),
			zap.String("user_id", evt.UserID),
			zap.Error(err),
		)
	}
}
