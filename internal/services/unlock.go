package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AnshRaj112/leadvault-backend/internal/models"
	"github.com/AnshRaj112/leadvault-backend/internal/repository"
	"go.uber.org/zap"
)

// UnlockResult is returned by a successful unlock.
type UnlockResult struct {
	Success         bool               `json:"success"`
	RemainingPoints int                `json:"remainingPoints"`
	PointsDeducted  int                `json:"pointsDeducted"`
	Contact         models.ContactView `json:"contact"`
	Ledger          *models.Ledger     `json:"-"`
}

// UnlockService spends points to reveal a contact's private fields to one user.
type UnlockService struct {
	ledgers  repository.LedgerStore
	contacts repository.ContactStore
	events   emitter
	logger   *zap.Logger
	now      func() time.Time
}

func NewUnlockService(ledgers repository.LedgerStore, contacts repository.ContactStore, sink EventSink, logger *zap.Logger) *UnlockService {
	return &UnlockService{
		ledgers:  ledgers,
		contacts: contacts,
		events:   newEmitter(sink, logger),
		logger:   logger,
		now:      time.Now,
	}
}

// Unlock checks, in order, that the contact exists, the ledger exists, the
// contact is not yet unlocked and the balance covers the cost. The mutation
// itself is a single conditional update, so concurrent unlocks of the same
// contact by the same user cannot both succeed.
func (s *UnlockService) Unlock(ctx context.Context, userID, contactID string) (*UnlockResult, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	contact, err := s.contacts.FindByID(ctx, contactID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to load contact: %w", err)
	}
	id := contact.ID.Hex()

	ledger, err := s.ledgers.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLedgerNotFound
		}
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	if err := checkUnlockable(ledger, id); err != nil {
		s.logger.Debug("unlock rejected", zap.String("user_id", userID), zap.String("contact_id", id), zap.Error(err))
		return nil, err
	}

	now := s.now()
	activity := "Unlocked contact: " + displayName(contact.Name)
	updated, err := s.ledgers.ApplyUnlock(ctx, userID, id, models.UnlockCost, activity, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotMatched) {
			return nil, s.classifyMiss(ctx, userID, id)
		}
		return nil, fmt.Errorf("failed to apply unlock: %w", err)
	}

	s.logger.Info("contact unlocked",
		zap.String("user_id", userID),
		zap.String("contact_id", id),
		zap.Int("remaining_points", updated.AvailablePoints),
	)
	s.events.emit(ctx, models.NewLedgerEvent(models.EventUnlock, updated, -models.UnlockCost, []string{id}, activity, now))

	return &UnlockResult{
		Success:         true,
		RemainingPoints: updated.AvailablePoints,
		PointsDeducted:  models.UnlockCost,
		Contact:         models.ContactView{Contact: *contact, IsUnlocked: true},
		Ledger:          updated,
	}, nil
}

// classifyMiss explains why the conditional update matched nothing, using the
// ledger as it is now.
func (s *UnlockService) classifyMiss(ctx context.Context, userID, contactID string) error {
	ledger, err := s.ledgers.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrLedgerNotFound
		}
		return fmt.Errorf("failed to reload ledger: %w", err)
	}
	if err := checkUnlockable(ledger, contactID); err != nil {
		return err
	}
	return ErrConcurrentUpdate
}

func checkUnlockable(ledger *models.Ledger, contactID string) error {
	if ledger.HasUnlocked(contactID) {
		return ErrAlreadyUnlocked
	}
	if ledger.AvailablePoints < models.UnlockCost {
		return &InsufficientFundsError{Required: models.UnlockCost, Available: ledger.AvailablePoints}
	}
	return nil
}

func displayName(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return "Unknown"
	}
	return name
}
