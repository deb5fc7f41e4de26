package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AnshRaj112/leadvault-backend/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const ledgerChannelPrefix = "ledger:user:"

// LedgerChannel is the pub/sub channel carrying userID's ledger events.
func LedgerChannel(userID string) string {
	return ledgerChannelPrefix + userID
}

// RedisEventBus publishes ledger events on per-user Redis channels and lets
// websocket clients subscribe to them.
type RedisEventBus struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisEventBus(client *redis.Client, logger *zap.Logger) *RedisEventBus {
	return &RedisEventBus{client: client, logger: logger}
}

func (b *RedisEventBus) Publish(ctx context.Context, evt models.LedgerEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, LedgerChannel(evt.UserID), payload).Err()
}

// Subscribe streams userID's events until ctx is done. The returned channel is
// closed when the subscription ends.
func (b *RedisEventBus) Subscribe(ctx context.Context, userID string) (<-chan models.LedgerEvent, error) {
	pubsub := b.client.Subscribe(ctx, LedgerChannel(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan models.LedgerEvent, 16)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var evt models.LedgerEvent
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					b.logger.Warn("dropping malformed ledger event", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				select {
				case out <- evt:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
