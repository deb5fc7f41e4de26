package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AnshRaj112/leadvault-backend/internal/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEventPublisher streams ledger events to a topic keyed by user id, so a
// user's events stay ordered within one partition.
type KafkaEventPublisher struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

func NewKafkaEventPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaEventPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return &KafkaEventPublisher{writer: writer, topic: topic, logger: logger}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, evt models.LedgerEvent) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(evt.UserID),
		Value: value,
		Time:  evt.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(evt.Type)},
			{Key: "event-id", Value: []byte(evt.ID.String())},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}

	p.logger.Debug("produced ledger event",
		zap.String("topic", p.topic),
		zap.String("type", string(evt.Type)),
		zap.Int("value_size", len(value)),
	)
	return nil
}

func (p *KafkaEventPublisher) Close() error {
	return p.writer.Close()
}
