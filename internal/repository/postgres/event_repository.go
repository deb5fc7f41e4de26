package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/AnshRaj112/leadvault-backend/internal/models"
	"github.com/lib/pq"
)

// EventRepository is the append-only ledger_events journal. Rows are never updated or deleted.
type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Append(ctx context.Context, evt models.LedgerEvent) error {
	contactIDs := evt.ContactIDs
	if contactIDs == nil {
		contactIDs = []string{}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ledger_events (id, user_id, event_type, delta, balance, contact_ids, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, evt.ID, evt.UserID, string(evt.Type), evt.Delta, evt.Balance, pq.Array(contactIDs), evt.Message, evt.CreatedAt)
	if err != nil {
		return fmt.Errorf("append ledger event: %w", err)
	}
	return nil
}

func (r *EventRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.LedgerEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, event_type, delta, balance, contact_ids, message, created_at
		FROM ledger_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query ledger events: %w", err)
	}
	defer rows.Close()

	events := []models.LedgerEvent{}
	for rows.Next() {
		var (
			evt       models.LedgerEvent
			eventType string
			message   sql.NullString
		)
		if err := rows.Scan(&evt.ID, &evt.UserID, &eventType, &evt.Delta, &evt.Balance, pq.Array(&evt.ContactIDs), &message, &evt.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger event: %w", err)
		}
		evt.Type = models.LedgerEventType(eventType)
		evt.Message = message.String
		events = append(events, evt)
	}
	return events, rows.Err()
}
