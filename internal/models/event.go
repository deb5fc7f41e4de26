package models

import (
	"time"

	"github.com/google/uuid"
)

type LedgerEventType string

const (
	EventUnlock    LedgerEventType = "unlock"
	EventUpload    LedgerEventType = "upload"
	EventActivity  LedgerEventType = "activity"
	EventReconcile LedgerEventType = "reconcile"
)

// LedgerEvent is one entry of the append-only ledger history. Unlike the bounded
// activity log it is never truncated.
type LedgerEvent struct {
	ID         uuid.UUID       `json:"id"`
	UserID     string          `json:"userId"`
	Type       LedgerEventType `json:"type"`
	Delta      int             `json:"delta"`
	Balance    int             `json:"balance"`
	ContactIDs []string        `json:"contactIds,omitempty"`
	Message    string          `json:"message,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// NewLedgerEvent stamps an event with a fresh id.
func NewLedgerEvent(t LedgerEventType, ledger *Ledger, delta int, contactIDs []string, message string, at time.Time) LedgerEvent {
	return LedgerEvent{
		ID:         uuid.New(),
		UserID:     ledger.UserID,
		Type:       t,
		Delta:      delta,
		Balance:    ledger.AvailablePoints,
		ContactIDs: contactIDs,
		Message:    message,
		CreatedAt:  at,
	}
}
