package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account stored in PostgreSQL. Its id is the ledger owner key.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	IsActive     bool      `json:"is_active"`
}
