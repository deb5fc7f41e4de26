package database

import (
	"database/sql"
	"time"

	"github.com/AnshRaj112/leadvault-backend/pkg/logger"
	_ "github.com/lib/pq"
)

var PostgresDB *sql.DB

// ConnectPostgres connects to PostgreSQL and creates the tables it owns.
func ConnectPostgres(postgresURI string) error {
	var err error

	PostgresDB, err = sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	PostgresDB.SetMaxOpenConns(25)
	PostgresDB.SetMaxIdleConns(5)
	PostgresDB.SetConnMaxLifetime(5 * time.Minute)

	if err = PostgresDB.Ping(); err != nil {
		return err
	}

	logger.Get().Info("connected to PostgreSQL")

	return InitPostgresTables()
}

// InitPostgresTables creates all necessary tables if they don't exist
func InitPostgresTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username VARCHAR(20) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		// Append-only history of every point-affecting ledger mutation
		`CREATE TABLE IF NOT EXISTS ledger_events (
			id UUID PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			event_type VARCHAR(20) NOT NULL,
			delta INTEGER NOT NULL,
			balance INTEGER NOT NULL,
			contact_ids TEXT[] NOT NULL DEFAULT '{}',
			message TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_lower ON users(LOWER(username))`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_events_user_created ON ledger_events(user_id, created_at DESC)`,
	}

	for _, query := range queries {
		if _, err := PostgresDB.Exec(query); err != nil {
			return err
		}
	}

	logger.Get().Info("PostgreSQL tables initialized")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
