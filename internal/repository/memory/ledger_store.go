// Package memory holds in-process stores with the same conditional semantics as
// the MongoDB and PostgreSQL repositories. Used by tests and LEDGER_STORE=memory.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/AnshRaj112/leadvault-backend/internal/models"
	"github.com/AnshRaj112/leadvault-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LedgerStore struct {
	mu      sync.Mutex
	ledgers map[string]*models.Ledger
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{ledgers: make(map[string]*models.Ledger)}
}

func (s *LedgerStore) FindByUser(ctx context.Context, userID string) (*models.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.ledgers[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return l.Clone(), nil
}

func (s *LedgerStore) Ensure(ctx context.Context, userID string, now time.Time) (*models.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(userID, now).Clone(), nil
}

func (s *LedgerStore) ApplyUnlock(ctx context.Context, userID, contactID string, cost int, activity string, now time.Time) (*models.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.ledgers[userID]
	if !ok || l.HasUnlocked(contactID) || l.AvailablePoints < cost {
		return nil, repository.ErrNotMatched
	}
	l.AvailablePoints -= cost
	l.UnlockedProfiles++
	l.UnlockedContactIDs = append(l.UnlockedContactIDs, contactID)
	l.RecentActivity = models.AppendBounded(l.RecentActivity, models.OperationActivityCapacity, activity)
	l.UpdatedAt = now
	return l.Clone(), nil
}

func (s *LedgerStore) ApplyUploads(ctx context.Context, userID string, contactIDs []string, reward int, activities []string, now time.Time) (*models.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.ensureLocked(userID, now)
	n := len(contactIDs)
	l.AvailablePoints += reward * n
	l.TotalContacts += n
	l.MyUploads += n
	l.UploadedProfileIDs = append(l.UploadedProfileIDs, contactIDs...)
	l.RecentActivity = models.AppendBounded(l.RecentActivity, models.OperationActivityCapacity, activities...)
	l.UpdatedAt = now
	return l.Clone(), nil
}

func (s *LedgerStore) AppendActivity(ctx context.Context, userID, message string, capacity int, now time.Time) (*models.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.ensureLocked(userID, now)
	l.RecentActivity = models.AppendBounded(l.RecentActivity, capacity, message)
	l.UpdatedAt = now
	return l.Clone(), nil
}

func (s *LedgerStore) SyncCounters(ctx context.Context, userID string, expectedUploads, uploads int, now time.Time) (*models.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.ledgers[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if l.MyUploads != expectedUploads {
		return nil, repository.ErrNotMatched
	}
	l.MyUploads = uploads
	l.TotalContacts = uploads
	l.UnlockedProfiles = len(l.UnlockedContactIDs)
	l.UpdatedAt = now
	return l.Clone(), nil
}

// Put replaces a ledger wholesale. Tests use it to seed drifted or low-balance state.
func (s *LedgerStore) Put(l *models.Ledger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := l.Clone()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	s.ledgers[c.UserID] = c
}

func (s *LedgerStore) ensureLocked(userID string, now time.Time) *models.Ledger {
	l, ok := s.ledgers[userID]
	if !ok {
		l = models.NewLedger(userID, now)
		l.ID = primitive.NewObjectID()
		s.ledgers[userID] = l
	}
	return l
}
