package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/AnshRaj112/leadvault-backend/internal/models"
	"github.com/AnshRaj112/leadvault-backend/internal/repository"
	"github.com/google/uuid"
)

type Journal struct {
	mu     sync.Mutex
	events []models.LedgerEvent
}

func NewJournal() *Journal {
	return &Journal{}
}

func (j *Journal) Append(ctx context.Context, evt models.LedgerEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, evt)
	return nil
}

// ListByUser returns the user's events newest first.
func (j *Journal) ListByUser(ctx context.Context, userID string, limit int) ([]models.LedgerEvent, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := []models.LedgerEvent{}
	for i := len(j.events) - 1; i >= 0; i-- {
		if j.events[i].UserID != userID {
			continue
		}
		out = append(out, j.events[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type UserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[uuid.UUID]models.User)}
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, user.Username) {
			return repository.ErrDuplicate
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.users[user.ID] = *user
	return nil
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) && u.IsActive {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || !u.IsActive {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}
