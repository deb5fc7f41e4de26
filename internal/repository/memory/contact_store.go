package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/AnshRaj112/leadvault-backend/internal/models"
	"github.com/AnshRaj112/leadvault-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ContactStore struct {
	mu       sync.Mutex
	contacts map[primitive.ObjectID]models.Contact

	// FailInsert, when set, is returned by InsertMany without storing anything.
	FailInsert error
}

func NewContactStore() *ContactStore {
	return &ContactStore{contacts: make(map[primitive.ObjectID]models.Contact)}
}

func (s *ContactStore) FindByID(ctx context.Context, id string) (*models.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contacts[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (s *ContactStore) FindByIDs(ctx context.Context, ids []string) ([]models.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Contact{}
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		if c, ok := s.contacts[oid]; ok {
			out = append(out, c)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *ContactStore) InsertMany(ctx context.Context, contacts []*models.Contact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.FailInsert != nil {
		return s.FailInsert
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range contacts {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		if _, exists := s.contacts[c.ID]; exists {
			return errors.New("duplicate contact id")
		}
	}
	for _, c := range contacts {
		s.contacts[c.ID] = *c
	}
	return nil
}

func (s *ContactStore) DeleteMany(ctx context.Context, ids []primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.contacts, id)
	}
	return nil
}

func (s *ContactStore) CountByUploader(ctx context.Context, userID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, c := range s.contacts {
		if c.UploadedBy == userID {
			n++
		}
	}
	return n, nil
}

func (s *ContactStore) CountSettled(ctx context.Context, userID string, credited []string, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	known := make(map[string]struct{}, len(credited))
	for _, id := range credited {
		known[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, c := range s.contacts {
		if c.UploadedBy != userID {
			continue
		}
		if _, ok := known[c.ID.Hex()]; ok || !c.UploadedAt.After(cutoff) {
			n++
		}
	}
	return n, nil
}

func (s *ContactStore) List(ctx context.Context, filter repository.ContactFilter) ([]models.Contact, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	s.mu.Lock()
	matched := []models.Contact{}
	for _, c := range s.contacts {
		if filter.UploadedBy == "" || c.UploadedBy == filter.UploadedBy {
			matched = append(matched, c)
		}
	}
	s.mu.Unlock()

	sortNewestFirst(matched)
	total := int64(len(matched))
	if filter.Skip > 0 {
		if filter.Skip >= total {
			return []models.Contact{}, total, nil
		}
		matched = matched[filter.Skip:]
	}
	if filter.Limit > 0 && int64(len(matched)) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func sortNewestFirst(cs []models.Contact) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].UploadedAt.Equal(cs[j].UploadedAt) {
			return cs[i].ID.Hex() > cs[j].ID.Hex()
		}
		return cs[i].UploadedAt.After(cs[j].UploadedAt)
	})
}
