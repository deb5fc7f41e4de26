package repository

import (
	"context"
	"errors"
	"time"

	"github.com/AnshRaj112/leadvault-backend/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrNotMatched is returned by conditional updates whose guard did not hold.
	ErrNotMatched = errors.New("conditional update did not match")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate key")
)

// LedgerStore persists one ledger per user. Every mutating method is a single
// atomic update against that user's record.
type LedgerStore interface {
	FindByUser(ctx context.Context, userID string) (*models.Ledger, error)

	// Ensure returns the user's ledger, creating it with defaults when missing.
	Ensure(ctx context.Context, userID string, now time.Time) (*models.Ledger, error)

	// ApplyUnlock deducts cost, records contactID and appends activity only if contactID
	// is not yet unlocked and the balance covers cost. Otherwise it returns ErrNotMatched
	// and leaves the ledger untouched.
	ApplyUnlock(ctx context.Context, userID, contactID string, cost int, activity string, now time.Time) (*models.Ledger, error)

	// ApplyUploads credits reward per contact id, records the ids and appends the
	// activity lines, creating the ledger first when missing.
	ApplyUploads(ctx context.Context, userID string, contactIDs []string, reward int, activities []string, now time.Time) (*models.Ledger, error)

	// AppendActivity pushes message and truncates the log to capacity, creating the ledger when missing.
	AppendActivity(ctx context.Context, userID, message string, capacity int, now time.Time) (*models.Ledger, error)

	// SyncCounters overwrites myUploads and totalContacts with uploads and recomputes
	// unlockedProfiles from the stored unlocked set. The write only happens while
	// myUploads still equals expectedUploads; otherwise it returns ErrNotMatched.
	SyncCounters(ctx context.Context, userID string, expectedUploads, uploads int, now time.Time) (*models.Ledger, error)
}

// ContactFilter narrows a contact listing.
type ContactFilter struct {
	UploadedBy string
	Limit      int64
	Skip       int64
}

// ContactStore persists contacts.
type ContactStore interface {
	FindByID(ctx context.Context, id string) (*models.Contact, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Contact, error)
	InsertMany(ctx context.Context, contacts []*models.Contact) error
	DeleteMany(ctx context.Context, ids []primitive.ObjectID) error
	CountByUploader(ctx context.Context, userID string) (int64, error)

	// CountSettled counts userID's contacts that are either listed in credited or
	// were uploaded at or before cutoff. Newer uncredited contacts belong to an
	// upload whose ledger credit has not landed yet.
	CountSettled(ctx context.Context, userID string, credited []string, cutoff time.Time) (int64, error)
	List(ctx context.Context, filter ContactFilter) ([]models.Contact, int64, error)
}

// EventJournal is the append-only ledger history.
type EventJournal interface {
	Append(ctx context.Context, evt models.LedgerEvent) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.LedgerEvent, error)
}

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}
