package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AnshRaj112/leadvault-backend/internal/models"
	"github.com/AnshRaj112/leadvault-backend/internal/repository"
	"go.uber.org/zap"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 100

	// summary windows for the activity view
	activitySummarySize = 10
	recentUploadsSize   = 10

	maxActivityLength = 500
)

// UnlockedContacts describes what a user has unlocked.
type UnlockedContacts struct {
	UnlockedContactIDs []string                `json:"unlockedContactIds"`
	UnlockedProfiles   int                     `json:"unlockedProfiles"`
	ActualCount        int                     `json:"actualCount"`
	Contacts           []models.ContactSummary `json:"contacts"`
}

// ActivitySummary is the dashboard's recent-activity panel.
type ActivitySummary struct {
	RecentActivity  []string                `json:"recentActivity"`
	RecentUploads   []models.ContactSummary `json:"recentUploads"`
	TotalActivities int                     `json:"totalActivities"`
	LastUpdated     time.Time               `json:"lastUpdated"`
}

// LedgerService serves ledger reads and the generic activity append.
type LedgerService struct {
	ledgers    repository.LedgerStore
	contacts   repository.ContactStore
	journal    repository.EventJournal
	reconciler *Reconciler
	events     emitter
	logger     *zap.Logger
	now        func() time.Time
}

func NewLedgerService(ledgers repository.LedgerStore, contacts repository.ContactStore, journal repository.EventJournal, reconciler *Reconciler, sink EventSink, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		ledgers:    ledgers,
		contacts:   contacts,
		journal:    journal,
		reconciler: reconciler,
		events:     newEmitter(sink, logger),
		logger:     logger,
		now:        time.Now,
	}
}

// GetLedger returns the user's ledger, creating it on first access and
// repairing any counter drift.
func (s *LedgerService) GetLedger(ctx context.Context, userID string) (*models.Ledger, error) {
	if _, err := s.Ensure(ctx, userID); err != nil {
		return nil, err
	}
	return s.reconciler.Reconcile(ctx, userID)
}

// Ensure creates the ledger with default values when it does not exist yet.
func (s *LedgerService) Ensure(ctx context.Context, userID string) (*models.Ledger, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	ledger, err := s.ledgers.Ensure(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to ensure ledger: %w", err)
	}
	return ledger, nil
}

// AppendActivity adds message to the user's activity log, keeping the last 20 entries.
func (s *LedgerService) AppendActivity(ctx context.Context, userID, message string) (*models.Ledger, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, invalidInput("activity message is required", "message")
	}
	if len(message) > maxActivityLength {
		return nil, invalidInput(fmt.Sprintf("activity message must be at most %d characters", maxActivityLength), "message")
	}

	now := s.now()
	ledger, err := s.ledgers.AppendActivity(ctx, userID, message, models.AppendActivityCapacity, now)
	if err != nil {
		return nil, fmt.Errorf("failed to append activity: %w", err)
	}
	s.events.emit(ctx, models.NewLedgerEvent(models.EventActivity, ledger, 0, nil, message, now))
	return ledger, nil
}

func (s *LedgerService) UnlockedContacts(ctx context.Context, userID string) (*UnlockedContacts, error) {
	ledger, err := s.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}

	contacts, err := s.contacts.FindByIDs(ctx, ledger.UnlockedContactIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load unlocked contacts: %w", err)
	}
	summaries := make([]models.ContactSummary, 0, len(contacts))
	for i := range contacts {
		summaries = append(summaries, contacts[i].Summary())
	}

	return &UnlockedContacts{
		UnlockedContactIDs: ledger.UnlockedContactIDs,
		UnlockedProfiles:   ledger.UnlockedProfiles,
		ActualCount:        len(ledger.UnlockedContactIDs),
		Contacts:           summaries,
	}, nil
}

func (s *LedgerService) ActivitySummary(ctx context.Context, userID string) (*ActivitySummary, error) {
	ledger, err := s.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}

	uploads, _, err := s.contacts.List(ctx, repository.ContactFilter{UploadedBy: userID, Limit: recentUploadsSize})
	if err != nil {
		return nil, fmt.Errorf("failed to load recent uploads: %w", err)
	}
	recent := make([]models.ContactSummary, 0, len(uploads))
	for i := range uploads {
		recent = append(recent, uploads[i].Summary())
	}

	return &ActivitySummary{
		RecentActivity:  models.RecentFirst(ledger.RecentActivity, activitySummarySize),
		RecentUploads:   recent,
		TotalActivities: len(ledger.RecentActivity),
		LastUpdated:     ledger.UpdatedAt,
	}, nil
}

// History returns the user's journal newest first. limit is clamped to [1, 100];
// zero means the default of 50.
func (s *LedgerService) History(ctx context.Context, userID string, limit int) ([]models.LedgerEvent, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	events, err := s.journal.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger history: %w", err)
	}
	return events, nil
}
