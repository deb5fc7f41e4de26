package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AnshRaj112/leadvault-backend/internal/models"
	"github.com/AnshRaj112/leadvault-backend/internal/repository"
	"go.uber.org/zap"
)

// DefaultUploadSettle is how long a freshly stored contact may wait for its
// ledger credit before Reconcile counts it anyway.
const DefaultUploadSettle = 2 * time.Minute

const maxReconcileAttempts = 3

// Reconciler recomputes a ledger's derived counters from the contact
// collection and the ledger's own unlocked set.
type Reconciler struct {
	ledgers  repository.LedgerStore
	contacts repository.ContactStore
	events   emitter
	logger   *zap.Logger
	now      func() time.Time
	settle   time.Duration
}

func NewReconciler(ledgers repository.LedgerStore, contacts repository.ContactStore, sink EventSink, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		ledgers:  ledgers,
		contacts: contacts,
		events:   newEmitter(sink, logger),
		logger:   logger,
		now:      time.Now,
		settle:   DefaultUploadSettle,
	}
}

// Reconcile writes only when myUploads or unlockedProfiles has drifted, so
// calling it twice in a row returns the same ledger both times. Contacts of an
// upload still waiting for its credit are left out of the count, and the write
// is skipped if an upload credit lands between the count and the sync.
func (r *Reconciler) Reconcile(ctx context.Context, userID string) (*models.Ledger, error) {
	var ledger *models.Ledger
	for attempt := 1; attempt <= maxReconcileAttempts; attempt++ {
		current, err := r.ledgers.FindByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrLedgerNotFound
			}
			return nil, fmt.Errorf("failed to load ledger: %w", err)
		}
		ledger = current

		now := r.now()
		uploads, err := r.contacts.CountSettled(ctx, userID, ledger.UploadedProfileIDs, now.Add(-r.settle))
		if err != nil {
			return nil, fmt.Errorf("failed to count uploads: %w", err)
		}

		unlocked := len(ledger.UnlockedContactIDs)
		if int(uploads) == ledger.MyUploads && unlocked == ledger.UnlockedProfiles {
			return ledger, nil
		}

		synced, err := r.ledgers.SyncCounters(ctx, userID, ledger.MyUploads, int(uploads), now)
		if errors.Is(err, repository.ErrNotMatched) {
			r.logger.Debug("ledger changed during reconcile, retrying",
				zap.String("user_id", userID),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrLedgerNotFound
			}
			return nil, fmt.Errorf("failed to sync counters: %w", err)
		}

		r.logger.Info("ledger counters reconciled",
			zap.String("user_id", userID),
			zap.Int("my_uploads_was", ledger.MyUploads),
			zap.Int("my_uploads", synced.MyUploads),
			zap.Int("unlocked_profiles_was", ledger.UnlockedProfiles),
			zap.Int("unlocked_profiles", synced.UnlockedProfiles),
		)
		message := fmt.Sprintf("Counters reconciled: uploads %d -> %d, unlocked %d -> %d",
			ledger.MyUploads, synced.MyUploads, ledger.UnlockedProfiles, synced.UnlockedProfiles)
		r.events.emit(ctx, models.NewLedgerEvent(models.EventReconcile, synced, 0, nil, message, now))
		return synced, nil
	}

	// Still contended; the next read gets another chance.
	r.logger.Warn("ledger reconcile gave up under contention", zap.String("user_id", userID))
	return ledger, nil
}
