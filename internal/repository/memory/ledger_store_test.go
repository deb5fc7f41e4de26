package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AnshRaj112/leadvault-backend/internal/models"
	"github.com/AnshRaj112/leadvault-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyUnlockGuards(t *testing.T) {
	ctx := context.Background()
	s := NewLedgerStore()
	now := time.Now()

	_, err := s.ApplyUnlock(ctx, "missing", "c1", 20, "x", now)
	assert.ErrorIs(t, err, repository.ErrNotMatched)

	_, err = s.Ensure(ctx, "u1", now)
	require.NoError(t, err)

	l, err := s.ApplyUnlock(ctx, "u1", "c1", 20, "Unlocked contact: A", now)
	require.NoError(t, err)
	assert.Equal(t, 80, l.AvailablePoints)
	assert.Equal(t, []string{"c1"}, l.UnlockedContactIDs)

	_, err = s.ApplyUnlock(ctx, "u1", "c1", 20, "again", now)
	assert.ErrorIs(t, err, repository.ErrNotMatched)

	s.Put(&models.Ledger{UserID: "poor", AvailablePoints: 5})
	_, err = s.ApplyUnlock(ctx, "poor", "c1", 20, "x", now)
	assert.ErrorIs(t, err, repository.ErrNotMatched)
	got, err := s.FindByUser(ctx, "poor")
	require.NoError(t, err)
	assert.Equal(t, 5, got.AvailablePoints)
}

func TestApplyUnlockConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := NewLedgerStore()
	s.Put(&models.Ledger{UserID: "u1", AvailablePoints: 40})

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.ApplyUnlock(ctx, "u1", "c1", 20, "x", time.Now()); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	l, _ := s.FindByUser(ctx, "u1")
	assert.Equal(t, 20, l.AvailablePoints)
	assert.Len(t, l.UnlockedContactIDs, 1)
}

func TestReturnedLedgerIsACopy(t *testing.T) {
	ctx := context.Background()
	s := NewLedgerStore()
	l, err := s.AppendActivity(ctx, "u1", "hello", 20, time.Now())
	require.NoError(t, err)
	l.RecentActivity[0] = "tampered"

	again, err := s.FindByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, again.RecentActivity)
}

func TestCancelledContextHasNoEffect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewLedgerStore()

	_, err := s.ApplyUploads(ctx, "u1", []string{"c1"}, 10, []string{"x"}, time.Now())
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.FindByUser(context.Background(), "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSyncCountersGuardsObservedUploads(t *testing.T) {
	ctx := context.Background()
	s := NewLedgerStore()
	now := time.Now()

	_, err := s.SyncCounters(ctx, "missing", 0, 1, now)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = s.ApplyUploads(ctx, "u1", []string{"c1"}, 10, []string{"Uploaded contact: A"}, now)
	require.NoError(t, err)

	_, err = s.SyncCounters(ctx, "u1", 0, 0, now)
	assert.ErrorIs(t, err, repository.ErrNotMatched)
	got, err := s.FindByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.MyUploads)

	got, err = s.SyncCounters(ctx, "u1", 1, 2, now)
	require.NoError(t, err)
	assert.Equal(t, 2, got.MyUploads)
	assert.Equal(t, 2, got.TotalContacts)
}

func TestCountSettledSkipsUncreditedRecentContacts(t *testing.T) {
	ctx := context.Background()
	s := NewContactStore()
	now := time.Now()

	old := &models.Contact{UploadedBy: "u1", UploadedAt: now.Add(-time.Hour)}
	credited := &models.Contact{UploadedBy: "u1", UploadedAt: now}
	pending := &models.Contact{UploadedBy: "u1", UploadedAt: now}
	other := &models.Contact{UploadedBy: "u2", UploadedAt: now.Add(-time.Hour)}
	require.NoError(t, s.InsertMany(ctx, []*models.Contact{old, credited, pending, other}))

	n, err := s.CountSettled(ctx, "u1", []string{credited.ID.Hex()}, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = s.CountSettled(ctx, "u1", nil, now)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}
