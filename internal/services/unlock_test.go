package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AnshRaj112/leadvault-backend/internal/models"
	"github.com/AnshRaj112/leadvault-backend/internal/repository"
	"github.com/AnshRaj112/leadvault-backend/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUnlockThenConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	x := env.seedContact(t, "owner", "Ada")
	env.seedLedger("u1", 100)

	res, err := env.unlock.Unlock(ctx, "u1", x.ID.Hex())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 80, res.RemainingPoints)
	assert.Equal(t, models.UnlockCost, res.PointsDeducted)
	assert.True(t, res.Contact.IsUnlocked)
	assert.Equal(t, "Ada@acme.test", res.Contact.Email)

	l := env.ledgerOf(t, "u1")
	assert.Equal(t, []string{x.ID.Hex()}, l.UnlockedContactIDs)
	assert.Equal(t, 1, l.UnlockedProfiles)
	assert.Equal(t, []string{"Unlocked contact: Ada"}, l.RecentActivity)

	_, err = env.unlock.Unlock(ctx, "u1", x.ID.Hex())
	assert.ErrorIs(t, err, ErrAlreadyUnlocked)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 80, env.ledgerOf(t, "u1").AvailablePoints)
}

func TestUnlockInsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	x := env.seedContact(t, "owner", "Ada")
	env.seedLedger("u1", 15)

	_, err := env.unlock.Unlock(context.Background(), "u1", x.ID.Hex())
	require.ErrorIs(t, err, ErrInsufficientFunds)

	var funds *InsufficientFundsError
	require.ErrorAs(t, err, &funds)
	assert.Equal(t, 20, funds.Required)
	assert.Equal(t, 15, funds.Available)
	assert.Equal(t, 5, funds.Shortfall())

	l := env.ledgerOf(t, "u1")
	assert.Equal(t, 15, l.AvailablePoints)
	assert.Empty(t, l.UnlockedContactIDs)
	assert.Empty(t, l.RecentActivity)
}

func TestUnlockValidationOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// missing contact wins over missing ledger
	_, err := env.unlock.Unlock(ctx, "nobody", "64b000000000000000000000")
	assert.ErrorIs(t, err, ErrContactNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.unlock.Unlock(ctx, "nobody", "not-an-id")
	assert.ErrorIs(t, err, ErrContactNotFound)

	x := env.seedContact(t, "owner", "Ada")
	_, err = env.unlock.Unlock(ctx, "nobody", x.ID.Hex())
	assert.ErrorIs(t, err, ErrLedgerNotFound)

	// already unlocked wins over insufficient funds
	l := models.NewLedger("u1", time.Now())
	l.AvailablePoints = 0
	l.UnlockedContactIDs = []string{x.ID.Hex()}
	l.UnlockedProfiles = 1
	env.ledgers.Put(l)
	_, err = env.unlock.Unlock(ctx, "u1", x.ID.Hex())
	assert.ErrorIs(t, err, ErrAlreadyUnlocked)

	_, err = env.unlock.Unlock(ctx, "", x.ID.Hex())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestUnlockDoesNotTouchContact(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	x := env.seedContact(t, "owner", "Ada")
	env.seedLedger("u1", 100)

	_, err := env.unlock.Unlock(ctx, "u1", x.ID.Hex())
	require.NoError(t, err)

	stored, err := env.contacts.FindByID(ctx, x.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, x, *stored)

	// another viewer still sees it locked
	view, err := env.directory.GetContact(ctx, "u2", x.ID.Hex())
	require.NoError(t, err)
	assert.False(t, view.IsUnlocked)
	assert.Empty(t, view.Email)
}

func TestUnlockActivityLogKeepsLastTen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedLedger("u1", 1000)

	for i := 0; i < 12; i++ {
		c := env.seedContact(t, "owner", string(rune('A'+i)))
		_, err := env.unlock.Unlock(ctx, "u1", c.ID.Hex())
		require.NoError(t, err)
	}

	l := env.ledgerOf(t, "u1")
	require.Len(t, l.RecentActivity, models.OperationActivityCapacity)
	assert.Equal(t, "Unlocked contact: C", l.RecentActivity[0])
	assert.Equal(t, "Unlocked contact: L", l.RecentActivity[9])
	assert.Equal(t, 12, l.UnlockedProfiles)
	assert.Equal(t, 1000-12*models.UnlockCost, l.AvailablePoints)
}

func TestUnlockRecordsJournalEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	x := env.seedContact(t, "owner", "")
	env.seedLedger("u1", 100)

	_, err := env.unlock.Unlock(ctx, "u1", x.ID.Hex())
	require.NoError(t, err)

	events, err := env.journal.ListByUser(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventUnlock, events[0].Type)
	assert.Equal(t, -20, events[0].Delta)
	assert.Equal(t, 80, events[0].Balance)
	assert.Equal(t, []string{x.ID.Hex()}, events[0].ContactIDs)
	assert.Equal(t, "Unlocked contact: Unknown", events[0].Message)
}

func TestConcurrentUnlockSameContactSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	x := env.seedContact(t, "owner", "Ada")
	env.seedLedger("u1", models.UnlockCost)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.unlock.Unlock(ctx, "u1", x.ID.Hex())
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, errors.Is(err, ErrConflict) || errors.Is(err, ErrInsufficientFunds), "unexpected error %v", err)
	}
	assert.Equal(t, 1, wins)

	l := env.ledgerOf(t, "u1")
	assert.Equal(t, 0, l.AvailablePoints)
	assert.Equal(t, []string{x.ID.Hex()}, l.UnlockedContactIDs)
	assert.Equal(t, 1, l.UnlockedProfiles)
}

func TestConcurrentUnlockDifferentContactsNeverOverspend(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedLedger("u1", 3*models.UnlockCost+5)

	var ids []string
	for i := 0; i < 10; i++ {
		ids = append(ids, env.seedContact(t, "owner", "c").ID.Hex())
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			env.unlock.Unlock(ctx, "u1", id)
		}(id)
	}
	wg.Wait()

	l := env.ledgerOf(t, "u1")
	assert.Equal(t, 5, l.AvailablePoints)
	assert.Len(t, l.UnlockedContactIDs, 3)
	assert.Equal(t, len(l.UnlockedContactIDs), l.UnlockedProfiles)
}

// missingStore reports a guard miss even though the ledger would qualify.
type missingStore struct {
	*memory.LedgerStore
}

func (missingStore) ApplyUnlock(context.Context, string, string, int, string, time.Time) (*models.Ledger, error) {
	return nil, repository.ErrNotMatched
}

func TestUnlockGuardMissWithoutViolationIsConcurrentUpdate(t *testing.T) {
	env := newTestEnv(t)
	x := env.seedContact(t, "owner", "Ada")
	env.seedLedger("u1", 100)

	svc := NewUnlockService(missingStore{env.ledgers}, env.contacts, nil, zap.NewNop())
	_, err := svc.Unlock(context.Background(), "u1", x.ID.Hex())
	assert.ErrorIs(t, err, ErrConcurrentUpdate)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUnlockCancelledContextHasNoEffect(t *testing.T) {
	env := newTestEnv(t)
	x := env.seedContact(t, "owner", "Ada")
	env.seedLedger("u1", 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := env.unlock.Unlock(ctx, "u1", x.ID.Hex())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 100, env.ledgerOf(t, "u1").AvailablePoints)
}
