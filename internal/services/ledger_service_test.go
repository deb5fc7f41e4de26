package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/AnshRaj112/leadvault-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLedgerCreatesDefaults(t *testing.T) {
	env := newTestEnv(t)
	l, err := env.ledger.GetLedger(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", l.UserID)
	assert.Equal(t, models.DefaultPoints, l.AvailablePoints)
	assert.Zero(t, l.MyUploads)

	again, err := env.ledger.GetLedger(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, l.ID, again.ID)

	_, err = env.ledger.GetLedger(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAppendActivityKeepsLastTwenty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var l *models.Ledger
	var err error
	for i := 0; i < 25; i++ {
		l, err = env.ledger.AppendActivity(ctx, "u1", fmt.Sprintf("event %d", i))
		require.NoError(t, err)
	}
	require.Len(t, l.RecentActivity, models.AppendActivityCapacity)
	assert.Equal(t, "event 5", l.RecentActivity[0])
	assert.Equal(t, "event 24", l.RecentActivity[19])
	assert.Equal(t, models.DefaultPoints, l.AvailablePoints)
}

func TestAppendActivityRejectsBlankMessage(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.ledger.AppendActivity(context.Background(), "u1", "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.ledger.AppendActivity(context.Background(), "u1", strings.Repeat("x", 501))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUnlockedContacts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.seedContact(t, "owner", "Ada")
	env.seedContact(t, "owner", "Bob")
	env.seedLedger("u1", 100)

	_, err := env.unlock.Unlock(ctx, "u1", a.ID.Hex())
	require.NoError(t, err)

	got, err := env.ledger.UnlockedContacts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID.Hex()}, got.UnlockedContactIDs)
	assert.Equal(t, 1, got.UnlockedProfiles)
	assert.Equal(t, 1, got.ActualCount)
	require.Len(t, got.Contacts, 1)
	assert.Equal(t, "Ada", got.Contacts[0].Name)
}

func TestActivitySummaryNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.contribute.CreateContacts(ctx, "u1", inputs(12))
	require.NoError(t, err)
	_, err = env.ledger.AppendActivity(ctx, "u1", "viewed dashboard")
	require.NoError(t, err)

	sum, err := env.ledger.ActivitySummary(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, sum.RecentActivity, 10)
	assert.Equal(t, "viewed dashboard", sum.RecentActivity[0])
	assert.Equal(t, "Uploaded contact: person11", sum.RecentActivity[1])
	assert.Equal(t, 11, sum.TotalActivities)
	assert.Len(t, sum.RecentUploads, 10)
	assert.False(t, sum.LastUpdated.IsZero())
}

func TestHistoryClampsLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for i := 0; i < 120; i++ {
		_, err := env.ledger.AppendActivity(ctx, "u1", fmt.Sprintf("e%d", i))
		require.NoError(t, err)
	}

	events, err := env.ledger.History(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, events, DefaultHistoryLimit)
	assert.Equal(t, "e119", events[0].Message)

	events, err = env.ledger.History(ctx, "u1", 1000)
	require.NoError(t, err)
	assert.Len(t, events, MaxHistoryLimit)

	events, err = env.ledger.History(ctx, "u2", 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
