package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/AnshRaj112/leadvault-backend/internal/models"
	"github.com/AnshRaj112/leadvault-backend/internal/repository/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	ledgers  *memory.LedgerStore
	contacts *memory.ContactStore
	journal  *memory.Journal

	unlock     *UnlockService
	contribute *ContributionService
	reconciler *Reconciler
	ledger     *LedgerService
	directory  *Directory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	env := &testEnv{
		ledgers:  memory.NewLedgerStore(),
		contacts: memory.NewContactStore(),
		journal:  memory.NewJournal(),
	}
	sink := NewFanOut(logger).Add("journal", JournalSink{Journal: env.journal})

	env.unlock = NewUnlockService(env.ledgers, env.contacts, sink, logger)
	env.contribute = NewContributionService(env.ledgers, env.contacts, sink, logger)
	env.reconciler = NewReconciler(env.ledgers, env.contacts, sink, logger)
	// Seeded contacts bypass the ledger and must count as settled right away.
	env.reconciler.settle = 0
	env.ledger = NewLedgerService(env.ledgers, env.contacts, env.journal, env.reconciler, sink, logger)
	env.directory = NewDirectory(env.ledgers, env.contacts)
	return env
}

func contactInput(name string) models.ContactInput {
	return models.ContactInput{
		Name:     name,
		JobTitle: "Engineer",
		Company:  "Acme",
		Email:    name + "@acme.test",
		Phone:    "+1-555-0100",
		Skills:   []string{"go"},
	}
}

// seedContact stores a contact uploaded by owner without touching any ledger.
func (e *testEnv) seedContact(t *testing.T, owner, name string) models.Contact {
	t.Helper()
	c := contactInput(name).ToContact(owner, time.Now())
	require.NoError(t, e.contacts.InsertMany(context.Background(), []*models.Contact{c}))
	return *c
}

func (e *testEnv) seedLedger(userID string, points int) {
	l := models.NewLedger(userID, time.Now())
	l.AvailablePoints = points
	e.ledgers.Put(l)
}

func (e *testEnv) ledgerOf(t *testing.T, userID string) *models.Ledger {
	t.Helper()
	l, err := e.ledgers.FindByUser(context.Background(), userID)
	require.NoError(t, err)
	return l
}

func inputs(n int) []models.ContactInput {
	out := make([]models.ContactInput, n)
	for i := range out {
		out[i] = contactInput(fmt.Sprintf("person%d", i))
	}
	return out
}
