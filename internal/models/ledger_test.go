package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewLedgerDefaults(t *testing.T) {
	now := time.Now()
	l := NewLedger("u1", now)
	assert.Equal(t, "u1", l.UserID)
	assert.Equal(t, DefaultPoints, l.AvailablePoints)
	assert.Zero(t, l.MyUploads)
	assert.Zero(t, l.UnlockedProfiles)
	assert.Empty(t, l.UnlockedContactIDs)
	assert.NotNil(t, l.RecentActivity)
	assert.Equal(t, now, l.UpdatedAt)
}

func TestAppendBoundedDropsOldestFirst(t *testing.T) {
	var log []string
	for i := 0; i < 12; i++ {
		log = AppendBounded(log, 10, string(rune('a'+i)))
	}
	assert.Len(t, log, 10)
	assert.Equal(t, "c", log[0])
	assert.Equal(t, "l", log[9])

	log = AppendBounded([]string{"x"}, 10, "y", "z")
	assert.Equal(t, []string{"x", "y", "z"}, log)
}

func TestAppendBoundedDoesNotAliasInput(t *testing.T) {
	in := make([]string, 1, 4)
	in[0] = "a"
	out := AppendBounded(in, 10, "b")
	out[0] = "changed"
	assert.Equal(t, "a", in[0])
}

func TestRecentFirst(t *testing.T) {
	log := []string{"1", "2", "3", "4"}
	assert.Equal(t, []string{"4", "3"}, RecentFirst(log, 2))
	assert.Equal(t, []string{"4", "3", "2", "1"}, RecentFirst(log, 10))
	assert.Empty(t, RecentFirst(nil, 10))
}

func TestHasUnlockedAndClone(t *testing.T) {
	l := NewLedger("u1", time.Now())
	l.UnlockedContactIDs = []string{"c1"}
	assert.True(t, l.HasUnlocked("c1"))
	assert.False(t, l.HasUnlocked("c2"))
	assert.False(t, (*Ledger)(nil).HasUnlocked("c1"))

	c := l.Clone()
	c.UnlockedContactIDs[0] = "other"
	assert.Equal(t, "c1", l.UnlockedContactIDs[0])
	_, ok := l.UnlockedSet()["c1"]
	assert.True(t, ok)
}
