package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// DefaultPoints is the balance every new ledger starts with.
	DefaultPoints = 100
	// UnlockCost is deducted for each contact a user unlocks.
	UnlockCost = 20
	// UploadReward is credited for each contact a user contributes.
	UploadReward = 10

	// OperationActivityCapacity bounds the activity log on unlock and upload.
	OperationActivityCapacity = 10
	// AppendActivityCapacity bounds the activity log on the dedicated append path.
	AppendActivityCapacity = 20
)

// Ledger is the per-user points balance together with unlock and upload history.
// UnlockedProfiles, MyUploads and TotalContacts are derived counters; see services.Reconcile.
type Ledger struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID             string             `bson:"user_id" json:"userId"`
	AvailablePoints    int                `bson:"available_points" json:"availablePoints"`
	TotalContacts      int                `bson:"total_contacts" json:"totalContacts"`
	UnlockedProfiles   int                `bson:"unlocked_profiles" json:"unlockedProfiles"`
	MyUploads          int                `bson:"my_uploads" json:"myUploads"`
	UploadedProfileIDs []string           `bson:"uploaded_profile_ids" json:"uploadedProfileIds"`
	UnlockedContactIDs []string           `bson:"unlocked_contact_ids" json:"unlockedContactIds"`
	RecentActivity     []string           `bson:"recent_activity" json:"recentActivity"` // chronological, oldest first
	CreatedAt          time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updatedAt"`
}

// NewLedger returns a ledger with default values for userID.
func NewLedger(userID string, now time.Time) *Ledger {
	return &Ledger{
		UserID:             userID,
		AvailablePoints:    DefaultPoints,
		UploadedProfileIDs: []string{},
		UnlockedContactIDs: []string{},
		RecentActivity:     []string{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// HasUnlocked reports whether contactID is in the ledger's unlocked set.
func (l *Ledger) HasUnlocked(contactID string) bool {
	if l == nil {
		return false
	}
	for _, id := range l.UnlockedContactIDs {
		if id == contactID {
			return true
		}
	}
	return false
}

// UnlockedSet returns the unlocked ids as a set for bulk membership checks.
func (l *Ledger) UnlockedSet() map[string]struct{} {
	set := make(map[string]struct{})
	if l == nil {
		return set
	}
	for _, id := range l.UnlockedContactIDs {
		set[id] = struct{}{}
	}
	return set
}

// Clone returns a deep copy so callers never share slices with a store.
func (l *Ledger) Clone() *Ledger {
	if l == nil {
		return nil
	}
	c := *l
	c.UploadedProfileIDs = append([]string{}, l.UploadedProfileIDs...)
	c.UnlockedContactIDs = append([]string{}, l.UnlockedContactIDs...)
	c.RecentActivity = append([]string{}, l.RecentActivity...)
	return &c
}

// AppendBounded appends entries to log and keeps only the last capacity of them.
func AppendBounded(log []string, capacity int, entries ...string) []string {
	out := append(append([]string{}, log...), entries...)
	if capacity > 0 && len(out) > capacity {
		out = out[len(out)-capacity:]
	}
	return out
}

// RecentFirst returns up to n entries of a chronological log, newest first.
func RecentFirst(log []string, n int) []string {
	if n <= 0 || n > len(log) {
		n = len(log)
	}
	out := make([]string, 0, n)
	for i := len(log) - 1; i >= len(log)-n; i-- {
		out = append(out, log[i])
	}
	return out
}
