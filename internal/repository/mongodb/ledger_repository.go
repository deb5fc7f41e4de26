package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AnshRaj112/leadvault-backend/internal/models"
	"github.com/AnshRaj112/leadvault-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const LedgersCollection = "ledgers"

type LedgerRepository struct {
	col *mongo.Collection
}

func NewLedgerRepository(db *mongo.Database) *LedgerRepository {
	return &LedgerRepository{col: db.Collection(LedgersCollection)}
}

// EnsureIndexes creates the unique owner index. Called on startup.
func (r *LedgerRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetName("uniq_user_id").SetUnique(true),
	})
	return err
}

func (r *LedgerRepository) FindByUser(ctx context.Context, userID string) (*models.Ledger, error) {
	var l models.Ledger
	err := r.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find ledger: %w", err)
	}
	return normalize(&l), nil
}

func (r *LedgerRepository) Ensure(ctx context.Context, userID string, now time.Time) (*models.Ledger, error) {
	update := bson.M{"$setOnInsert": insertDefaults(now)}
	l, err := r.findOneAndUpdate(ctx, bson.M{"user_id": userID}, update, true)
	if err != nil {
		return nil, fmt.Errorf("ensure ledger: %w", err)
	}
	return l, nil
}

func (r *LedgerRepository) ApplyUnlock(ctx context.Context, userID, contactID string, cost int, activity string, now time.Time) (*models.Ledger, error) {
	// Guard and mutation travel in one findAndModify so two concurrent unlocks
	// of the same contact cannot both pass the membership and balance checks.
	filter := bson.M{
		"user_id":              userID,
		"unlocked_contact_ids": bson.M{"$ne": contactID},
		"available_points":     bson.M{"$gte": cost},
	}
	update := bson.M{
		"$inc": bson.M{
			"available_points":  -cost,
			"unlocked_profiles": 1,
		},
		"$push": bson.M{
			"unlocked_contact_ids": contactID,
			"recent_activity": bson.M{
				"$each":  bson.A{activity},
				"$slice": -models.OperationActivityCapacity,
			},
		},
		"$set": bson.M{"updated_at": now},
	}

	l, err := r.findOneAndUpdate(ctx, filter, update, false)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotMatched
	}
	if err != nil {
		return nil, fmt.Errorf("apply unlock: %w", err)
	}
	return l, nil
}

func (r *LedgerRepository) ApplyUploads(ctx context.Context, userID string, contactIDs []string, reward int, activities []string, now time.Time) (*models.Ledger, error) {
	// $inc on an upserted document would start from zero, so defaults go in first.
	if _, err := r.Ensure(ctx, userID, now); err != nil {
		return nil, err
	}

	n := len(contactIDs)
	update := bson.M{
		"$inc": bson.M{
			"available_points": reward * n,
			"total_contacts":   n,
			"my_uploads":       n,
		},
		"$push": bson.M{
			"uploaded_profile_ids": bson.M{"$each": contactIDs},
			"recent_activity": bson.M{
				"$each":  activities,
				"$slice": -models.OperationActivityCapacity,
			},
		},
		"$set": bson.M{"updated_at": now},
	}

	l, err := r.findOneAndUpdate(ctx, bson.M{"user_id": userID}, update, false)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("apply uploads: %w", err)
	}
	return l, nil
}

func (r *LedgerRepository) AppendActivity(ctx context.Context, userID, message string, capacity int, now time.Time) (*models.Ledger, error) {
	if _, err := r.Ensure(ctx, userID, now); err != nil {
		return nil, err
	}

	update := bson.M{
		"$push": bson.M{
			"recent_activity": bson.M{
				"$each":  bson.A{message},
				"$slice": -capacity,
			},
		},
		"$set": bson.M{"updated_at": now},
	}

	l, err := r.findOneAndUpdate(ctx, bson.M{"user_id": userID}, update, false)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("append activity: %w", err)
	}
	return l, nil
}

func (r *LedgerRepository) SyncCounters(ctx context.Context, userID string, expectedUploads, uploads int, now time.Time) (*models.Ledger, error) {
	// Pipeline update: unlocked_profiles is taken from the array as stored at write time.
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "my_uploads", Value: uploads},
			{Key: "total_contacts", Value: uploads},
			{Key: "unlocked_profiles", Value: bson.D{
				{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$unlocked_contact_ids", bson.A{}}}}},
			}},
			{Key: "updated_at", Value: now},
		}}},
	}

	// An upload landing after the caller counted moves my_uploads and fails the match.
	filter := bson.M{"user_id": userID, "my_uploads": expectedUploads}
	if expectedUploads == 0 {
		filter["my_uploads"] = bson.M{"$in": bson.A{0, nil}}
	}

	l, err := r.findOneAndUpdate(ctx, filter, pipeline, false)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotMatched
	}
	if err != nil {
		return nil, fmt.Errorf("sync counters: %w", err)
	}
	return l, nil
}

func (r *LedgerRepository) findOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, upsert bool) (*models.Ledger, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetUpsert(upsert)

	var l models.Ledger
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&l); err != nil {
		return nil, err
	}
	return normalize(&l), nil
}

func insertDefaults(now time.Time) bson.M {
	return bson.M{
		"available_points":     models.DefaultPoints,
		"total_contacts":       0,
		"unlocked_profiles":    0,
		"my_uploads":           0,
		"uploaded_profile_ids": bson.A{},
		"unlocked_contact_ids": bson.A{},
		"recent_activity":      bson.A{},
		"created_at":           now,
		"updated_at":           now,
	}
}

// normalize replaces nil slices left by older documents so JSON renders [] not null.
func normalize(l *models.Ledger) *models.Ledger {
	if l.UploadedProfileIDs == nil {
		l.UploadedProfileIDs = []string{}
	}
	if l.UnlockedContactIDs == nil {
		l.UnlockedContactIDs = []string{}
	}
	if l.RecentActivity == nil {
		l.RecentActivity = []string{}
	}
	return l
}
