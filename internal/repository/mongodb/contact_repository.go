package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AnshRaj112/leadvault-backend/internal/models"
	"github.com/AnshRaj112/leadvault-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ContactsCollection = "contacts"

type ContactRepository struct {
	col *mongo.Collection
}

func NewContactRepository(db *mongo.Database) *ContactRepository {
	return &ContactRepository{col: db.Collection(ContactsCollection)}
}

// EnsureIndexes configures indexes for the contacts collection.
func (r *ContactRepository) EnsureIndexes(ctx context.Context) error {
	idx := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "uploaded_by", Value: 1},
				{Key: "uploaded_at", Value: -1},
			},
			Options: options.Index().SetName("idx_uploader_uploaded_at"),
		},
		{
			Keys:    bson.D{{Key: "uploaded_at", Value: -1}},
			Options: options.Index().SetName("idx_uploaded_at"),
		},
	}
	_, err := r.col.Indexes().CreateMany(ctx, idx)
	return err
}

func (r *ContactRepository) FindByID(ctx context.Context, id string) (*models.Contact, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	var c models.Contact
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find contact: %w", err)
	}
	return &c, nil
}

func (r *ContactRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Contact, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []models.Contact{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: -1}})
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}}, opts)
}

func (r *ContactRepository) InsertMany(ctx context.Context, contacts []*models.Contact) error {
	if len(contacts) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(contacts))
	for _, c := range contacts {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		docs = append(docs, c)
	}
	if _, err := r.col.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return fmt.Errorf("insert contacts: %w", err)
	}
	return nil
}

func (r *ContactRepository) DeleteMany(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return fmt.Errorf("delete contacts: %w", err)
	}
	return nil
}

func (r *ContactRepository) CountByUploader(ctx context.Context, userID string) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"uploaded_by": userID})
	if err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return n, nil
}

func (r *ContactRepository) CountSettled(ctx context.Context, userID string, credited []string, cutoff time.Time) (int64, error) {
	oids := make([]primitive.ObjectID, 0, len(credited))
	for _, id := range credited {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}

	filter := bson.M{
		"uploaded_by": userID,
		"$or": bson.A{
			bson.M{"uploaded_at": bson.M{"$lte": cutoff}},
			bson.M{"_id": bson.M{"$in": oids}},
		},
	}
	n, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count settled contacts: %w", err)
	}
	return n, nil
}

func (r *ContactRepository) List(ctx context.Context, filter repository.ContactFilter) ([]models.Contact, int64, error) {
	q := bson.M{}
	if filter.UploadedBy != "" {
		q["uploaded_by"] = filter.UploadedBy
	}

	total, err := r.col.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("count contacts: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}
	if filter.Skip > 0 {
		opts.SetSkip(filter.Skip)
	}

	contacts, err := r.find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	return contacts, total, nil
}

func (r *ContactRepository) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]models.Contact, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find contacts: %w", err)
	}
	defer cur.Close(ctx)

	contacts := []models.Contact{}
	if err := cur.All(ctx, &contacts); err != nil {
		return nil, fmt.Errorf("decode contacts: %w", err)
	}
	return contacts, nil
}
