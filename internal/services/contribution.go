package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/AnshRaj112/leadvault-backend/internal/models"
	"github.com/AnshRaj112/leadvault-backend/internal/repository"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MaxBulkContacts caps a single bulk upload.
const MaxBulkContacts = 500

const compensationTimeout = 5 * time.Second

// ContributionResult is what an upload produced.
type ContributionResult struct {
	Contacts     []models.Contact `json:"contacts"`
	Ledger       *models.Ledger   `json:"ledger"`
	PointsEarned int              `json:"pointsEarned"`
}

// ContributionService creates contacts and credits their uploader.
type ContributionService struct {
	ledgers  repository.LedgerStore
	contacts repository.ContactStore
	validate *validator.Validate
	events   emitter
	logger   *zap.Logger
	now      func() time.Time
}

func NewContributionService(ledgers repository.LedgerStore, contacts repository.ContactStore, sink EventSink, logger *zap.Logger) *ContributionService {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &ContributionService{
		ledgers:  ledgers,
		contacts: contacts,
		validate: v,
		events:   newEmitter(sink, logger),
		logger:   logger,
		now:      time.Now,
	}
}

// CreateContact stores one contact owned by userID and credits the upload reward.
func (s *ContributionService) CreateContact(ctx context.Context, userID string, in models.ContactInput) (*ContributionResult, error) {
	return s.create(ctx, userID, []models.ContactInput{in}, false)
}

// CreateContacts stores a batch of contacts. Any invalid entry rejects the
// whole batch before anything is written.
func (s *ContributionService) CreateContacts(ctx context.Context, userID string, ins []models.ContactInput) (*ContributionResult, error) {
	return s.create(ctx, userID, ins, true)
}

func (s *ContributionService) create(ctx context.Context, userID string, ins []models.ContactInput, bulk bool) (*ContributionResult, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if bulk {
		if len(ins) == 0 {
			return nil, invalidInput("contacts must be a non-empty array", "contacts")
		}
		if len(ins) > MaxBulkContacts {
			return nil, invalidInput(fmt.Sprintf("at most %d contacts per upload", MaxBulkContacts), "contacts")
		}
	}

	now := s.now()
	contacts := make([]*models.Contact, 0, len(ins))
	for i, in := range ins {
		in = normalizeInput(in)
		if err := s.validateInput(in, i, bulk); err != nil {
			s.logger.Debug("contribution rejected", zap.String("user_id", userID), zap.Error(err))
			return nil, err
		}
		contacts = append(contacts, in.ToContact(userID, now))
	}

	if err := s.contacts.InsertMany(ctx, contacts); err != nil {
		return nil, fmt.Errorf("failed to insert contacts: %w", err)
	}

	ledger, err := s.record(ctx, userID, contacts, now)
	if err != nil {
		s.compensate(ctx, contacts)
		return nil, err
	}

	created := make([]models.Contact, len(contacts))
	for i, c := range contacts {
		created[i] = *c
	}
	return &ContributionResult{
		Contacts:     created,
		Ledger:       ledger,
		PointsEarned: models.UploadReward * len(contacts),
	}, nil
}

// RecordUpload credits userID for a contact that has already been stored.
func (s *ContributionService) RecordUpload(ctx context.Context, userID string, contact *models.Contact) (*models.Ledger, error) {
	return s.RecordBulkUpload(ctx, userID, []*models.Contact{contact})
}

// RecordBulkUpload credits userID once per stored contact in a single ledger update.
func (s *ContributionService) RecordBulkUpload(ctx context.Context, userID string, contacts []*models.Contact) (*models.Ledger, error) {
	if len(contacts) == 0 {
		return nil, invalidInput("no contacts to record", "contacts")
	}
	return s.record(ctx, userID, contacts, s.now())
}

func (s *ContributionService) record(ctx context.Context, userID string, contacts []*models.Contact, now time.Time) (*models.Ledger, error) {
	ids := make([]string, len(contacts))
	activities := make([]string, len(contacts))
	for i, c := range contacts {
		ids[i] = c.ID.Hex()
		activities[i] = "Uploaded contact: " + displayName(c.Name)
	}
	delta := models.UploadReward * len(contacts)

	ledger, err := s.ledgers.ApplyUploads(ctx, userID, ids, models.UploadReward, activities, now)
	if err != nil {
		// A timeout or dropped connection can arrive after the credit committed.
		credited, ok := s.confirmCredited(ctx, userID, ids)
		if !ok {
			return nil, fmt.Errorf("failed to credit uploads: %w", err)
		}
		s.logger.Warn("upload credit committed despite error",
			zap.String("user_id", userID),
			zap.Int("count", len(ids)),
			zap.Error(err),
		)
		ledger = credited
	}

	s.logger.Info("contacts uploaded",
		zap.String("user_id", userID),
		zap.Int("count", len(contacts)),
		zap.Int("points_earned", delta),
		zap.Int("available_points", ledger.AvailablePoints),
	)

	message := activities[0]
	if len(contacts) > 1 {
		message = fmt.Sprintf("Uploaded %d contacts", len(contacts))
	}
	s.events.emit(ctx, models.NewLedgerEvent(models.EventUpload, ledger, delta, ids, message, now))
	return ledger, nil
}

// confirmCredited re-reads the ledger outside the request deadline and reports
// whether every id in ids is already recorded as uploaded.
func (s *ContributionService) confirmCredited(ctx context.Context, userID string, ids []string) (*models.Ledger, bool) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	ledger, err := s.ledgers.FindByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("failed to confirm upload credit", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, false
	}

	recorded := make(map[string]struct{}, len(ledger.UploadedProfileIDs))
	for _, id := range ledger.UploadedProfileIDs {
		recorded[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := recorded[id]; !ok {
			return nil, false
		}
	}
	return ledger, true
}

// compensate removes contacts whose ledger credit failed.
func (s *ContributionService) compensate(ctx context.Context, contacts []*models.Contact) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	ids := make([]primitive.ObjectID, len(contacts))
	for i, c := range contacts {
		ids[i] = c.ID
	}
	if err := s.contacts.DeleteMany(ctx, ids); err != nil {
		s.logger.Error("failed to roll back uploaded contacts",
			zap.Int("count", len(ids)),
			zap.Error(err),
		)
	}
}

func (s *ContributionService) validateInput(in models.ContactInput, index int, bulk bool) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return invalidInput(err.Error())
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if bulk {
			fields = append(fields, fmt.Sprintf("contacts[%d].%s", index, fe.Field()))
		} else {
			fields = append(fields, fe.Field())
		}
	}
	if bulk {
		return invalidInput(fmt.Sprintf("contact %d is missing required fields", index), fields...)
	}
	return invalidInput("contact is missing required fields", fields...)
}

func normalizeInput(in models.ContactInput) models.ContactInput {
	in.Name = strings.TrimSpace(in.Name)
	in.JobTitle = strings.TrimSpace(in.JobTitle)
	in.Company = strings.TrimSpace(in.Company)
	in.Location = strings.TrimSpace(in.Location)
	in.Industry = strings.TrimSpace(in.Industry)
	in.SeniorityLevel = strings.TrimSpace(in.SeniorityLevel)
	in.Education = strings.TrimSpace(in.Education)
	in.Avatar = strings.TrimSpace(in.Avatar)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	skills := make([]string, 0, len(in.Skills))
	for _, skill := range in.Skills {
		if skill = strings.TrimSpace(skill); skill != "" {
			skills = append(skills, skill)
		}
	}
	in.Skills = skills
	return in
}
