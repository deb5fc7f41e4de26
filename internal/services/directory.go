package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/AnshRaj112/leadvault-backend/internal/models"
	"github.com/AnshRaj112/leadvault-backend/internal/repository"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// ListOptions pages and filters a directory listing.
type ListOptions struct {
	UploadedBy string
	Limit      int64
	Skip       int64
}

// ContactPage is one page of contacts as seen by a viewer.
type ContactPage struct {
	Contacts []models.ContactView `json:"contacts"`
	Total    int64                `json:"total"`
	Limit    int64                `json:"limit"`
	Skip     int64                `json:"skip"`
}

// Directory serves contacts annotated with the viewer's unlock state.
type Directory struct {
	ledgers  repository.LedgerStore
	contacts repository.ContactStore
}

func NewDirectory(ledgers repository.LedgerStore, contacts repository.ContactStore) *Directory {
	return &Directory{ledgers: ledgers, contacts: contacts}
}

// ListContacts never creates a ledger; anonymous viewers and viewers without
// one see every contact locked.
func (d *Directory) ListContacts(ctx context.Context, viewerID string, opts ListOptions) (*ContactPage, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultPageSize
	}
	if opts.Limit > MaxPageSize {
		opts.Limit = MaxPageSize
	}
	if opts.Skip < 0 {
		opts.Skip = 0
	}

	ledger, err := d.viewerLedger(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	contacts, total, err := d.contacts.List(ctx, repository.ContactFilter{
		UploadedBy: opts.UploadedBy,
		Limit:      opts.Limit,
		Skip:       opts.Skip,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	unlocked := ledger.UnlockedSet()
	views := make([]models.ContactView, 0, len(contacts))
	for _, c := range contacts {
		_, ok := unlocked[c.ID.Hex()]
		views = append(views, present(c, viewerID, ok))
	}
	return &ContactPage{Contacts: views, Total: total, Limit: opts.Limit, Skip: opts.Skip}, nil
}

func (d *Directory) GetContact(ctx context.Context, viewerID, contactID string) (*models.ContactView, error) {
	contact, err := d.contacts.FindByID(ctx, contactID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to load contact: %w", err)
	}

	ledger, err := d.viewerLedger(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	view := ViewFor(*contact, ledger, viewerID)
	return &view, nil
}

func (d *Directory) viewerLedger(ctx context.Context, viewerID string) (*models.Ledger, error) {
	if viewerID == "" {
		return nil, nil
	}
	ledger, err := d.ledgers.FindByUser(ctx, viewerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	return ledger, nil
}

// ViewFor computes the viewer's unlock flag from their ledger and blanks the
// private fields unless the viewer unlocked or uploaded the contact.
func ViewFor(c models.Contact, ledger *models.Ledger, viewerID string) models.ContactView {
	return present(c, viewerID, ledger.HasUnlocked(c.ID.Hex()))
}

func present(c models.Contact, viewerID string, unlocked bool) models.ContactView {
	owner := viewerID != "" && c.UploadedBy == viewerID
	if !unlocked && !owner {
		c.Email = ""
		c.Phone = ""
	}
	return models.ContactView{Contact: c, IsUnlocked: unlocked}
}
