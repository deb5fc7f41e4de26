package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/AnshRaj112/leadvault-backend/internal/middleware"
	"github.com/AnshRaj112/leadvault-backend/internal/models"
	"github.com/AnshRaj112/leadvault-backend/internal/services"
	"github.com/go-chi/chi/v5"
)

// BulkContactsRequest accepts the batch under either key.
type BulkContactsRequest struct {
	Contacts []models.ContactInput `json:"contacts"`
	Profiles []models.ContactInput `json:"profiles"`
}

type ContributionResponse struct {
	Success         bool                 `json:"success"`
	Message         string               `json:"message"`
	Count           int                  `json:"count"`
	Contacts        []models.ContactView `json:"contacts"`
	PointsEarned    int                  `json:"pointsEarned"`
	AvailablePoints int                  `json:"availablePoints"`
	Ledger          *models.Ledger       `json:"ledger"`
}

type UnlockResponse struct {
	Success         bool               `json:"success"`
	Message         string             `json:"message"`
	RemainingPoints int                `json:"remainingPoints"`
	PointsDeducted  int                `json:"pointsDeducted"`
	Contact         models.ContactView `json:"contact"`
}

// ListContacts returns a page of contacts annotated for the caller.
// Query: limit, skip, uploadedBy ("me" for the caller's own uploads).
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.UserIDFromContext(r.Context())
	q := r.URL.Query()

	opts := services.ListOptions{UploadedBy: q.Get("uploadedBy")}
	if opts.UploadedBy == "me" {
		if viewer == "" {
			h.writeError(w, r, services.ErrUnauthenticated)
			return
		}
		opts.UploadedBy = viewer
	}
	var ok bool
	if opts.Limit, ok = parseInt64(q.Get("limit")); !ok {
		h.writeMessage(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	if opts.Skip, ok = parseInt64(q.Get("skip")); !ok {
		h.writeMessage(w, http.StatusBadRequest, "skip must be a non-negative integer")
		return
	}

	page, err := h.Directory.ListContacts(r.Context(), viewer, opts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*services.ContactPage
	}{true, page})
}

func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	view, err := h.Directory.GetContact(r.Context(), middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"contact": view,
	})
}

// CreateContact stores one contact and credits the caller.
func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var in models.ContactInput
	if !h.decodeJSON(w, r, &in) {
		return
	}

	result, err := h.Contributions.CreateContact(r.Context(), middleware.UserIDFromContext(r.Context()), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, contributionResponse("Contact uploaded", result))
}

// BulkCreateContacts stores a batch all-or-nothing.
func (h *Handler) BulkCreateContacts(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if !h.decodeJSON(w, r, &raw) {
		return
	}

	var inputs []models.ContactInput
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &inputs); err != nil {
			h.writeMessage(w, http.StatusBadRequest, "Invalid contacts data")
			return
		}
	} else {
		var req BulkContactsRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			h.writeMessage(w, http.StatusBadRequest, "Invalid contacts data")
			return
		}
		inputs = req.Contacts
		if inputs == nil {
			inputs = req.Profiles
		}
	}

	result, err := h.Contributions.CreateContacts(r.Context(), middleware.UserIDFromContext(r.Context()), inputs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, contributionResponse("Contacts uploaded", result))
}

// UnlockContact spends points to reveal the contact's private fields.
func (h *Handler) UnlockContact(w http.ResponseWriter, r *http.Request) {
	result, err := h.Unlock.Unlock(r.Context(), middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UnlockResponse{
		Success:         true,
		Message:         "Contact unlocked",
		RemainingPoints: result.RemainingPoints,
		PointsDeducted:  result.PointsDeducted,
		Contact:         result.Contact,
	})
}

func contributionResponse(message string, result *services.ContributionResult) ContributionResponse {
	views := make([]models.ContactView, len(result.Contacts))
	for i, c := range result.Contacts {
		views[i] = models.ContactView{Contact: c}
	}
	return ContributionResponse{
		Success:         true,
		Message:         message,
		Count:           len(views),
		Contacts:        views,
		PointsEarned:    result.PointsEarned,
		AvailablePoints: result.Ledger.AvailablePoints,
		Ledger:          result.Ledger,
	}
}

func parseInt64(raw string) (int64, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
