package handlers

import (
	"net/http"
	"strconv"

	"github.com/AnshRaj112/leadvault-backend/internal/middleware"
	"github.com/AnshRaj112/leadvault-backend/internal/models"
	"github.com/AnshRaj112/leadvault-backend/internal/services"
)

type LedgerResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Ledger  *models.Ledger `json:"ledger"`
}

type AppendActivityRequest struct {
	Message string `json:"message"`
}

// GetLedger returns the caller's reconciled ledger.
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	ledger, err := h.Ledger.GetLedger(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LedgerResponse{Success: true, Message: "Ledger retrieved", Ledger: ledger})
}

// AppendActivity adds a line to the caller's activity log.
func (h *Handler) AppendActivity(w http.ResponseWriter, r *http.Request) {
	var req AppendActivityRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	ledger, err := h.Ledger.AppendActivity(r.Context(), middleware.UserIDFromContext(r.Context()), req.Message)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LedgerResponse{Success: true, Message: "Activity recorded", Ledger: ledger})
}

func (h *Handler) UnlockedContacts(w http.ResponseWriter, r *http.Request) {
	result, err := h.Ledger.UnlockedContacts(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*services.UnlockedContacts
	}{true, result})
}

func (h *Handler) ActivitySummary(w http.ResponseWriter, r *http.Request) {
	result, err := h.Ledger.ActivitySummary(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*services.ActivitySummary
	}{true, result})
}

// History returns the caller's append-only ledger journal, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.writeMessage(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	events, err := h.Ledger.History(r.Context(), middleware.UserIDFromContext(r.Context()), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if events == nil {
		events = []models.LedgerEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"events":  events,
		"count":   len(events),
	})
}
