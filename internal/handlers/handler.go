package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/AnshRaj112/leadvault-backend/internal/middleware"
	"github.com/AnshRaj112/leadvault-backend/internal/models"
	"github.com/AnshRaj112/leadvault-backend/internal/services"
	"go.uber.org/zap"
)

const maxBodyBytes = 2 << 20

// LedgerSubscriber streams a user's ledger events.
type LedgerSubscriber interface {
	Subscribe(ctx context.Context, userID string) (<-chan models.LedgerEvent, error)
}

// Handler serves the HTTP API. Uploader and Events may be nil when the
// corresponding backend is not configured.
type Handler struct {
	Unlock        *services.UnlockService
	Contributions *services.ContributionService
	Ledger        *services.LedgerService
	Directory     *services.Directory
	Auth          *services.AuthService
	Uploader      services.AvatarUploader
	Events        LedgerSubscriber
	Logger        *zap.Logger
}

// Response is the common envelope.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Reason    string   `json:"reason,omitempty"`
	Fields    []string `json:"fields,omitempty"`
	Required  *int     `json:"required,omitempty"`
	Available *int     `json:"available,omitempty"`
	Shortfall *int     `json:"shortfall,omitempty"`
	RequestID string   `json:"requestId,omitempty"`
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (h *Handler) writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Success: status < 400, Message: message})
}

// decodeJSON reads a bounded JSON body into dst and reports a 400 on failure.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			h.writeMessage(w, http.StatusRequestEntityTooLarge, "Request body too large")
		case errors.Is(err, io.EOF):
			h.writeMessage(w, http.StatusBadRequest, "Request body is required")
		default:
			h.writeMessage(w, http.StatusBadRequest, "Invalid request body")
		}
		return false
	}
	return true
}

// writeError maps domain errors to status codes. Anything unrecognised is
// logged and reported as a generic 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{Message: err.Error()}
	status := http.StatusInternalServerError

	var funds *services.InsufficientFundsError
	var invalid *services.InvalidInputError

	switch {
	case errors.As(err, &funds):
		status = http.StatusPaymentRequired
		shortfall := funds.Shortfall()
		resp.Reason = "insufficient_points"
		resp.Required, resp.Available, resp.Shortfall = &funds.Required, &funds.Available, &shortfall
	case errors.As(err, &invalid):
		status = http.StatusBadRequest
		resp.Message = invalid.Message
		resp.Fields = invalid.Fields
	case errors.Is(err, services.ErrAlreadyUnlocked):
		status = http.StatusConflict
		resp.Reason = "already_unlocked"
	case errors.Is(err, services.ErrConcurrentUpdate):
		status = http.StatusConflict
		resp.Reason = "concurrent_update"
	case errors.Is(err, services.ErrUsernameTaken):
		status = http.StatusConflict
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrUnauthenticated), errors.Is(err, services.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrUploadUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		resp.Message = "Request timed out"
	case errors.Is(err, context.Canceled):
		// client went away
		return
	default:
		resp.Message = "Internal server error"
	}

	if status >= 500 {
		resp.RequestID = middleware.GetRequestID(r.Context())
		h.Logger.Error("request failed",
			zap.String("request_id", resp.RequestID),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, resp)
}
