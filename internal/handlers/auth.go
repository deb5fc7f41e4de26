package handlers

import (
	"net/http"
	"time"

	"github.com/AnshRaj112/leadvault-backend/internal/middleware"
	"github.com/AnshRaj112/leadvault-backend/internal/models"
)

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserPayload struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	User    *UserPayload   `json:"user,omitempty"`
	Token   string         `json:"token,omitempty"`
	Ledger  *models.Ledger `json:"ledger,omitempty"`
}

func userPayload(u *models.User) *UserPayload {
	return &UserPayload{ID: u.ID.String(), Username: u.Username, CreatedAt: u.CreatedAt}
}

// Signup registers an account and returns a session token.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	result, err := h.Auth.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "Account created successfully",
		User:    userPayload(result.User),
		Token:   result.Token,
		Ledger:  result.Ledger,
	})
}

// Signin checks credentials and returns a fresh session token.
func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	result, err := h.Auth.Signin(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Signed in successfully",
		User:    userPayload(result.User),
		Token:   result.Token,
	})
}

func (h *Handler) Signout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if err := h.Auth.Signout(r.Context(), userID, middleware.BearerToken(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{Success: true, Message: "Signed out successfully"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Auth.CurrentUser(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{Success: true, Message: "OK", User: userPayload(user)})
}
