package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Authenticator resolves a session token to a user id.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

type userIDKey struct{}

// userHolder lets RequestLogger, which runs outside the auth middleware, see
// the authenticated user.
type userHolder struct {
	id string
}

// UserIDFromContext returns the authenticated user id, or "" for anonymous requests.
func UserIDFromContext(ctx context.Context) string {
	if h, ok := ctx.Value(userIDKey{}).(*userHolder); ok {
		return h.id
	}
	return ""
}

// WithUserID stores userID on ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	if h, ok := ctx.Value(userIDKey{}).(*userHolder); ok {
		h.id = userID
		return ctx
	}
	return context.WithValue(ctx, userIDKey{}, &userHolder{id: userID})
}

// TrackUser reserves a slot for the user id so outer middleware can read it
// after the handler chain returns.
func TrackUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), userIDKey{}, &userHolder{})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BearerToken extracts the session token from the Authorization header, or
// from the token query parameter for websocket handshakes.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// RequireUser rejects requests without a valid session with 401.
func RequireUser(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				unauthorized(w, "Authentication required")
				return
			}
			userID, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				unauthorized(w, "Invalid or expired session")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// OptionalUser attaches the user when a valid token is present and otherwise
// lets the request through anonymously.
func OptionalUser(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := BearerToken(r); token != "" {
				if userID, err := auth.Authenticate(r.Context(), token); err == nil {
					r = r.WithContext(WithUserID(r.Context(), userID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"success":false,"message":"` + message + `"}`))
}
