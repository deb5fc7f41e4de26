package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// SessionDuration is 7 days
	SessionDuration = 7 * 24 * time.Hour
	// SessionKeyPrefix is the Redis key prefix for sessions
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for user->session mapping
	UserSessionKeyPrefix = "user_session:"
)

// SessionStore issues opaque bearer tokens backed by Redis. A user holds at
// most one session; signing in again replaces it.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Create invalidates any existing session for userID and returns a new token
// valid for SessionDuration.
func (s *SessionStore) Create(ctx context.Context, userID uuid.UUID) (string, error) {
	if err := s.InvalidateUser(ctx, userID); err != nil {
		return "", err
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, SessionKeyPrefix+token, userID.String(), SessionDuration)
	pipe.Set(ctx, UserSessionKeyPrefix+userID.String(), token, SessionDuration)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

// Validate returns the user owning token. ok is false for unknown or expired tokens.
func (s *SessionStore) Validate(ctx context.Context, token string) (uuid.UUID, bool, error) {
	if token == "" {
		return uuid.Nil, false, nil
	}

	raw, err := s.client.Get(ctx, SessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}

	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, err
	}
	return userID, true, nil
}

// Authenticate resolves a bearer token to a user id for the HTTP middleware
// and slides the session's expiry forward.
func (s *SessionStore) Authenticate(ctx context.Context, token string) (string, error) {
	userID, ok, err := s.Validate(ctx, token)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrUnauthenticated
	}
	if err := s.extend(ctx, token, userID.String()); err != nil {
		return "", fmt.Errorf("failed to refresh session: %w", err)
	}
	return userID.String(), nil
}

// Refresh extends the session by SessionDuration from now.
func (s *SessionStore) Refresh(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("session token is empty")
	}

	raw, err := s.client.Get(ctx, SessionKeyPrefix+token).Result()
	if err != nil {
		return err
	}
	return s.extend(ctx, token, raw)
}

func (s *SessionStore) extend(ctx context.Context, token, userID string) error {
	pipe := s.client.TxPipeline()
	pipe.Expire(ctx, SessionKeyPrefix+token, SessionDuration)
	pipe.Expire(ctx, UserSessionKeyPrefix+userID, SessionDuration)
	_, err := pipe.Exec(ctx)
	return err
}

// Invalidate removes a single session.
func (s *SessionStore) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	raw, err := s.client.Get(ctx, SessionKeyPrefix+token).Result()
	if err == nil && raw != "" {
		s.client.Del(ctx, UserSessionKeyPrefix+raw)
	}
	return s.client.Del(ctx, SessionKeyPrefix+token).Err()
}

// InvalidateUser removes whatever session userID currently holds.
func (s *SessionStore) InvalidateUser(ctx context.Context, userID uuid.UUID) error {
	userKey := UserSessionKeyPrefix + userID.String()

	token, err := s.client.Get(ctx, userKey).Result()
	if err == nil && token != "" {
		s.client.Del(ctx, SessionKeyPrefix+token)
	}
	return s.client.Del(ctx, userKey).Err()
}
