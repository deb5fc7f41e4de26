package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionStore(client), mr
}

func TestSessionLifecycle(t *testing.T) {
	store, mr := newSessionStore(t)
	ctx := context.Background()
	userID := uuid.New()

	token, err := store.Create(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, ok, err := store.Validate(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, userID, got)

	id, err := store.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), id)

	ttl := mr.TTL(SessionKeyPrefix + token)
	assert.Equal(t, SessionDuration, ttl)

	require.NoError(t, store.Invalidate(ctx, token))
	_, ok, err = store.Validate(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionCreateReplacesPrevious(t *testing.T) {
	store, _ := newSessionStore(t)
	ctx := context.Background()
	userID := uuid.New()

	first, err := store.Create(ctx, userID)
	require.NoError(t, err)
	second, err := store.Create(ctx, userID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	_, ok, _ := store.Validate(ctx, first)
	assert.False(t, ok)
	_, ok, _ = store.Validate(ctx, second)
	assert.True(t, ok)
}

func TestSessionExpiresAndRefreshes(t *testing.T) {
	store, mr := newSessionStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, uuid.New())
	require.NoError(t, err)

	mr.FastForward(SessionDuration - time.Hour)
	require.NoError(t, store.Refresh(ctx, token))
	mr.FastForward(2 * time.Hour)
	_, ok, _ := store.Validate(ctx, token)
	assert.True(t, ok, "refresh must extend the session")

	mr.FastForward(SessionDuration)
	_, ok, _ = store.Validate(ctx, token)
	assert.False(t, ok)

	_, err = store.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Error(t, store.Refresh(ctx, ""))
}

func TestAuthenticateSlidesExpiry(t *testing.T) {
	store, mr := newSessionStore(t)
	ctx := context.Background()
	userID := uuid.New()

	token, err := store.Create(ctx, userID)
	require.NoError(t, err)

	mr.FastForward(SessionDuration - time.Hour)
	_, err = store.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, SessionDuration, mr.TTL(SessionKeyPrefix+token))
	assert.Equal(t, SessionDuration, mr.TTL(UserSessionKeyPrefix+userID.String()))

	mr.FastForward(2 * time.Hour)
	id, err := store.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), id)
}
