package services

import (
	"context"
	"testing"

	"github.com/AnshRaj112/leadvault-backend/internal/models"
	"github.com/AnshRaj112/leadvault-backend/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthService(t *testing.T) (*AuthService, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	sessions, _ := newSessionStore(t)
	return NewAuthService(memory.NewUserStore(), sessions, env.ledger, zap.NewNop()), env
}

func TestSignupCreatesLedgerAndSession(t *testing.T) {
	auth, env := newAuthService(t)
	ctx := context.Background()

	res, err := auth.Signup(ctx, "Alice_1", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "alice_1", res.User.Username)
	assert.NotEmpty(t, res.Token)
	require.NotNil(t, res.Ledger)
	assert.Equal(t, models.DefaultPoints, res.Ledger.AvailablePoints)
	assert.Equal(t, res.User.ID.String(), env.ledgerOf(t, res.User.ID.String()).UserID)

	id, err := auth.sessions.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID.String(), id)

	me, err := auth.CurrentUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice_1", me.Username)
}

func TestSignupRejectsDuplicatesAndBadInput(t *testing.T) {
	auth, _ := newAuthService(t)
	ctx := context.Background()

	_, err := auth.Signup(ctx, "alice", "correct horse")
	require.NoError(t, err)
	_, err = auth.Signup(ctx, "ALICE", "another pass")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = auth.Signup(ctx, "a", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = auth.Signup(ctx, "bob", "short")
	var invalid *InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []string{"password"}, invalid.Fields)
}

func TestSignin(t *testing.T) {
	auth, _ := newAuthService(t)
	ctx := context.Background()

	signup, err := auth.Signup(ctx, "alice", "correct horse")
	require.NoError(t, err)

	res, err := auth.Signin(ctx, "Alice", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, signup.User.ID, res.User.ID)
	assert.NotEqual(t, signup.Token, res.Token)

	_, err = auth.Signin(ctx, "alice", "wrong horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Signin(ctx, "nobody", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Signin(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCurrentUserUnknown(t *testing.T) {
	auth, _ := newAuthService(t)
	_, err := auth.CurrentUser(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = auth.CurrentUser(context.Background(), "6f1c2f7e-3d0b-4c1e-9a4e-2f2d7b9b8c11")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSignoutEndsSession(t *testing.T) {
	auth, _ := newAuthService(t)
	ctx := context.Background()

	res, err := auth.Signup(ctx, "carol", "correct horse")
	require.NoError(t, err)
	userID := res.User.ID.String()

	require.NoError(t, auth.Signout(ctx, userID, res.Token))
	_, err = auth.sessions.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	assert.ErrorIs(t, auth.Signout(ctx, userID, ""), ErrUnauthenticated)
}
