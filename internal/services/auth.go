package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AnshRaj112/leadvault-backend/internal/models"
	"github.com/AnshRaj112/leadvault-backend/internal/repository"
	"github.com/AnshRaj112/leadvault-backend/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthResult is returned by signup and signin.
type AuthResult struct {
	User   *models.User   `json:"user"`
	Token  string         `json:"token"`
	Ledger *models.Ledger `json:"ledger,omitempty"`
}

// AuthService manages accounts and hands out sessions. The user id it issues
// is the owner key of the user's ledger.
type AuthService struct {
	users    repository.UserStore
	sessions *SessionStore
	ledgers  *LedgerService
	logger   *zap.Logger
	now      func() time.Time
}

func NewAuthService(users repository.UserStore, sessions *SessionStore, ledgers *LedgerService, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		ledgers:  ledgers,
		logger:   logger,
		now:      time.Now,
	}
}

// Signup creates the account, its ledger with default points, and a session.
func (s *AuthService) Signup(ctx context.Context, username, password string) (*AuthResult, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     utils.NormalizeUsername(username),
		PasswordHash: hash,
		CreatedAt:    s.now(),
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	ledger, err := s.ledgers.Ensure(ctx, user.ID.String())
	if err != nil {
		return nil, err
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("user signed up", zap.String("user_id", user.ID.String()))
	return &AuthResult{User: user, Token: token, Ledger: ledger}, nil
}

// Signin checks the password and replaces any previous session.
func (s *AuthService) Signin(ctx context.Context, username, password string) (*AuthResult, error) {
	if username == "" || password == "" {
		return nil, invalidInput("username and password are required", "username", "password")
	}

	user, err := s.users.FindByUsername(ctx, utils.NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash is unreadable", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	if !ok || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("user signed in", zap.String("user_id", user.ID.String()))
	return &AuthResult{User: user, Token: token}, nil
}

// Signout ends the session behind token.
func (s *AuthService) Signout(ctx context.Context, userID, token string) error {
	if token == "" {
		return ErrUnauthenticated
	}
	if err := s.sessions.Invalidate(ctx, token); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	s.logger.Info("user signed out", zap.String("user_id", userID))
	return nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func validateCredentials(username, password string) error {
	for _, err := range []error{utils.ValidateUsername(username), utils.ValidatePassword(password)} {
		var verr *utils.ValidationError
		if errors.As(err, &verr) {
			return invalidInput(verr.Message, verr.Field)
		}
	}
	return nil
}
