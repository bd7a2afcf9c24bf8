package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/mowing-roster/internal/auth"
)

// CredentialStore exposes the user lookups required by the auth service.
type CredentialStore interface {
	GetUserByName(ctx context.Context, name string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
}

// TokenIssuer signs and verifies login tokens.
type TokenIssuer interface {
	Issue(userID string, now time.Time) (string, time.Time, error)
	Parse(token string, now time.Time) (string, error)
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthService logs users in by name and validates the tokens it issues.
// Only administrator accounts need a password.
type AuthService struct {
	credentials       CredentialStore
	tokens            TokenIssuer
	adminPasswordHash string
	verifyPassword    PasswordVerifier
	now               func() time.Time
	logger            *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(credentials CredentialStore, tokens TokenIssuer, adminPasswordHash string, verify PasswordVerifier, now func() time.Time) *AuthService {
	return NewAuthServiceWithLogger(credentials, tokens, adminPasswordHash, verify, now, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(credentials CredentialStore, tokens TokenIssuer, adminPasswordHash string, verify PasswordVerifier, now func() time.Time, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		credentials:       credentials,
		tokens:            tokens,
		adminPasswordHash: strings.TrimSpace(adminPasswordHash),
		verifyPassword:    verify,
		now:               now,
		logger:            defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

func (s *AuthService) ready() error {
	switch {
	case s == nil:
		return errors.New("AuthService is nil")
	case s.credentials == nil || s.tokens == nil:
		return errors.New("auth service not configured")
	}
	return nil
}

// Login resolves the user by name and issues a token.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (result LoginResult, err error) {
	if err := s.ready(); err != nil {
		return LoginResult{}, err
	}

	name := strings.TrimSpace(params.Name)
	logger := s.loggerWith(ctx, "Login", "name", name)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "login failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "login succeeded", "user_id", result.User.ID)
	}()

	user, err := s.authenticate(ctx, name, params.Password)
	if err != nil {
		return LoginResult{}, err
	}
	token, expiresAt, err := s.tokens.Issue(user.ID, s.now())
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}
	return LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// authenticate looks name up and, for administrators, checks password
// against the configured hash. Every mismatch is ErrInvalidCredentials.
func (s *AuthService) authenticate(ctx context.Context, name, password string) (User, error) {
	if name == "" {
		return User{}, ErrInvalidCredentials
	}
	user, err := s.credentials.GetUserByName(ctx, name)
	switch {
	case isNotFoundError(err):
		return User{}, ErrInvalidCredentials
	case err != nil:
		return User{}, err
	}
	if !user.IsAdmin {
		return user, nil
	}
	if s.adminPasswordHash == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}
	if s.verifyPassword(s.adminPasswordHash, password) != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// ValidateSession verifies token and returns the principal it belongs to. The
// admin flag is read from the current user record.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if err := s.ready(); err != nil {
		return Principal{}, err
	}

	token = strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", token != "")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "session validated", "principal_id", principal.UserID)
	}()

	if token == "" {
		return Principal{}, ErrInvalidCredentials
	}
	userID, err := s.tokens.Parse(token, s.now())
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return Principal{}, ErrSessionExpired
	case err != nil:
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	user, err := s.credentials.GetUser(ctx, userID)
	switch {
	case isNotFoundError(err):
		return Principal{}, ErrUnauthorized
	case err != nil:
		return Principal{}, err
	}
	return Principal{UserID: user.ID, IsAdmin: user.IsAdmin}, nil
}
