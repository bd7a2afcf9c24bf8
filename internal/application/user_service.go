package application

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/example/mowing-roster/internal/persistence"
)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByName(ctx context.Context, name string) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]User, error)
	CountUsers(ctx context.Context) (int, error)
}

// UserService orchestrates validation, authorization, and persistence for users.
type UserService struct {
	users       UserRepository
	cache       *CalendarCache
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, idGenerator, now, nil)
}

// NewUserServiceWithLogger wires dependencies for the user service with a specific logger.
func NewUserServiceWithLogger(users UserRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

// WithCalendarCache makes user mutations invalidate cache, since names
// appear in calendar labels.
func (s *UserService) WithCalendarCache(cache *CalendarCache) *UserService {
	if s != nil {
		s.cache = cache
	}
	return s
}

// errUserRepoMissing is returned by operations that cannot run without storage.
var errUserRepoMissing = errors.New("user repository not configured")

func (s *UserService) ready() error {
	switch {
	case s == nil:
		return errors.New("UserService is nil")
	case s.users == nil:
		return errUserRepoMissing
	}
	return nil
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// ListUsers returns every user sorted by name, case-insensitively, then ID.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, errors.New("UserService is nil")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	if s.users == nil {
		return nil, nil
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, mapUserRepoError(err)
	}

	out := slices.Clone(users)
	sortUsers(out)
	return out, nil
}

// GetUser returns one user to any authenticated principal.
func (s *UserService) GetUser(ctx context.Context, principal Principal, userID string) (User, error) {
	if err := s.ready(); err != nil {
		return User{}, err
	}
	if principal.UserID == "" {
		return User{}, ErrUnauthorized
	}
	user, err := s.users.GetUser(ctx, strings.TrimSpace(userID))
	if err != nil {
		return User{}, mapUserRepoError(err)
	}
	return user, nil
}

// CreateUser validates input and persists a new user for administrators.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (user User, err error) {
	if err := s.ready(); err != nil {
		return User{}, err
	}

	logger := s.loggerWith(ctx, "CreateUser", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user created", "user_id", user.ID)
	}()

	if !params.Principal.IsAdmin {
		return User{}, ErrUnauthorized
	}

	normalized := normalizeUserInput(params.Input)
	if vErr := validateUserInput(normalized); vErr.HasErrors() {
		return User{}, vErr
	}

	user = normalized.applyTo(User{ID: s.idGenerator(), CreatedAt: s.now()})
	user.UpdatedAt = user.CreatedAt

	if err = s.ensureNameAvailable(ctx, user.Name, ""); err != nil {
		return User{}, err
	}

	user, err = s.users.CreateUser(ctx, user)
	if err != nil {
		return User{}, mapUserRepoError(err)
	}
	s.cache.Invalidate()
	return user, nil
}

// UpdateUser lets users edit themselves and administrators edit anyone.
// Only administrators may grant the admin flag, and nobody may revoke it.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (user User, err error) {
	if err := s.ready(); err != nil {
		return User{}, err
	}

	logger := s.loggerWith(ctx, "UpdateUser",
		"principal_id", params.Principal.UserID,
		"user_id", params.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user updated")
	}()

	principal := params.Principal
	if principal.UserID == "" || (!principal.IsAdmin && principal.UserID != params.UserID) {
		return User{}, ErrUnauthorized
	}

	existing, err := s.users.GetUser(ctx, params.UserID)
	if err != nil {
		return User{}, mapUserRepoError(err)
	}

	normalized := normalizeUserInput(params.Input)
	if vErr := validateUserInput(normalized); vErr.HasErrors() {
		return User{}, vErr
	}
	if normalized.IsAdmin != nil && *normalized.IsAdmin != existing.IsAdmin {
		if !principal.IsAdmin {
			return User{}, ErrUnauthorized
		}
		if existing.IsAdmin {
			return User{}, ErrProtectedUser
		}
	}

	if normalized.Name != existing.Name {
		if err = s.ensureNameAvailable(ctx, normalized.Name, existing.ID); err != nil {
			return User{}, err
		}
	}

	updated := normalized.applyTo(existing)
	updated.UpdatedAt = s.now()

	user, err = s.users.UpdateUser(ctx, updated)
	if err != nil {
		return User{}, mapUserRepoError(err)
	}
	s.cache.Invalidate()
	return user, nil
}

// DeleteUser removes a non-admin user. Sessions assigned to the user keep the
// dangling reference.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) (err error) {
	if err := s.ready(); err != nil {
		return err
	}

	logger := s.loggerWith(ctx, "DeleteUser", "principal_id", principal.UserID, "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user deleted")
	}()

	if !principal.IsAdmin {
		return ErrUnauthorized
	}

	target, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return mapUserRepoError(err)
	}
	if target.IsAdmin {
		return ErrProtectedUser
	}

	if err = s.users.DeleteUser(ctx, userID); err != nil {
		return mapUserRepoError(err)
	}
	s.cache.Invalidate()
	return nil
}

func (s *UserService) ensureNameAvailable(ctx context.Context, name, selfID string) error {
	existing, err := s.users.GetUserByName(ctx, name)
	switch {
	case err == nil:
		if existing.ID != selfID {
			return ErrAlreadyExists
		}
		return nil
	case isNotFoundError(err):
		return nil
	default:
		return mapUserRepoError(err)
	}
}

func sortUsers(users []User) {
	slices.SortFunc(users, func(a, b User) int {
		return cmp.Or(
			strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			strings.Compare(a.ID, b.ID),
		)
	})
}

// applyTo copies the editable fields onto user. A nil IsAdmin leaves the flag
// unchanged.
func (in UserInput) applyTo(user User) User {
	user.Name = in.Name
	user.Email = in.Email
	user.Phone = in.Phone
	if in.IsAdmin != nil {
		user.IsAdmin = *in.IsAdmin
	}
	return user
}

func normalizeUserInput(input UserInput) UserInput {
	return UserInput{
		Name:    strings.TrimSpace(input.Name),
		Email:   strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:   strings.TrimSpace(input.Phone),
		IsAdmin: input.IsAdmin,
	}
}

func validateUserInput(input UserInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Name == "" {
		vErr.Add("name", "name is required")
	}

	if input.Email == "" {
		vErr.Add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.Add("email", "email is invalid")
	}

	return vErr
}

func mapUserRepoError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFoundError(err) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return fieldError("name", "name is required")
	}
	return err
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}
