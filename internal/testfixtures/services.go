package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/mowing-roster/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// NewCalendarCache returns a cache that expires against the factory clock.
func (f *ServiceFactory) NewCalendarCache(ttl time.Duration) *application.CalendarCache {
	return application.NewCalendarCache(ttl, 0, f.Clock.NowFunc())
}

// UserServiceDeps captures dependencies for constructing a user service.
type UserServiceDeps struct {
	Users  application.UserRepository
	Cache  *application.CalendarCache
	Logger *slog.Logger
}

// NewUserService builds a user service using the supplied dependencies.
func (f *ServiceFactory) NewUserService(deps UserServiceDeps) *application.UserService {
	return application.NewUserServiceWithLogger(
		deps.Users,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		deps.Logger,
	).WithCalendarCache(deps.Cache)
}

// SessionServiceDeps captures dependencies for constructing a session service.
// A nil Location means UTC.
type SessionServiceDeps struct {
	Sessions application.SessionRepository
	Users    application.UserRepository
	Notifier application.Notifier
	Cache    *application.CalendarCache
	Location *time.Location
	Logger   *slog.Logger
}

// NewSessionService builds a session service using the supplied dependencies.
func (f *ServiceFactory) NewSessionService(deps SessionServiceDeps) *application.SessionService {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return application.NewSessionServiceWithLogger(
		deps.Sessions,
		deps.Users,
		deps.Notifier,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		deps.Logger,
	).WithCalendarCache(deps.Cache).WithLocation(loc)
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Credentials       application.CredentialStore
	Tokens            application.TokenIssuer
	AdminPasswordHash string
	PasswordVerify    application.PasswordVerifier
	Logger            *slog.Logger
}

// NewAuthService builds an auth service using the supplied dependencies.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	return application.NewAuthServiceWithLogger(
		deps.Credentials,
		deps.Tokens,
		deps.AdminPasswordHash,
		deps.PasswordVerify,
		f.Clock.NowFunc(),
		deps.Logger,
	)
}

// NewBootstrapper builds a seed loader over the supplied repositories.
func (f *ServiceFactory) NewBootstrapper(users application.UserRepository, sessions application.SessionRepository, logger *slog.Logger) *application.Bootstrapper {
	return application.NewBootstrapper(users, sessions, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), logger)
}
