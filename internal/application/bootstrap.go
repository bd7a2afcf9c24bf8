package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/mowing-roster/internal/calendar"
	"github.com/example/mowing-roster/internal/seed"
)

// BootstrapReport counts what Bootstrap inserted.
type BootstrapReport struct {
	UsersCreated    int
	SessionsCreated int
}

// Bootstrapper loads the seed plan into empty tables.
type Bootstrapper struct {
	users       UserRepository
	sessions    SessionRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBootstrapper wires the repositories that receive seed data.
func NewBootstrapper(users UserRepository, sessions SessionRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *Bootstrapper {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &Bootstrapper{users: users, sessions: sessions, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

// Bootstrap seeds users when the user table is empty and sessions when the
// session table is empty. Running it again is a no-op.
func (b *Bootstrapper) Bootstrap(ctx context.Context, plan seed.Plan) (report BootstrapReport, err error) {
	if b == nil || b.users == nil || b.sessions == nil {
		return BootstrapReport{}, fmt.Errorf("Bootstrapper is not configured")
	}

	logger := serviceLogger(ctx, b.logger, "Bootstrapper", "Bootstrap")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "bootstrap failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "bootstrap finished",
			"users_created", report.UsersCreated,
			"sessions_created", report.SessionsCreated,
		)
	}()

	if err = plan.Validate(); err != nil {
		return BootstrapReport{}, err
	}

	userCount, err := b.users.CountUsers(ctx)
	if err != nil {
		return BootstrapReport{}, mapUserRepoError(err)
	}
	if userCount == 0 {
		for _, su := range plan.Users {
			createdAt := b.now()
			_, err = b.users.CreateUser(ctx, User{
				ID:        b.idGenerator(),
				Name:      strings.TrimSpace(su.Name),
				Email:     strings.ToLower(strings.TrimSpace(su.Email)),
				Phone:     strings.TrimSpace(su.Phone),
				IsAdmin:   su.IsAdmin,
				CreatedAt: createdAt,
				UpdatedAt: createdAt,
			})
			if err != nil {
				return report, fmt.Errorf("seed user %q: %w", su.Name, mapUserRepoError(err))
			}
			report.UsersCreated++
		}
	}

	sessionCount, err := b.sessions.CountSessions(ctx)
	if err != nil {
		return report, mapSessionRepoError(err)
	}
	if sessionCount > 0 || len(plan.Sessions) == 0 {
		return report, nil
	}

	users, err := b.users.ListUsers(ctx)
	if err != nil {
		return report, mapUserRepoError(err)
	}
	lookup := make(map[string]string, len(users)*2)
	for _, u := range users {
		lookup[u.Name] = u.ID
		if u.Email != "" {
			lookup[strings.ToLower(u.Email)] = u.ID
		}
	}

	createdAt := b.now()
	pending := make([]Session, 0, len(plan.Sessions))
	for _, ss := range plan.Sessions {
		date, perr := calendar.Parse(ss.Date)
		if perr != nil {
			return report, fmt.Errorf("seed session %q: %w", ss.Date, perr)
		}
		session := Session{ID: b.idGenerator(), Date: date, CreatedAt: createdAt, UpdatedAt: createdAt}
		if ref := strings.TrimSpace(ss.Assignee); ref != "" {
			id, ok := lookup[ref]
			if !ok {
				id, ok = lookup[strings.ToLower(ref)]
			}
			if !ok {
				logger.WarnContext(ctx, "seed assignee not found; leaving session open", "date", ss.Date, "assignee", ref)
			} else {
				session.UserID = id
				session.Confirmed = ss.Confirmed
			}
		}
		pending = append(pending, session)
	}

	created, err := b.sessions.CreateSessions(ctx, pending)
	if err != nil {
		return report, mapSessionRepoError(err)
	}
	report.SessionsCreated = len(created)
	return report, nil
}
