package main

import (
	"context"
	"fmt"

	"github.com/example/mowing-roster/internal/application"
	"github.com/example/mowing-roster/internal/calendar"
	"github.com/example/mowing-roster/internal/persistence"
)

var (
	_ application.UserRepository    = (*userRepositoryAdapter)(nil)
	_ application.CredentialStore   = (*userRepositoryAdapter)(nil)
	_ application.SessionRepository = (*sessionRepositoryAdapter)(nil)
)

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newUserRepositoryAdapter(repo persistence.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user)); err != nil {
		return application.User{}, err
	}
	return a.GetUser(ctx, user.ID)
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUserByName(ctx context.Context, name string) (application.User, error) {
	stored, err := a.repo.GetUserByName(ctx, name)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) UpdateUser(ctx context.Context, user application.User) (application.User, error) {
	if err := a.repo.UpdateUser(ctx, toPersistenceUser(user)); err != nil {
		return application.User{}, err
	}
	return a.GetUser(ctx, user.ID)
}

func (a *userRepositoryAdapter) DeleteUser(ctx context.Context, id string) error {
	return a.repo.DeleteUser(ctx, id)
}

func (a *userRepositoryAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	stored, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]application.User, 0, len(stored))
	for _, u := range stored {
		users = append(users, toApplicationUser(u))
	}
	return users, nil
}

func (a *userRepositoryAdapter) CountUsers(ctx context.Context) (int, error) {
	return a.repo.CountUsers(ctx)
}

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func newSessionRepositoryAdapter(repo persistence.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	if err := a.repo.CreateSession(ctx, toPersistenceSession(session)); err != nil {
		return application.Session{}, err
	}
	return a.GetSession(ctx, session.ID)
}

func (a *sessionRepositoryAdapter) CreateSessions(ctx context.Context, sessions []application.Session) ([]application.Session, error) {
	rows := make([]persistence.Session, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, toPersistenceSession(s))
	}
	if err := a.repo.CreateSessions(ctx, rows); err != nil {
		return nil, err
	}
	return append([]application.Session(nil), sessions...), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, id string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, id)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored)
}

func (a *sessionRepositoryAdapter) GetSessionByDate(ctx context.Context, date calendar.Date) (application.Session, error) {
	stored, err := a.repo.GetSessionByDate(ctx, date.String())
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored)
}

func (a *sessionRepositoryAdapter) UpdateSession(ctx context.Context, session application.Session) (application.Session, error) {
	if err := a.repo.UpdateSession(ctx, toPersistenceSession(session)); err != nil {
		return application.Session{}, err
	}
	return a.GetSession(ctx, session.ID)
}

func (a *sessionRepositoryAdapter) DeleteSession(ctx context.Context, id string) error {
	return a.repo.DeleteSession(ctx, id)
}

func (a *sessionRepositoryAdapter) ListSessions(ctx context.Context, filter application.SessionFilter) ([]application.Session, error) {
	stored, err := a.repo.ListSessions(ctx, persistence.SessionFilter{
		From:   dateOrEmpty(filter.From),
		To:     dateOrEmpty(filter.To),
		UserID: filter.UserID,
	})
	if err != nil {
		return nil, err
	}
	sessions := make([]application.Session, 0, len(stored))
	for _, row := range stored {
		s, err := toApplicationSession(row)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func (a *sessionRepositoryAdapter) CountSessions(ctx context.Context) (int, error) {
	return a.repo.CountSessions(ctx)
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:        model.ID,
		Name:      model.Name,
		Email:     model.Email,
		Phone:     model.Phone,
		IsAdmin:   model.IsAdmin,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User) persistence.User {
	return persistence.User{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func toApplicationSession(model persistence.Session) (application.Session, error) {
	date, err := calendar.Parse(model.Date)
	if err != nil {
		return application.Session{}, fmt.Errorf("session %s: %w", model.ID, err)
	}
	return application.Session{
		ID:              model.ID,
		Date:            date,
		UserID:          derefString(model.UserID),
		Confirmed:       model.Confirmed,
		ArrivalDay:      calendar.ArrivalDay(derefString(model.ArrivalDay)),
		ArrivalTime:     derefString(model.ArrivalTime),
		NeedsAssistance: model.NeedsAssistance,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}, nil
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:              session.ID,
		Date:            session.Date.String(),
		UserID:          optionalString(session.UserID),
		Confirmed:       session.Confirmed,
		ArrivalDay:      optionalString(string(session.ArrivalDay)),
		ArrivalTime:     optionalString(session.ArrivalTime),
		NeedsAssistance: session.NeedsAssistance,
		CreatedAt:       session.CreatedAt,
		UpdatedAt:       session.UpdatedAt,
	}
}

func dateOrEmpty(d calendar.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
