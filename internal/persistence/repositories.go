package persistence

import "context"

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByName(ctx context.Context, name string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
	CountUsers(ctx context.Context) (int, error)
}

// SessionFilter narrows session listings by primary date, inclusive.
// Empty bounds are open.
type SessionFilter struct {
	From   string
	To     string
	UserID string
}

// SessionRepository stores mowing sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) error
	// CreateSessions stores a batch atomically.
	CreateSessions(ctx context.Context, sessions []Session) error
	UpdateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	GetSessionByDate(ctx context.Context, date string) (Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error)
	DeleteSession(ctx context.Context, id string) error
	CountSessions(ctx context.Context) (int, error)
}
