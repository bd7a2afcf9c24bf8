package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/mowing-roster/internal/calendar"
)

type userRepoStub struct {
	mu      sync.Mutex
	users   map[string]User
	listErr error
}

func newUserRepoStub(users ...User) *userRepoStub {
	r := &userRepoStub{users: make(map[string]User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *userRepoStub) CreateUser(_ context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Name == user.Name {
			return User{}, ErrAlreadyExists
		}
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *userRepoStub) GetUser(_ context.Context, id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *userRepoStub) GetUserByName(_ context.Context, name string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Name == name {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *userRepoStub) UpdateUser(_ context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return User{}, ErrNotFound
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *userRepoStub) DeleteUser(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *userRepoStub) ListUsers(context.Context) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *userRepoStub) CountUsers(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

type sessionRepoStub struct {
	mu        sync.Mutex
	sessions  map[string]Session
	listCalls int
	updateErr error
}

func newSessionRepoStub(sessions ...Session) *sessionRepoStub {
	r := &sessionRepoStub{sessions: make(map[string]Session)}
	for _, s := range sessions {
		r.sessions[s.ID] = s
	}
	return r
}

func (r *sessionRepoStub) CreateSession(_ context.Context, session Session) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(session)
}

func (r *sessionRepoStub) createLocked(session Session) (Session, error) {
	for _, s := range r.sessions {
		if s.Date.Equal(session.Date) {
			return Session{}, ErrAlreadyExists
		}
	}
	r.sessions[session.ID] = session
	return session, nil
}

func (r *sessionRepoStub) CreateSessions(_ context.Context, sessions []Session) ([]Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		created, err := r.createLocked(s)
		if err != nil {
			return nil, err
		}
		out = append(out, created)
	}
	return out, nil
}

func (r *sessionRepoStub) GetSession(_ context.Context, id string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (r *sessionRepoStub) GetSessionByDate(_ context.Context, date calendar.Date) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.Date.Equal(date) {
			return s, nil
		}
	}
	return Session{}, ErrNotFound
}

func (r *sessionRepoStub) UpdateSession(_ context.Context, session Session) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return Session{}, r.updateErr
	}
	if _, ok := r.sessions[session.ID]; !ok {
		return Session{}, ErrNotFound
	}
	r.sessions[session.ID] = session
	return session, nil
}

func (r *sessionRepoStub) DeleteSession(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *sessionRepoStub) ListSessions(_ context.Context, filter SessionFilter) ([]Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	var out []Session
	for _, s := range r.sessions {
		if !filter.From.IsZero() && s.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && s.Date.After(filter.To) {
			continue
		}
		if filter.UserID != "" && s.UserID != filter.UserID {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *sessionRepoStub) CountSessions(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions), nil
}

func (r *sessionRepoStub) get(id string) Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

type notifierStub struct {
	mu          sync.Mutex
	assistance  []AssistanceRequest
	coverage    []CoverageRequest
	err         error
	redirecting bool
}

func (n *notifierStub) NotifyAssistance(_ context.Context, req AssistanceRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.assistance = append(n.assistance, req)
	return n.err
}

func (n *notifierStub) NotifyCoverage(_ context.Context, req CoverageRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.coverage = append(n.coverage, req)
	return n.err
}

func (n *notifierStub) RedirectsToSender() bool { return n.redirecting }

type sequenceIDs struct {
	mu   sync.Mutex
	next int
}

func (s *sequenceIDs) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return fmt.Sprintf("id-%d", s.next)
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var (
	adminPrincipal = Principal{UserID: "admin", IsAdmin: true}
	alexPrincipal  = Principal{UserID: "alex"}
	blairPrincipal = Principal{UserID: "blair"}
)

func rosterUsers() []User {
	return []User{
		{ID: "admin", Name: "Admin", Email: "admin@example.org", IsAdmin: true},
		{ID: "alex", Name: "Alex", Email: "alex@example.org"},
		{ID: "blair", Name: "Blair", Email: "blair@example.org"},
		{ID: "casey", Name: "casey", Email: "casey@example.org"},
	}
}
