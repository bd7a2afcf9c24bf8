package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/mowing-roster/internal/application"
	"github.com/example/mowing-roster/internal/calendar"
)

var discardLogger = slog.New(slog.DiscardHandler)

type authServiceStub struct {
	login func(application.LoginParams) (application.LoginResult, error)
}

func (s authServiceStub) Login(_ context.Context, params application.LoginParams) (application.LoginResult, error) {
	return s.login(params)
}

type userServiceStub struct {
	users     []application.User
	err       error
	created   application.CreateUserParams
	updated   application.UpdateUserParams
	deletedID string
}

func (s *userServiceStub) CreateUser(_ context.Context, params application.CreateUserParams) (application.User, error) {
	s.created = params
	if s.err != nil {
		return application.User{}, s.err
	}
	return application.User{ID: "u-new", Name: params.Input.Name, Email: params.Input.Email}, nil
}

func (s *userServiceStub) UpdateUser(_ context.Context, params application.UpdateUserParams) (application.User, error) {
	s.updated = params
	if s.err != nil {
		return application.User{}, s.err
	}
	return application.User{ID: params.UserID, Name: params.Input.Name}, nil
}

func (s *userServiceStub) DeleteUser(_ context.Context, _ application.Principal, userID string) error {
	s.deletedID = userID
	return s.err
}

func (s *userServiceStub) GetUser(_ context.Context, _ application.Principal, userID string) (application.User, error) {
	if s.err != nil {
		return application.User{}, s.err
	}
	for _, u := range s.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return application.User{}, application.ErrNotFound
}

func (s *userServiceStub) ListUsers(context.Context, application.Principal) ([]application.User, error) {
	return s.users, s.err
}

// sessionServiceStub records the last call and returns canned results.
type sessionServiceStub struct {
	err error

	session  application.Session
	sessions []application.Session
	warnings []application.OverlapWarning
	series   application.SeriesResult
	confirm  application.ConfirmResult
	coverage application.CoverageResult

	principal    application.Principal
	filter       application.SessionFilter
	date         calendar.Date
	seriesParams application.SeriesParams
	sessionID    string
	userID       string
	confirmation application.Confirmation
	calls        []string
}

func (s *sessionServiceStub) record(name string, principal application.Principal) {
	s.calls = append(s.calls, name)
	s.principal = principal
}

func (s *sessionServiceStub) ListSessions(_ context.Context, p application.Principal, filter application.SessionFilter) ([]application.Session, error) {
	s.record("ListSessions", p)
	s.filter = filter
	return s.sessions, s.err
}

func (s *sessionServiceStub) GetSession(_ context.Context, p application.Principal, id string) (application.Session, error) {
	s.record("GetSession", p)
	s.sessionID = id
	return s.session, s.err
}

func (s *sessionServiceStub) CreateSession(_ context.Context, p application.Principal, date calendar.Date) (application.Session, []application.OverlapWarning, error) {
	s.record("CreateSession", p)
	s.date = date
	return s.session, s.warnings, s.err
}

func (s *sessionServiceStub) CreateSeries(_ context.Context, p application.Principal, params application.SeriesParams) (application.SeriesResult, error) {
	s.record("CreateSeries", p)
	s.seriesParams = params
	return s.series, s.err
}

func (s *sessionServiceStub) AssignSession(_ context.Context, p application.Principal, sessionID, userID string) (application.Session, error) {
	s.record("AssignSession", p)
	s.sessionID, s.userID = sessionID, userID
	return s.session, s.err
}

func (s *sessionServiceStub) ConfirmSession(_ context.Context, p application.Principal, sessionID string, c application.Confirmation) (application.ConfirmResult, error) {
	s.record("ConfirmSession", p)
	s.sessionID, s.confirmation = sessionID, c
	return s.confirm, s.err
}

func (s *sessionServiceStub) WithdrawSession(_ context.Context, p application.Principal, sessionID string) (application.Session, error) {
	s.record("WithdrawSession", p)
	s.sessionID = sessionID
	return s.session, s.err
}

func (s *sessionServiceStub) RequestCoverage(_ context.Context, p application.Principal, sessionID string) (application.CoverageResult, error) {
	s.record("RequestCoverage", p)
	s.sessionID = sessionID
	return s.coverage, s.err
}

func (s *sessionServiceStub) DeleteSession(_ context.Context, p application.Principal, sessionID string) error {
	s.record("DeleteSession", p)
	s.sessionID = sessionID
	return s.err
}

func (s *sessionServiceStub) MySessions(_ context.Context, p application.Principal) ([]application.Session, error) {
	s.record("MySessions", p)
	return s.sessions, s.err
}

type calendarServiceStub struct {
	view     application.CalendarView
	match    application.DayMatch
	overlaps []application.Overlap
	err      error

	year  int
	month time.Month
	date  calendar.Date
}

func (s *calendarServiceStub) CalendarMonth(_ context.Context, _ application.Principal, year int, month time.Month) (application.CalendarView, error) {
	s.year, s.month = year, month
	return s.view, s.err
}

func (s *calendarServiceStub) MatchDate(_ context.Context, _ application.Principal, date calendar.Date) (application.DayMatch, error) {
	s.date = date
	return s.match, s.err
}

func (s *calendarServiceStub) Overlaps(context.Context, application.Principal) ([]application.Overlap, error) {
	return s.overlaps, s.err
}

// fixedPrincipal stands in for RequireSession in router tests.
func fixedPrincipal(p application.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
		})
	}
}

func serve(t *testing.T, handler http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}
