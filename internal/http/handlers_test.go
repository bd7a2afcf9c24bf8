package http

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/example/mowing-roster/internal/application"
	"github.com/example/mowing-roster/internal/calendar"
	"github.com/example/mowing-roster/internal/scheduler"
)

var (
	adminPrincipal  = application.Principal{UserID: "admin", IsAdmin: true}
	memberPrincipal = application.Principal{UserID: "u-alex"}
)

func newTestRouter(p application.Principal, auth *AuthHandler, users *userServiceStub, sessions *sessionServiceStub, cal *calendarServiceStub) http.Handler {
	cfg := RouterConfig{Auth: auth, RequireSession: fixedPrincipal(p)}
	if users != nil {
		cfg.Users = NewUserHandler(users, discardLogger)
	}
	if sessions != nil {
		cfg.Sessions = NewSessionHandler(sessions, discardLogger)
	}
	if cal != nil {
		cfg.Calendar = NewCalendarHandler(cal, discardLogger)
	}
	return NewRouter(cfg)
}

func TestAuthHandlers(t *testing.T) {
	t.Parallel()

	expires := time.Date(2025, time.November, 6, 10, 0, 0, 0, time.UTC)
	service := authServiceStub{login: func(p application.LoginParams) (application.LoginResult, error) {
		if p.Name != "Alex" || p.Password != "secret" {
			return application.LoginResult{}, application.ErrInvalidCredentials
		}
		return application.LoginResult{
			User:      application.User{ID: "u-alex", Name: "Alex", Email: "alex@example.org"},
			Token:     "signed-token",
			ExpiresAt: expires,
		}, nil
	}}

	t.Run("login issues token via body and cookie", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(application.Principal{}, NewAuthHandler(service, true, discardLogger), nil, nil, nil)

		rec := serve(t, router, http.MethodPost, "/api/auth/login", map[string]string{"name": "  Alex ", "password": "secret"})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		resp := decode[loginResponse](t, rec)
		if resp.Token != "signed-token" || resp.ExpiresAt != "2025-11-06T10:00:00Z" || resp.User.Name != "Alex" {
			t.Fatalf("unexpected login response %+v", resp)
		}

		cookies := rec.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Name != sessionCookieName || cookies[0].Value != "signed-token" {
			t.Fatalf("expected session cookie, got %+v", cookies)
		}
		if !cookies[0].HttpOnly || !cookies[0].Secure {
			t.Fatalf("cookie must be HttpOnly and Secure, got %+v", cookies[0])
		}
	})

	t.Run("invalid credentials map to 401", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(application.Principal{}, NewAuthHandler(service, false, discardLogger), nil, nil, nil)

		rec := serve(t, router, http.MethodPost, "/api/auth/login", map[string]string{"name": "Alex", "password": "wrong"})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
		if body := decode[errorResponse](t, rec); body.ErrorCode != "AUTH_INVALID_CREDENTIALS" {
			t.Fatalf("unexpected error code %q", body.ErrorCode)
		}
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(application.Principal{}, NewAuthHandler(service, false, discardLogger), nil, nil, nil)

		if rec := serve(t, router, http.MethodPost, "/api/auth/login", "{"); rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		if rec := serve(t, router, http.MethodGet, "/api/auth/login", nil); rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("GET login status = %d", rec.Code)
		}
	})

	t.Run("logout clears the cookie", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(application.Principal{}, NewAuthHandler(service, false, discardLogger), nil, nil, nil)

		rec := serve(t, router, http.MethodPost, "/api/auth/logout", nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d", rec.Code)
		}
		cookies := rec.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Value != "" || cookies[0].MaxAge >= 0 {
			t.Fatalf("expected cleared cookie, got %+v", cookies)
		}
	})
}

func TestUserHandlers(t *testing.T) {
	t.Parallel()

	t.Run("list never returns null", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(memberPrincipal, nil, &userServiceStub{}, nil, nil)

		rec := serve(t, router, http.MethodGet, "/api/users", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"users":[]`) {
			t.Fatalf("expected empty array, got %s", rec.Body.String())
		}
	})

	t.Run("create passes trimmed input and principal", func(t *testing.T) {
		t.Parallel()
		users := &userServiceStub{}
		router := newTestRouter(adminPrincipal, nil, users, nil, nil)

		rec := serve(t, router, http.MethodPost, "/api/users", map[string]any{"name": " Casey ", "email": "casey@example.org", "is_admin": true})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if users.created.Principal != adminPrincipal || users.created.Input.Name != "Casey" {
			t.Fatalf("unexpected create params %+v", users.created)
		}
		if users.created.Input.IsAdmin == nil || !*users.created.Input.IsAdmin {
			t.Fatalf("is_admin not forwarded")
		}
	})

	t.Run("service errors map to status codes", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			name   string
			err    error
			status int
			code   string
		}{
			{name: "forbidden", err: application.ErrUnauthorized, status: http.StatusForbidden, code: "AUTH_FORBIDDEN"},
			{name: "protected", err: application.ErrProtectedUser, status: http.StatusForbidden, code: "USER_PROTECTED"},
			{name: "duplicate", err: application.ErrAlreadyExists, status: http.StatusConflict, code: "ALREADY_EXISTS"},
			{name: "missing", err: application.ErrNotFound, status: http.StatusNotFound},
			{name: "unexpected", err: errors.New("disk full"), status: http.StatusInternalServerError},
		}

		for _, tc := range cases {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()
				router := newTestRouter(memberPrincipal, nil, &userServiceStub{err: tc.err}, nil, nil)

				rec := serve(t, router, http.MethodDelete, "/api/users/u-blair", nil)
				if rec.Code != tc.status {
					t.Fatalf("status = %d, want %d", rec.Code, tc.status)
				}
				if body := decode[errorResponse](t, rec); body.ErrorCode != tc.code {
					t.Fatalf("error code = %q, want %q", body.ErrorCode, tc.code)
				}
			})
		}
	})

	t.Run("validation errors carry field details", func(t *testing.T) {
		t.Parallel()
		vErr := &application.ValidationError{FieldErrors: map[string]string{"email": "email is invalid"}}
		router := newTestRouter(adminPrincipal, nil, &userServiceStub{err: vErr}, nil, nil)

		rec := serve(t, router, http.MethodPut, "/api/users/u-alex", map[string]string{"name": "Alex", "email": "nope"})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d", rec.Code)
		}
		if body := decode[errorResponse](t, rec); body.Errors["email"] != "email is invalid" {
			t.Fatalf("unexpected details %+v", body)
		}
	})

	t.Run("path id reaches the service", func(t *testing.T) {
		t.Parallel()
		users := &userServiceStub{users: []application.User{{ID: "u-alex", Name: "Alex"}}}
		router := newTestRouter(memberPrincipal, nil, users, nil, nil)

		rec := serve(t, router, http.MethodGet, "/api/users/u-alex", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if got := decode[userResponse](t, rec); got.User.ID != "u-alex" {
			t.Fatalf("unexpected user %+v", got)
		}
		if rec := serve(t, router, http.MethodGet, "/api/users/u-alex/extra", nil); rec.Code != http.StatusNotFound {
			t.Fatalf("nested path status = %d", rec.Code)
		}
	})
}

func TestSessionHandlers(t *testing.T) {
	t.Parallel()

	stored := application.Session{
		ID:     "s-1",
		Date:   calendar.MustParse("2025-11-08"),
		UserID: "u-alex",
	}

	t.Run("create returns overlap warnings with 201", func(t *testing.T) {
		t.Parallel()
		sessions := &sessionServiceStub{
			session: stored,
			warnings: []application.OverlapWarning{{
				SessionID:  "s-0",
				Date:       calendar.MustParse("2025-11-06"),
				SharedDays: []calendar.Date{calendar.MustParse("2025-11-07")},
			}},
		}
		router := newTestRouter(adminPrincipal, nil, nil, sessions, nil)

		rec := serve(t, router, http.MethodPost, "/api/sessions", map[string]string{"date": "2025-11-08"})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		resp := decode[createSessionResponse](t, rec)
		if resp.Session.ID != "s-1" || resp.Session.Window.Before != "2025-11-07" || resp.Session.Window.After != "2025-11-09" {
			t.Fatalf("unexpected session %+v", resp.Session)
		}
		if len(resp.Warnings) != 1 || resp.Warnings[0].SharedDays[0] != "2025-11-07" {
			t.Fatalf("unexpected warnings %+v", resp.Warnings)
		}
		if !sessions.date.Equal(stored.Date) {
			t.Fatalf("date not forwarded: %s", sessions.date)
		}
	})

	t.Run("create rejects malformed dates before the service", func(t *testing.T) {
		t.Parallel()
		sessions := &sessionServiceStub{}
		router := newTestRouter(adminPrincipal, nil, nil, sessions, nil)

		rec := serve(t, router, http.MethodPost, "/api/sessions", map[string]string{"date": "08/11/2025"})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d", rec.Code)
		}
		if body := decode[errorResponse](t, rec); body.Errors["date"] == "" {
			t.Fatalf("expected date error, got %+v", body)
		}
		if len(sessions.calls) != 0 {
			t.Fatalf("service must not be called, got %v", sessions.calls)
		}
	})

	t.Run("series forwards the parsed range", func(t *testing.T) {
		t.Parallel()
		sessions := &sessionServiceStub{series: application.SeriesResult{
			Created: []application.Session{stored},
			Skipped: []calendar.Date{calendar.MustParse("2025-11-15")},
		}}
		router := newTestRouter(adminPrincipal, nil, nil, sessions, nil)

		rec := serve(t, router, http.MethodPost, "/api/sessions/series", map[string]any{"start": "2025-11-08", "until": "2025-11-29", "interval_weeks": 1})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		resp := decode[seriesResponse](t, rec)
		if len(resp.Created) != 1 || len(resp.Skipped) != 1 || resp.Skipped[0] != "2025-11-15" {
			t.Fatalf("unexpected series response %+v", resp)
		}
		if sessions.seriesParams.Until.String() != "2025-11-29" || sessions.seriesParams.IntervalWeeks != 1 {
			t.Fatalf("unexpected params %+v", sessions.seriesParams)
		}
	})

	t.Run("put on a session assigns and null clears", func(t *testing.T) {
		t.Parallel()
		sessions := &sessionServiceStub{session: stored}
		router := newTestRouter(memberPrincipal, nil, nil, sessions, nil)

		rec := serve(t, router, http.MethodPut, "/api/sessions/s-1", map[string]string{"user_id": " u-alex "})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if sessions.sessionID != "s-1" || sessions.userID != "u-alex" || sessions.principal != memberPrincipal {
			t.Fatalf("unexpected assign call %+v", sessions)
		}

		rec = serve(t, router, http.MethodPut, "/api/sessions/s-1", `{"user_id": null}`)
		if rec.Code != http.StatusOK || sessions.userID != "" {
			t.Fatalf("null assignee should clear, status %d user %q", rec.Code, sessions.userID)
		}
		if resp := decode[sessionResponse](t, rec); resp.Session.UserID == nil || *resp.Session.UserID != "u-alex" {
			t.Fatalf("response should echo the stored session, got %+v", resp.Session)
		}
	})

	t.Run("confirm reports the notification outcome", func(t *testing.T) {
		t.Parallel()
		confirmed := stored
		confirmed.Confirmed = true
		confirmed.NeedsAssistance = true
		confirmed.ArrivalDay = calendar.ArrivalBefore
		confirmed.ArrivalTime = "9am"
		sessions := &sessionServiceStub{confirm: application.ConfirmResult{
			Session:      confirmed,
			Notification: application.NotificationOutcome{Attempted: true, Err: errors.New("smtp down")},
		}}
		router := newTestRouter(memberPrincipal, nil, nil, sessions, nil)

		rec := serve(t, router, http.MethodPut, "/api/sessions/s-1/confirm", map[string]any{"needs_assistance": true, "arrival_day": "before", "arrival_time": " 9am "})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if sessions.confirmation.ArrivalTime != "9am" || !sessions.confirmation.NeedsAssistance || sessions.confirmation.ArrivalDay != "before" {
			t.Fatalf("unexpected confirmation %+v", sessions.confirmation)
		}
		resp := decode[confirmResponse](t, rec)
		if !resp.Session.Confirmed || !resp.Notification.Attempted || resp.Notification.Sent || resp.Notification.Error == "" {
			t.Fatalf("unexpected confirm response %+v", resp)
		}
	})

	t.Run("invalid transitions map to 409", func(t *testing.T) {
		t.Parallel()
		sessions := &sessionServiceStub{err: application.ErrInvalidTransition}
		router := newTestRouter(memberPrincipal, nil, nil, sessions, nil)

		rec := serve(t, router, http.MethodPut, "/api/sessions/s-1/withdraw", nil)
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d", rec.Code)
		}
		if body := decode[errorResponse](t, rec); body.ErrorCode != "INVALID_TRANSITION" {
			t.Fatalf("error code = %q", body.ErrorCode)
		}
	})

	t.Run("coverage messages", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			name    string
			result  application.CoverageResult
			message string
		}{
			{name: "sent", result: application.CoverageResult{Recipients: []application.User{{Name: "Blair"}}}, message: "Email sent successfully"},
			{name: "redirected", result: application.CoverageResult{Recipients: []application.User{{Name: "Blair"}}, Redirected: true}, message: "Email sent to testing account"},
			{name: "nobody", result: application.CoverageResult{}, message: "There is nobody else to ask"},
		}

		for _, tc := range cases {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()
				router := newTestRouter(memberPrincipal, nil, nil, &sessionServiceStub{coverage: tc.result}, nil)

				rec := serve(t, router, http.MethodPost, "/api/sessions/s-1/request-coverage", nil)
				if rec.Code != http.StatusOK {
					t.Fatalf("status = %d", rec.Code)
				}
				resp := decode[coverageResponse](t, rec)
				if resp.Message != tc.message || len(resp.Recipients) != len(tc.result.Recipients) {
					t.Fatalf("unexpected coverage response %+v", resp)
				}
			})
		}
	})

	t.Run("coverage delivery failure is a bad gateway", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(memberPrincipal, nil, nil, &sessionServiceStub{err: application.ErrNotificationFailed}, nil)

		if rec := serve(t, router, http.MethodPost, "/api/sessions/s-1/request-coverage", nil); rec.Code != http.StatusBadGateway {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("list parses the date filter", func(t *testing.T) {
		t.Parallel()
		sessions := &sessionServiceStub{}
		router := newTestRouter(memberPrincipal, nil, nil, sessions, nil)

		rec := serve(t, router, http.MethodGet, "/api/sessions?from=2025-11-01&to=2025-11-30", nil)
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"sessions":[]`) {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if sessions.filter.From.String() != "2025-11-01" || sessions.filter.To.String() != "2025-11-30" {
			t.Fatalf("unexpected filter %+v", sessions.filter)
		}

		if rec := serve(t, router, http.MethodGet, "/api/sessions?from=tomorrow", nil); rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("bad filter status = %d", rec.Code)
		}
	})

	t.Run("routing", func(t *testing.T) {
		t.Parallel()
		sessions := &sessionServiceStub{session: stored}
		router := newTestRouter(adminPrincipal, nil, nil, sessions, nil)

		if rec := serve(t, router, http.MethodDelete, "/api/sessions/s-1", nil); rec.Code != http.StatusNoContent {
			t.Fatalf("delete status = %d", rec.Code)
		}
		if rec := serve(t, router, http.MethodGet, "/api/roster", nil); rec.Code != http.StatusOK {
			t.Fatalf("roster status = %d", rec.Code)
		}
		if rec := serve(t, router, http.MethodPost, "/api/sessions/s-1/unknown", nil); rec.Code != http.StatusNotFound {
			t.Fatalf("unknown action status = %d", rec.Code)
		}
		rec := serve(t, router, http.MethodGet, "/api/sessions/s-1/confirm", nil)
		if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != http.MethodPut {
			t.Fatalf("confirm GET status = %d allow %q", rec.Code, rec.Header().Get("Allow"))
		}

		want := []string{"DeleteSession", "MySessions"}
		if strings.Join(sessions.calls, ",") != strings.Join(want, ",") {
			t.Fatalf("calls = %v, want %v", sessions.calls, want)
		}
	})
}

func TestCalendarHandlers(t *testing.T) {
	t.Parallel()

	match := application.DayMatch{
		Found:        true,
		Session:      application.Session{ID: "s-1", Date: calendar.MustParse("2025-11-08"), UserID: "u-alex"},
		Position:     calendar.PositionPrimary,
		Status:       scheduler.StatusAssigned,
		Label:        "Alex (Primary)",
		AssigneeName: "Alex",
	}

	t.Run("month requires year and month", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(memberPrincipal, nil, nil, nil, &calendarServiceStub{})

		rec := serve(t, router, http.MethodGet, "/api/calendar?year=2025", nil)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d", rec.Code)
		}
		if body := decode[errorResponse](t, rec); body.Errors["month"] == "" {
			t.Fatalf("expected month error, got %+v", body)
		}
	})

	t.Run("month renders the grid", func(t *testing.T) {
		t.Parallel()
		cal := &calendarServiceStub{view: application.CalendarView{
			Year:  2025,
			Month: time.November,
			Today: calendar.MustParse("2025-11-05"),
			Days: []application.CalendarDay{
				{Date: calendar.MustParse("2025-11-08"), DayOfMonth: 8, IsCurrentMonth: true, Match: match},
				{Date: calendar.MustParse("2025-11-10"), DayOfMonth: 10, IsCurrentMonth: true},
			},
		}}
		router := newTestRouter(memberPrincipal, nil, nil, nil, cal)

		rec := serve(t, router, http.MethodGet, "/api/calendar?year=2025&month=11", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if cal.year != 2025 || cal.month != time.November {
			t.Fatalf("unexpected arguments %d/%d", cal.year, cal.month)
		}
		resp := decode[calendarDTO](t, rec)
		if resp.Today != "2025-11-05" || len(resp.Days) != 2 {
			t.Fatalf("unexpected calendar %+v", resp)
		}
		if got := resp.Days[0].Match; !got.Found || got.Label != "Alex (Primary)" || got.Position != "primary" || got.Session == nil {
			t.Fatalf("unexpected match %+v", got)
		}
		if resp.Days[1].Match.Found || resp.Days[1].Match.Session != nil {
			t.Fatalf("empty day should carry no match, got %+v", resp.Days[1].Match)
		}
	})

	t.Run("match parses the date", func(t *testing.T) {
		t.Parallel()
		cal := &calendarServiceStub{match: match}
		router := newTestRouter(memberPrincipal, nil, nil, nil, cal)

		rec := serve(t, router, http.MethodGet, "/api/calendar/match?date=2025-11-08", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if resp := decode[matchResponse](t, rec); resp.Date != "2025-11-08" || resp.Match.AssigneeName != "Alex" {
			t.Fatalf("unexpected match response %+v", resp)
		}
		if rec := serve(t, router, http.MethodGet, "/api/calendar/match", nil); rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("missing date status = %d", rec.Code)
		}
	})

	t.Run("overlaps require admin in the service", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(memberPrincipal, nil, nil, nil, &calendarServiceStub{err: application.ErrUnauthorized})

		if rec := serve(t, router, http.MethodGet, "/api/overlaps", nil); rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("overlaps list shared days", func(t *testing.T) {
		t.Parallel()
		cal := &calendarServiceStub{overlaps: []application.Overlap{{
			First:      application.Session{ID: "a", Date: calendar.MustParse("2025-10-25")},
			Second:     application.Session{ID: "b", Date: calendar.MustParse("2025-10-27")},
			SharedDays: []calendar.Date{calendar.MustParse("2025-10-26")},
		}}}
		router := newTestRouter(adminPrincipal, nil, nil, nil, cal)

		rec := serve(t, router, http.MethodGet, "/api/overlaps", nil)
		resp := decode[overlapsResponse](t, rec)
		if len(resp.Overlaps) != 1 || resp.Overlaps[0].SharedDays[0] != "2025-10-26" || resp.Overlaps[0].Second.ID != "b" {
			t.Fatalf("unexpected overlaps %+v", resp)
		}
	})
}
