package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/mowing-roster/internal/calendar"
	"github.com/example/mowing-roster/internal/persistence"
	"github.com/example/mowing-roster/internal/recurrence"
	"github.com/example/mowing-roster/internal/scheduler"
)

// SessionRepository captures the persistence interactions for mowing sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	CreateSessions(ctx context.Context, sessions []Session) ([]Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
	GetSessionByDate(ctx context.Context, date calendar.Date) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	DeleteSession(ctx context.Context, id string) error
	ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error)
	CountSessions(ctx context.Context) (int, error)
}

// SessionService runs the session lifecycle, the calendar view and the
// notifications that hang off them.
type SessionService struct {
	sessions    SessionRepository
	users       UserRepository
	notifier    Notifier
	cache       *CalendarCache
	location    *time.Location
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSessionService wires dependencies for session operations.
func NewSessionService(sessions SessionRepository, users UserRepository, notifier Notifier, idGenerator func() string, now func() time.Time) *SessionService {
	return NewSessionServiceWithLogger(sessions, users, notifier, idGenerator, now, nil)
}

// NewSessionServiceWithLogger wires dependencies for session operations with a specific logger.
func NewSessionServiceWithLogger(sessions SessionRepository, users UserRepository, notifier Notifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SessionService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		sessions:    sessions,
		users:       users,
		notifier:    notifier,
		location:    time.UTC,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// WithCalendarCache memoises CalendarMonth in cache.
func (s *SessionService) WithCalendarCache(cache *CalendarCache) *SessionService {
	if s != nil {
		s.cache = cache
	}
	return s
}

// WithLocation sets the zone used to decide which date is today.
func (s *SessionService) WithLocation(loc *time.Location) *SessionService {
	if s != nil && loc != nil {
		s.location = loc
	}
	return s
}

func (s *SessionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SessionService", operation, attrs...)
}

func (s *SessionService) today() calendar.Date {
	return calendar.FromTime(s.now(), s.location)
}

func (s *SessionService) ready() error {
	if s == nil {
		return fmt.Errorf("SessionService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}
	return nil
}

// ListSessions returns the sessions within filter sorted by date then ID.
func (s *SessionService) ListSessions(ctx context.Context, principal Principal, filter SessionFilter) ([]Session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, fieldError("to", "to must not be before from")
	}
	return s.listSessions(ctx, filter)
}

// GetSession returns one session.
func (s *SessionService) GetSession(ctx context.Context, principal Principal, id string) (Session, error) {
	if err := s.ready(); err != nil {
		return Session{}, err
	}
	if principal.UserID == "" {
		return Session{}, ErrUnauthorized
	}
	session, err := s.sessions.GetSession(ctx, strings.TrimSpace(id))
	if err != nil {
		return Session{}, mapSessionRepoError(err)
	}
	return session, nil
}

// CreateSession adds an unassigned session on date. Existing sessions whose
// windows would share days with it are returned as warnings.
func (s *SessionService) CreateSession(ctx context.Context, principal Principal, date calendar.Date) (session Session, warnings []OverlapWarning, err error) {
	if err = s.ready(); err != nil {
		return Session{}, nil, err
	}

	logger := s.loggerWith(ctx, "CreateSession", "principal_id", principal.UserID, "date", date.String())
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session created", "session_id", session.ID, "overlap_warnings", len(warnings))
	}()

	if !principal.IsAdmin {
		return Session{}, nil, ErrUnauthorized
	}
	if date.IsZero() {
		return Session{}, nil, fieldError("date", "date is required")
	}

	if err = s.ensureDateAvailable(ctx, date); err != nil {
		return Session{}, nil, err
	}

	neighbours, err := s.listSessions(ctx, SessionFilter{From: date.AddDays(-2), To: date.AddDays(2)})
	if err != nil {
		return Session{}, nil, err
	}

	createdAt := s.now()
	session, err = s.sessions.CreateSession(ctx, Session{
		ID:        s.idGenerator(),
		Date:      date,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
	if err != nil {
		return Session{}, nil, mapSessionRepoError(err)
	}
	s.cache.Invalidate()

	warnings = overlapWarnings(neighbours, session)
	return session, warnings, nil
}

// CreateSeries adds weekly sessions between params.Start and params.Until,
// skipping dates that already have a session. The batch is stored atomically.
func (s *SessionService) CreateSeries(ctx context.Context, principal Principal, params SeriesParams) (result SeriesResult, err error) {
	if err = s.ready(); err != nil {
		return SeriesResult{}, err
	}

	logger := s.loggerWith(ctx, "CreateSeries",
		"principal_id", principal.UserID,
		"start", params.Start.String(),
		"until", params.Until.String(),
		"interval_weeks", params.IntervalWeeks,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create session series", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session series created", "created", len(result.Created), "skipped", len(result.Skipped))
	}()

	if !principal.IsAdmin {
		return SeriesResult{}, ErrUnauthorized
	}
	if vErr := validateSeries(params); vErr.HasErrors() {
		return SeriesResult{}, vErr
	}

	dates, err := recurrence.GenerateDates(recurrence.Rule{
		Frequency: recurrence.FrequencyWeekly,
		Interval:  params.IntervalWeeks,
		StartsOn:  params.Start,
		EndsOn:    params.Until,
	}, recurrence.GenerateOptions{})
	if err != nil {
		return SeriesResult{}, mapRecurrenceError(err)
	}

	existing, err := s.listSessions(ctx, SessionFilter{From: params.Start, To: params.Until})
	if err != nil {
		return SeriesResult{}, err
	}
	taken := make(map[string]struct{}, len(existing))
	for _, session := range existing {
		taken[session.Date.String()] = struct{}{}
	}

	createdAt := s.now()
	var pending []Session
	for _, date := range dates {
		if _, ok := taken[date.String()]; ok {
			result.Skipped = append(result.Skipped, date)
			continue
		}
		pending = append(pending, Session{
			ID:        s.idGenerator(),
			Date:      date,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		})
	}

	if len(pending) > 0 {
		result.Created, err = s.sessions.CreateSessions(ctx, pending)
		if err != nil {
			return SeriesResult{}, mapSessionRepoError(err)
		}
		s.cache.Invalidate()
	}
	return result, nil
}

// AssignSession sets the assignee. Administrators may assign anyone; other
// users may only take an open session, or one that is already theirs, for
// themselves. An empty userID withdraws the current assignee.
func (s *SessionService) AssignSession(ctx context.Context, principal Principal, sessionID, userID string) (session Session, err error) {
	if err = s.ready(); err != nil {
		return Session{}, err
	}
	userID = strings.TrimSpace(userID)

	logger := s.loggerWith(ctx, "AssignSession",
		"principal_id", principal.UserID,
		"session_id", sessionID,
		"user_id", userID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to assign session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session assignment updated", "status", string(session.Status()))
	}()

	if principal.UserID == "" {
		return Session{}, ErrUnauthorized
	}

	existing, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return Session{}, mapSessionRepoError(err)
	}

	if userID == "" {
		if existing.UserID == "" {
			return existing, nil
		}
		return s.withdraw(ctx, principal, existing)
	}

	if !principal.IsAdmin {
		if userID != principal.UserID {
			return Session{}, ErrUnauthorized
		}
		if existing.UserID != "" && existing.UserID != principal.UserID {
			return Session{}, ErrUnauthorized
		}
	}

	if _, err = s.users.GetUser(ctx, userID); err != nil {
		if isNotFoundError(err) {
			return Session{}, fieldError("user_id", "user does not exist")
		}
		return Session{}, mapUserRepoError(err)
	}

	if existing.UserID == userID {
		return existing, nil
	}
	next, err := scheduler.Assign(toSchedulerSession(existing), userID)
	if err != nil {
		return Session{}, mapLifecycleError(err)
	}
	return s.save(ctx, existing, next)
}

// ConfirmSession confirms the assignee's attendance. When assistance is
// requested the administrators are emailed once; a failed email is reported
// in the result and does not undo the confirmation.
func (s *SessionService) ConfirmSession(ctx context.Context, principal Principal, sessionID string, confirmation Confirmation) (result ConfirmResult, err error) {
	if err = s.ready(); err != nil {
		return ConfirmResult{}, err
	}

	logger := s.loggerWith(ctx, "ConfirmSession",
		"principal_id", principal.UserID,
		"session_id", sessionID,
		"needs_assistance", confirmation.NeedsAssistance,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to confirm session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session confirmed",
			"notification_attempted", result.Notification.Attempted,
			"notification_sent", result.Notification.Sent,
		)
	}()

	existing, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return ConfirmResult{}, mapSessionRepoError(err)
	}
	if !canActOn(principal, existing) {
		return ConfirmResult{}, ErrUnauthorized
	}

	next, err := scheduler.Confirm(toSchedulerSession(existing), scheduler.Confirmation{
		NeedsAssistance: confirmation.NeedsAssistance,
		ArrivalDay:      calendar.ArrivalDay(confirmation.ArrivalDay),
		ArrivalTime:     confirmation.ArrivalTime,
	})
	if err != nil {
		return ConfirmResult{}, mapLifecycleError(err)
	}

	result.Session, err = s.save(ctx, existing, next)
	if err != nil {
		return ConfirmResult{}, err
	}

	if result.Session.NeedsAssistance {
		result.Notification = s.notifyAssistance(ctx, result.Session)
		if result.Notification.Err != nil {
			logger.WarnContext(ctx, "assistance notification failed",
				"error", result.Notification.Err,
				"error_kind", ErrorKind(result.Notification.Err),
			)
		}
	}
	return result, nil
}

// WithdrawSession clears the assignee and confirmation.
func (s *SessionService) WithdrawSession(ctx context.Context, principal Principal, sessionID string) (session Session, err error) {
	if err = s.ready(); err != nil {
		return Session{}, err
	}

	logger := s.loggerWith(ctx, "WithdrawSession", "principal_id", principal.UserID, "session_id", sessionID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to withdraw from session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session withdrawn")
	}()

	existing, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return Session{}, mapSessionRepoError(err)
	}
	return s.withdraw(ctx, principal, existing)
}

func (s *SessionService) withdraw(ctx context.Context, principal Principal, existing Session) (Session, error) {
	if existing.UserID == "" {
		if !principal.IsAdmin {
			return Session{}, ErrUnauthorized
		}
	} else if !canActOn(principal, existing) {
		return Session{}, ErrUnauthorized
	}

	next, err := scheduler.Withdraw(toSchedulerSession(existing))
	if err != nil {
		return Session{}, mapLifecycleError(err)
	}
	return s.save(ctx, existing, next)
}

// RequestCoverage emails every non-admin user other than the assignee asking
// them to take the session. The session itself is not changed.
func (s *SessionService) RequestCoverage(ctx context.Context, principal Principal, sessionID string) (result CoverageResult, err error) {
	if err = s.ready(); err != nil {
		return CoverageResult{}, err
	}

	logger := s.loggerWith(ctx, "RequestCoverage", "principal_id", principal.UserID, "session_id", sessionID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to request coverage", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "coverage requested", "recipients", len(result.Recipients), "redirected", result.Redirected)
	}()

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return CoverageResult{}, mapSessionRepoError(err)
	}
	if session.UserID == "" {
		if !principal.IsAdmin {
			return CoverageResult{}, ErrUnauthorized
		}
	} else if !canActOn(principal, session) {
		return CoverageResult{}, ErrUnauthorized
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return CoverageResult{}, mapUserRepoError(err)
	}
	sortUsers(users)

	var assignee *User
	for i := range users {
		if users[i].ID == session.UserID {
			assignee = &users[i]
			break
		}
	}
	result = CoverageResult{Session: session, Recipients: coverageRecipients(users, session.UserID)}
	if len(result.Recipients) == 0 {
		return result, nil
	}
	if s.notifier == nil {
		return CoverageResult{}, fmt.Errorf("%w: notifier not configured", ErrNotificationFailed)
	}

	req := CoverageRequest{
		SessionID:  session.ID,
		Date:       session.Date,
		Window:     session.Window(),
		Assignee:   assignee,
		Recipients: result.Recipients,
	}
	if err = s.notifier.NotifyCoverage(ctx, req); err != nil {
		return CoverageResult{}, fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}
	if r, ok := s.notifier.(senderRedirector); ok {
		result.Redirected = r.RedirectsToSender()
	}
	return result, nil
}

// DeleteSession removes a session outright.
func (s *SessionService) DeleteSession(ctx context.Context, principal Principal, sessionID string) (err error) {
	if err = s.ready(); err != nil {
		return err
	}

	logger := s.loggerWith(ctx, "DeleteSession", "principal_id", principal.UserID, "session_id", sessionID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session deleted")
	}()

	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if err = s.sessions.DeleteSession(ctx, sessionID); err != nil {
		return mapSessionRepoError(err)
	}
	s.cache.Invalidate()
	return nil
}

// MySessions lists the principal's sessions whose window has not fully passed.
func (s *SessionService) MySessions(ctx context.Context, principal Principal) ([]Session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	// A window ends the day after its primary date.
	return s.listSessions(ctx, SessionFilter{From: s.today().AddDays(-1), UserID: principal.UserID})
}

// CalendarMonth renders the 42-cell grid for year and month with each day's
// session match.
func (s *SessionService) CalendarMonth(ctx context.Context, principal Principal, year int, month time.Month) (CalendarView, error) {
	if err := s.ready(); err != nil {
		return CalendarView{}, err
	}
	if principal.UserID == "" {
		return CalendarView{}, ErrUnauthorized
	}
	vErr := &ValidationError{}
	if year < 1 || year > 9999 {
		vErr.Add("year", "year must be between 1 and 9999")
	}
	if month < time.January || month > time.December {
		vErr.Add("month", "month must be between 1 and 12")
	}
	if vErr.HasErrors() {
		return CalendarView{}, vErr
	}

	today := s.today()
	key := calendarCacheKey(year, month, today)
	if view, ok := s.cache.Get(key); ok {
		return view, nil
	}

	grid := calendar.MonthGrid(year, month)
	sessions, err := s.listSessions(ctx, SessionFilter{
		From: grid[0].Date.AddDays(-1),
		To:   grid[len(grid)-1].Date.AddDays(1),
	})
	if err != nil {
		return CalendarView{}, err
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return CalendarView{}, mapUserRepoError(err)
	}

	snapshot := toSchedulerSessions(sessions)
	index := userIndex(users)
	byID := sessionsByID(sessions)

	view := CalendarView{Year: year, Month: month, Today: today, Days: make([]CalendarDay, len(grid))}
	for i, cell := range grid {
		view.Days[i] = CalendarDay{
			Date:           cell.Date,
			DayOfMonth:     cell.DayOfMonth,
			IsCurrentMonth: cell.IsCurrentMonth,
			IsToday:        cell.Date.Equal(today),
			IsPast:         cell.Date.Before(today),
			Match:          toDayMatch(scheduler.MatchDate(snapshot, cell.Date, index), byID),
		}
	}

	s.cache.Store(key, view)
	return view, nil
}

// MatchDate returns the session covering date, if any.
func (s *SessionService) MatchDate(ctx context.Context, principal Principal, date calendar.Date) (DayMatch, error) {
	if err := s.ready(); err != nil {
		return DayMatch{}, err
	}
	if principal.UserID == "" {
		return DayMatch{}, ErrUnauthorized
	}
	if date.IsZero() {
		return DayMatch{}, fieldError("date", "date is required")
	}

	sessions, err := s.listSessions(ctx, SessionFilter{From: date.AddDays(-1), To: date.AddDays(1)})
	if err != nil {
		return DayMatch{}, err
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return DayMatch{}, mapUserRepoError(err)
	}
	m := scheduler.MatchDate(toSchedulerSessions(sessions), date, userIndex(users))
	return toDayMatch(m, sessionsByID(sessions)), nil
}

// Overlaps reports every pair of sessions whose windows share days.
func (s *SessionService) Overlaps(ctx context.Context, principal Principal) ([]Overlap, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if !principal.IsAdmin {
		return nil, ErrUnauthorized
	}

	sessions, err := s.listSessions(ctx, SessionFilter{})
	if err != nil {
		return nil, err
	}
	byID := sessionsByID(sessions)

	detected := scheduler.DetectOverlaps(toSchedulerSessions(sessions))
	out := make([]Overlap, 0, len(detected))
	for _, o := range detected {
		out = append(out, Overlap{
			First:      byID[o.First.ID],
			Second:     byID[o.Second.ID],
			SharedDays: o.SharedDays,
		})
	}
	return out, nil
}

func (s *SessionService) listSessions(ctx context.Context, filter SessionFilter) ([]Session, error) {
	sessions, err := s.sessions.ListSessions(ctx, filter)
	if err != nil {
		return nil, mapSessionRepoError(err)
	}
	out := make([]Session, len(sessions))
	copy(out, sessions)
	sortSessions(out)
	return out, nil
}

func (s *SessionService) ensureDateAvailable(ctx context.Context, date calendar.Date) error {
	_, err := s.sessions.GetSessionByDate(ctx, date)
	switch {
	case err == nil:
		return ErrAlreadyExists
	case isNotFoundError(err):
		return nil
	default:
		return mapSessionRepoError(err)
	}
}

func (s *SessionService) save(ctx context.Context, existing Session, next scheduler.Session) (Session, error) {
	updated := applySchedulerSession(existing, next)
	updated.UpdatedAt = s.now()
	persisted, err := s.sessions.UpdateSession(ctx, updated)
	if err != nil {
		return Session{}, mapSessionRepoError(err)
	}
	s.cache.Invalidate()
	return persisted, nil
}

func (s *SessionService) notifyAssistance(ctx context.Context, session Session) NotificationOutcome {
	if s.notifier == nil {
		return NotificationOutcome{}
	}
	outcome := NotificationOutcome{Attempted: true}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		outcome.Err = mapUserRepoError(err)
		return outcome
	}
	sortUsers(users)

	req := AssistanceRequest{
		SessionID:   session.ID,
		Assignee:    User{ID: session.UserID},
		PrimaryDate: session.Date,
		ArrivalDay:  session.ArrivalDay,
		ArrivalDate: scheduler.ArrivalDate(toSchedulerSession(session)),
		ArrivalTime: session.ArrivalTime,
	}
	for _, u := range users {
		if u.ID == session.UserID {
			req.Assignee = u
		}
		if u.IsAdmin {
			req.Admins = append(req.Admins, u)
		}
	}

	if err := s.notifier.NotifyAssistance(ctx, req); err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Sent = true
	return outcome
}

func canActOn(principal Principal, session Session) bool {
	if principal.UserID == "" {
		return false
	}
	return principal.IsAdmin || (session.UserID != "" && session.UserID == principal.UserID)
}

func coverageRecipients(users []User, assigneeID string) []User {
	var out []User
	for _, u := range users {
		if u.IsAdmin || u.ID == assigneeID {
			continue
		}
		out = append(out, u)
	}
	return out
}

func overlapWarnings(neighbours []Session, created Session) []OverlapWarning {
	overlaps := scheduler.OverlapsWith(toSchedulerSessions(neighbours), toSchedulerSession(created))
	if len(overlaps) == 0 {
		return nil
	}
	warnings := make([]OverlapWarning, 0, len(overlaps))
	for _, o := range overlaps {
		other := o.Second
		if other.ID == created.ID {
			other = o.First
		}
		warnings = append(warnings, OverlapWarning{
			SessionID:  other.ID,
			Date:       other.Date,
			SharedDays: o.SharedDays,
		})
	}
	return warnings
}

func toDayMatch(m scheduler.Match, byID map[string]Session) DayMatch {
	if !m.Found {
		return DayMatch{}
	}
	out := DayMatch{
		Found:          true,
		Session:        byID[m.Session.ID],
		Position:       m.Position,
		Status:         m.Status(),
		Label:          m.Label(),
		UnresolvedUser: m.UnresolvedUser,
	}
	if m.Assignee != nil {
		out.AssigneeName = m.Assignee.Name
	}
	if len(m.Overlapping) > 0 {
		out.Overlapping = append([]string(nil), m.Overlapping...)
	}
	return out
}

func sessionsByID(sessions []Session) map[string]Session {
	byID := make(map[string]Session, len(sessions))
	for _, s := range sessions {
		byID[s.ID] = s
	}
	return byID
}

func sortSessions(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if c := sessions[i].Date.Compare(sessions[j].Date); c != 0 {
			return c < 0
		}
		return sessions[i].ID < sessions[j].ID
	})
}

func validateSeries(params SeriesParams) *ValidationError {
	vErr := &ValidationError{}
	if params.Start.IsZero() {
		vErr.Add("start", "start date is required")
	}
	if params.Until.IsZero() {
		vErr.Add("until", "until date is required")
	}
	if !params.Start.IsZero() && !params.Until.IsZero() && params.Until.Before(params.Start) {
		vErr.Add("until", "until must not be before start")
	}
	if params.IntervalWeeks < 0 {
		vErr.Add("interval_weeks", "interval must be positive")
	}
	return vErr
}

func mapRecurrenceError(err error) error {
	switch {
	case errors.Is(err, recurrence.ErrTooManyOccurrences):
		return fieldError("until", fmt.Sprintf("series may not exceed %d sessions", recurrence.MaxOccurrences))
	case errors.Is(err, recurrence.ErrInvalidInterval):
		return fieldError("interval_weeks", "interval must be positive")
	case errors.Is(err, recurrence.ErrInvalidWindow):
		return fieldError("until", "until must not be before start")
	}
	return err
}

func mapLifecycleError(err error) error {
	switch {
	case errors.Is(err, scheduler.ErrInvalidTransition):
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	case errors.Is(err, scheduler.ErrArrivalTimeRequired):
		return fieldError("arrival_time", "arrival time is required when assistance is needed")
	case errors.Is(err, calendar.ErrInvalidArrivalDay):
		return fieldError("arrival_day", "arrival day must be before, primary or after")
	case errors.Is(err, scheduler.ErrUserRequired):
		return fieldError("user_id", "user is required")
	}
	return err
}

func mapSessionRepoError(err error) error {
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
		return fieldError("session", "session fields are inconsistent")
	}
	return err
}
