package application

import (
	"time"

	"github.com/example/mowing-roster/internal/calendar"
	"github.com/example/mowing-roster/internal/scheduler"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// User represents a roster volunteer or administrator.
type User struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	IsAdmin   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserInput captures caller provided user attributes. A nil IsAdmin leaves
// the flag unchanged on update and false on create.
type UserInput struct {
	Name    string
	Email   string
	Phone   string
	IsAdmin *bool
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update a user.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// Session is a mowing session keyed by its primary date.
type Session struct {
	ID              string
	Date            calendar.Date
	UserID          string
	Confirmed       bool
	ArrivalDay      calendar.ArrivalDay
	ArrivalTime     string
	NeedsAssistance bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Status derives the assignment state.
func (s Session) Status() scheduler.Status {
	return toSchedulerSession(s).Status()
}

// Window returns the three days the session occupies.
func (s Session) Window() calendar.Window {
	return calendar.WindowFor(s.Date)
}

// SessionFilter bounds a listing by primary date and optionally by assignee.
// Zero bounds are open.
type SessionFilter struct {
	From   calendar.Date
	To     calendar.Date
	UserID string
}

// OverlapWarning flags an existing session whose window shares days with a
// newly created one.
type OverlapWarning struct {
	SessionID  string
	Date       calendar.Date
	SharedDays []calendar.Date
}

// Overlap reports two stored sessions whose windows share days.
type Overlap struct {
	First      Session
	Second     Session
	SharedDays []calendar.Date
}

// SeriesParams describes a weekly run of sessions from Start to Until inclusive.
type SeriesParams struct {
	Start         calendar.Date
	Until         calendar.Date
	IntervalWeeks int
}

// SeriesResult lists what a series request created and which dates were
// already taken.
type SeriesResult struct {
	Created []Session
	Skipped []calendar.Date
}

// Confirmation carries the caller's confirm request.
type Confirmation struct {
	NeedsAssistance bool
	ArrivalDay      string
	ArrivalTime     string
}

// NotificationOutcome reports whether a best-effort email went out.
type NotificationOutcome struct {
	Attempted bool
	Sent      bool
	Err       error
}

// ConfirmResult is the confirmed session plus the assistance email outcome.
type ConfirmResult struct {
	Session      Session
	Notification NotificationOutcome
}

// CoverageResult lists who was asked to cover a session.
type CoverageResult struct {
	Session    Session
	Recipients []User
	// Redirected is set when the notifier delivered to its own account
	// instead of the recipients.
	Redirected bool
}

// DayMatch is the session matched to a single date.
type DayMatch struct {
	Found          bool
	Session        Session
	Position       calendar.Position
	Status         scheduler.Status
	Label          string
	AssigneeName   string
	UnresolvedUser bool
	Overlapping    []string
}

// CalendarDay is one cell of the month view.
type CalendarDay struct {
	Date           calendar.Date
	DayOfMonth     int
	IsCurrentMonth bool
	IsToday        bool
	IsPast         bool
	Match          DayMatch
}

// CalendarView is a 42-cell month grid annotated with sessions.
type CalendarView struct {
	Year  int
	Month time.Month
	Today calendar.Date
	Days  []CalendarDay
}

// LoginParams captures the data required to log in.
type LoginParams struct {
	Name     string
	Password string
}

// LoginResult is a successful login.
type LoginResult struct {
	User      User
	Token     string
	ExpiresAt time.Time
}

func toSchedulerSession(s Session) scheduler.Session {
	return scheduler.Session{
		ID:              s.ID,
		Date:            s.Date,
		UserID:          s.UserID,
		Confirmed:       s.Confirmed,
		ArrivalDay:      s.ArrivalDay,
		ArrivalTime:     s.ArrivalTime,
		NeedsAssistance: s.NeedsAssistance,
	}
}

func toSchedulerSessions(sessions []Session) []scheduler.Session {
	out := make([]scheduler.Session, len(sessions))
	for i, s := range sessions {
		out[i] = toSchedulerSession(s)
	}
	return out
}

// applySchedulerSession copies lifecycle fields back onto the record.
func applySchedulerSession(dst Session, src scheduler.Session) Session {
	dst.UserID = src.UserID
	dst.Confirmed = src.Confirmed
	dst.ArrivalDay = src.ArrivalDay
	dst.ArrivalTime = src.ArrivalTime
	dst.NeedsAssistance = src.NeedsAssistance
	return dst
}

func userIndex(users []User) scheduler.UserIndex {
	list := make([]scheduler.User, len(users))
	for i, u := range users {
		list[i] = scheduler.User{ID: u.ID, Name: u.Name}
	}
	return scheduler.NewUserIndex(list)
}
