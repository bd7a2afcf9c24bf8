// Package scheduler holds the pure roster rules: which session covers a
// calendar day, which windows collide, and how a session moves between
// unassigned, assigned and confirmed. Nothing here touches storage or time.Now.
package scheduler

import "github.com/example/mowing-roster/internal/calendar"

// Status is the derived assignment state of a session.
type Status string

const (
	StatusUnassigned Status = "unassigned"
	StatusAssigned   Status = "assigned"
	StatusConfirmed  Status = "confirmed"
)

// Session is the scheduling view of a mowing session.
type Session struct {
	ID              string
	Date            calendar.Date
	UserID          string
	Confirmed       bool
	ArrivalDay      calendar.ArrivalDay
	ArrivalTime     string
	NeedsAssistance bool
}

// Status derives the state from the assignee and confirmation flag.
func (s Session) Status() Status {
	switch {
	case s.UserID == "":
		return StatusUnassigned
	case s.Confirmed:
		return StatusConfirmed
	default:
		return StatusAssigned
	}
}

// Window returns the three days the session occupies.
func (s Session) Window() calendar.Window {
	return calendar.WindowFor(s.Date)
}

// User is the minimal assignee projection needed for labelling.
type User struct {
	ID   string
	Name string
}

// UserLookup resolves assignee references.
type UserLookup interface {
	LookupUser(id string) (User, bool)
}

// UserIndex is a map backed UserLookup.
type UserIndex map[string]User

// LookupUser implements UserLookup.
func (idx UserIndex) LookupUser(id string) (User, bool) {
	if idx == nil {
		return User{}, false
	}
	u, ok := idx[id]
	return u, ok
}

// NewUserIndex builds an index keyed by user ID.
func NewUserIndex(users []User) UserIndex {
	idx := make(UserIndex, len(users))
	for _, u := range users {
		idx[u.ID] = u
	}
	return idx
}
