package scheduler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/mowing-roster/internal/calendar"
)

var (
	// ErrInvalidTransition indicates the session state does not allow the operation.
	ErrInvalidTransition = errors.New("scheduler: invalid state transition")
	// ErrUserRequired indicates an assignment without a user.
	ErrUserRequired = errors.New("scheduler: user is required")
	// ErrArrivalTimeRequired indicates an assistance request without an arrival time.
	ErrArrivalTimeRequired = errors.New("scheduler: arrival time is required when assistance is needed")
)

// Confirmation carries the arrival details supplied when confirming.
type Confirmation struct {
	NeedsAssistance bool
	ArrivalDay      calendar.ArrivalDay
	ArrivalTime     string
}

// Assign links userID to the session. Assigning a different user to an
// assigned or confirmed session replaces the assignee and drops the previous
// confirmation; assigning the current assignee leaves the session unchanged.
func Assign(s Session, userID string) (Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return s, ErrUserRequired
	}
	if s.UserID == userID {
		return s, nil
	}
	next := clearConfirmation(s)
	next.UserID = userID
	return next, nil
}

// Confirm moves an assigned session to confirmed. Arrival details are kept
// only when assistance is requested.
func Confirm(s Session, c Confirmation) (Session, error) {
	if s.Status() == StatusUnassigned {
		return s, fmt.Errorf("%w: cannot confirm an unassigned session", ErrInvalidTransition)
	}

	next := s
	next.Confirmed = true
	next.NeedsAssistance = c.NeedsAssistance

	if !c.NeedsAssistance {
		next.ArrivalDay = ""
		next.ArrivalTime = ""
		return next, nil
	}

	day := calendar.ArrivalPrimary
	if strings.TrimSpace(string(c.ArrivalDay)) != "" {
		parsed, err := calendar.ParseArrivalDay(string(c.ArrivalDay))
		if err != nil {
			return s, err
		}
		day = parsed
	}
	arrival := strings.TrimSpace(c.ArrivalTime)
	if arrival == "" {
		return s, ErrArrivalTimeRequired
	}

	next.ArrivalDay = day
	next.ArrivalTime = arrival
	return next, nil
}

// Withdraw returns an assigned or confirmed session to unassigned.
func Withdraw(s Session) (Session, error) {
	if s.Status() == StatusUnassigned {
		return s, fmt.Errorf("%w: session is not assigned", ErrInvalidTransition)
	}
	next := clearConfirmation(s)
	next.UserID = ""
	return next, nil
}

// ArrivalDate is the concrete day the assignee arrives on.
func ArrivalDate(s Session) calendar.Date {
	return s.Window().ArrivalDate(s.ArrivalDay)
}

func clearConfirmation(s Session) Session {
	s.Confirmed = false
	s.ArrivalDay = ""
	s.ArrivalTime = ""
	s.NeedsAssistance = false
	return s
}
