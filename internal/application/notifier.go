package application

import (
	"context"

	"github.com/example/mowing-roster/internal/calendar"
)

// Notifier delivers the roster's outbound emails.
type Notifier interface {
	NotifyAssistance(ctx context.Context, req AssistanceRequest) error
	NotifyCoverage(ctx context.Context, req CoverageRequest) error
}

// AssistanceRequest tells the administrators a volunteer needs a hand.
type AssistanceRequest struct {
	SessionID   string
	Assignee    User
	Admins      []User
	PrimaryDate calendar.Date
	ArrivalDay  calendar.ArrivalDay
	ArrivalDate calendar.Date
	ArrivalTime string
}

// CoverageRequest asks other volunteers to take over a session. Assignee is
// nil for an open session.
type CoverageRequest struct {
	SessionID  string
	Date       calendar.Date
	Window     calendar.Window
	Assignee   *User
	Recipients []User
}

// senderRedirector is implemented by notifiers that can reroute mail to their
// own account.
type senderRedirector interface {
	RedirectsToSender() bool
}
