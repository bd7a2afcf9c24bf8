// Package notify renders and delivers the roster's emails.
package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/example/mowing-roster/internal/application"
	"github.com/example/mowing-roster/internal/calendar"
)

const (
	longDateLayout  = "Monday, January 2, 2006"
	shortDateLayout = "Mon, Jan 2"
	rangeEndLayout  = "Mon, Jan 2, 2006"
	calendarLayout  = "20060102T150405Z"

	googleCalendarURL = "https://calendar.google.com/calendar/render"
	sessionDuration   = "2-3hr"
	assistanceLength  = 2 * time.Hour
)

// Message is a rendered email ready for delivery.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Settings are the site details substituted into every email.
type Settings struct {
	BaseURL  string
	Location string
}

type assistanceData struct {
	Name         string
	Email        string
	PrimaryDate  string
	ArrivalDate  string
	ArrivalTime  string
	Location     string
	CalendarLink string
}

type coverageData struct {
	Name     string
	Email    string
	Date     string
	Range    string
	Location string
	Duration string
	Link     string
}

var assistanceTemplate = template.Must(template.New("assistance").Parse(`<h2>Assistance Needed for Lawn Mowing Session</h2>
<p><strong>{{.Name}}</strong> ({{.Email}}) needs your assistance for their lawn mowing session.</p>
<h3>Session Details:</h3>
<ul>
<li><strong>Primary Date:</strong> {{.PrimaryDate}}</li>
<li><strong>Arrival Date:</strong> {{.ArrivalDate}}</li>
<li><strong>Arrival Time:</strong> {{.ArrivalTime}}</li>
<li><strong>Location:</strong> {{.Location}}</li>
</ul>
<p style="margin-top: 30px;">
<a href="{{.CalendarLink}}" style="background: #48bb78; color: white; padding: 15px 30px; text-decoration: none; border-radius: 8px; display: inline-block; font-weight: bold;">Add to Google Calendar</a>
</p>
`))

var coverageTemplate = template.Must(template.New("coverage").Parse(`<h2>Coverage Needed for Lawn Mowing Session</h2>
<p>Hi Team,</p>
{{if .Name}}<p><strong>{{.Name}}</strong> ({{.Email}}) needs coverage for the lawn mowing session.</p>
{{else}}<p>An open session needs a volunteer.</p>
{{end}}<h3>Session Details:</h3>
<ul>
<li><strong>Date:</strong> {{.Date}}</li>
<li><strong>Date Range:</strong> {{.Range}}</li>
<li><strong>Location:</strong> {{.Location}}</li>
<li><strong>Duration:</strong> {{.Duration}}</li>
</ul>
<p style="margin-top: 30px;">
<a href="{{.Link}}" style="background: #667eea; color: white; padding: 15px 30px; text-decoration: none; border-radius: 8px; display: inline-block; font-weight: bold;">View &amp; Assign Session</a>
</p>
<p style="color: #666; margin-top: 30px;">Thank you!</p>
`))

// RenderAssistance builds the email telling administrators that the assignee
// needs a hand on the arrival date.
func RenderAssistance(req application.AssistanceRequest, settings Settings) (Message, error) {
	to := emails(req.Admins)
	if len(to) == 0 {
		return Message{}, fmt.Errorf("notify: assistance request %s has no admin recipients", req.SessionID)
	}

	arrival := req.ArrivalDate.Format(longDateLayout)
	data := assistanceData{
		Name:         req.Assignee.Name,
		Email:        req.Assignee.Email,
		PrimaryDate:  req.PrimaryDate.Format(longDateLayout),
		ArrivalDate:  arrival,
		ArrivalTime:  req.ArrivalTime,
		Location:     settings.Location,
		CalendarLink: CalendarLink(req.Assignee.Name, req.ArrivalDate, arrival, req.ArrivalTime, settings.Location),
	}

	var body bytes.Buffer
	if err := assistanceTemplate.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("notify: render assistance email: %w", err)
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Assistance Needed: Lawn Mowing Session with %s", req.Assignee.Name),
		HTML:    body.String(),
	}, nil
}

// RenderCoverage builds the email asking recipients to take over a session.
func RenderCoverage(req application.CoverageRequest, settings Settings) (Message, error) {
	to := emails(req.Recipients)
	if len(to) == 0 {
		return Message{}, fmt.Errorf("notify: coverage request %s has no recipients", req.SessionID)
	}

	window := req.Window
	if window.Primary.IsZero() {
		window = calendar.WindowFor(req.Date)
	}
	data := coverageData{
		Date:     req.Date.Format(longDateLayout),
		Range:    DateRange(window),
		Location: settings.Location,
		Duration: sessionDuration,
		Link:     SessionLink(settings.BaseURL, req.SessionID),
	}
	if req.Assignee != nil {
		data.Name, data.Email = req.Assignee.Name, req.Assignee.Email
	}

	var body bytes.Buffer
	if err := coverageTemplate.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("notify: render coverage email: %w", err)
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Coverage Needed: Lawn Mowing Session on %s", data.Date),
		HTML:    body.String(),
	}, nil
}

// CalendarLink returns a Google Calendar template URL for a two hour event
// starting at midnight UTC on date.
func CalendarLink(name string, date calendar.Date, longDate, arrivalTime, location string) string {
	start := date.Time().UTC()
	end := start.Add(assistanceLength)

	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", "Lawn Mowing Assistance with "+name)
	q.Set("dates", start.Format(calendarLayout)+"/"+end.Format(calendarLayout))
	q.Set("details", fmt.Sprintf("%s needs help with lawn mowing session.\n\nAssistance requested for: %s at %s", name, longDate, arrivalTime))
	q.Set("location", location)
	return googleCalendarURL + "?" + q.Encode()
}

// DateRange formats a window as "Mon, Jan 2 - Wed, Jan 4, 2006".
func DateRange(w calendar.Window) string {
	return w.Before.Format(shortDateLayout) + " - " + w.After.Format(rangeEndLayout)
}

// SessionLink is the SPA deep link for a session.
func SessionLink(baseURL, sessionID string) string {
	return strings.TrimRight(baseURL, "/") + "/?session=" + url.QueryEscape(sessionID)
}

func emails(users []application.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		if e := strings.TrimSpace(u.Email); e != "" {
			out = append(out, e)
		}
	}
	return out
}
