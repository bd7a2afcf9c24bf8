package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/mowing-roster/internal/application"
	"github.com/example/mowing-roster/internal/calendar"
)

type calendarService interface {
	CalendarMonth(ctx context.Context, principal application.Principal, year int, month time.Month) (application.CalendarView, error)
	MatchDate(ctx context.Context, principal application.Principal, date calendar.Date) (application.DayMatch, error)
	Overlaps(ctx context.Context, principal application.Principal) ([]application.Overlap, error)
}

// CalendarHandler serves the read-only calendar views.
type CalendarHandler struct {
	service   calendarService
	responder responder
	logger    *slog.Logger
}

func NewCalendarHandler(service calendarService, logger *slog.Logger) *CalendarHandler {
	base := defaultLogger(logger)
	return &CalendarHandler{service: service, responder: newResponder(base), logger: base}
}

// Month serves GET /api/calendar?year=&month=.
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	vErr := &application.ValidationError{}
	year := parseIntField(vErr, "year", query.Get("year"))
	month := parseIntField(vErr, "month", query.Get("month"))
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	view, err := h.service.CalendarMonth(r.Context(), principal, year, time.Month(month))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toCalendarDTO(view))
}

// Match serves GET /api/calendar/match?date=.
func (h *CalendarHandler) Match(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	vErr := &application.ValidationError{}
	date := parseDateField(vErr, "date", r.URL.Query().Get("date"), true)
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	m, err := h.service.MatchDate(r.Context(), principal, date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, matchResponse{Date: date.String(), Match: toMatchDTO(m)})
}

// Overlaps serves GET /api/overlaps.
func (h *CalendarHandler) Overlaps(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	overlaps, err := h.service.Overlaps(r.Context(), principal)
	if err != nil {
		handlerLogger(r.Context(), h.logger, "CalendarHandler", "Overlaps").
			ErrorContext(r.Context(), "overlap report failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]overlapDTO, 0, len(overlaps))
	for _, o := range overlaps {
		out = append(out, overlapDTO{
			First:      toSessionDTO(o.First),
			Second:     toSessionDTO(o.Second),
			SharedDays: dateStrings(o.SharedDays),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, overlapsResponse{Overlaps: out})
}

func parseIntField(vErr *application.ValidationError, field, value string) int {
	value = strings.TrimSpace(value)
	if value == "" {
		vErr.Add(field, field+" is required")
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		vErr.Add(field, field+" must be a number")
		return 0
	}
	return n
}

type calendarDTO struct {
	Year  int              `json:"year"`
	Month int              `json:"month"`
	Today string           `json:"today"`
	Days  []calendarDayDTO `json:"days"`
}

type calendarDayDTO struct {
	Date           string   `json:"date"`
	Day            int      `json:"day"`
	IsCurrentMonth bool     `json:"is_current_month"`
	IsToday        bool     `json:"is_today"`
	IsPast         bool     `json:"is_past"`
	Match          matchDTO `json:"match"`
}

type matchDTO struct {
	Found          bool        `json:"found"`
	Session        *sessionDTO `json:"session,omitempty"`
	Position       string      `json:"position,omitempty"`
	Status         string      `json:"status,omitempty"`
	Label          string      `json:"label,omitempty"`
	AssigneeName   string      `json:"assignee_name,omitempty"`
	UnresolvedUser bool        `json:"unresolved_user,omitempty"`
	Overlapping    []string    `json:"overlapping,omitempty"`
}

type matchResponse struct {
	Date  string   `json:"date"`
	Match matchDTO `json:"match"`
}

type overlapDTO struct {
	First      sessionDTO `json:"first"`
	Second     sessionDTO `json:"second"`
	SharedDays []string   `json:"shared_days"`
}

type overlapsResponse struct {
	Overlaps []overlapDTO `json:"overlaps"`
}

func toMatchDTO(m application.DayMatch) matchDTO {
	if !m.Found {
		return matchDTO{}
	}
	session := toSessionDTO(m.Session)
	return matchDTO{
		Found:          true,
		Session:        &session,
		Position:       string(m.Position),
		Status:         string(m.Status),
		Label:          m.Label,
		AssigneeName:   m.AssigneeName,
		UnresolvedUser: m.UnresolvedUser,
		Overlapping:    m.Overlapping,
	}
}

func toCalendarDTO(view application.CalendarView) calendarDTO {
	out := calendarDTO{
		Year:  view.Year,
		Month: int(view.Month),
		Today: view.Today.String(),
		Days:  make([]calendarDayDTO, 0, len(view.Days)),
	}
	for _, d := range view.Days {
		out.Days = append(out.Days, calendarDayDTO{
			Date:           d.Date.String(),
			Day:            d.DayOfMonth,
			IsCurrentMonth: d.IsCurrentMonth,
			IsToday:        d.IsToday,
			IsPast:         d.IsPast,
			Match:          toMatchDTO(d.Match),
		})
	}
	return out
}
