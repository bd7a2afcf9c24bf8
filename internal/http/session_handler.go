package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/mowing-roster/internal/application"
	"github.com/example/mowing-roster/internal/calendar"
)

type sessionService interface {
	ListSessions(ctx context.Context, principal application.Principal, filter application.SessionFilter) ([]application.Session, error)
	GetSession(ctx context.Context, principal application.Principal, id string) (application.Session, error)
	CreateSession(ctx context.Context, principal application.Principal, date calendar.Date) (application.Session, []application.OverlapWarning, error)
	CreateSeries(ctx context.Context, principal application.Principal, params application.SeriesParams) (application.SeriesResult, error)
	AssignSession(ctx context.Context, principal application.Principal, sessionID, userID string) (application.Session, error)
	ConfirmSession(ctx context.Context, principal application.Principal, sessionID string, confirmation application.Confirmation) (application.ConfirmResult, error)
	WithdrawSession(ctx context.Context, principal application.Principal, sessionID string) (application.Session, error)
	RequestCoverage(ctx context.Context, principal application.Principal, sessionID string) (application.CoverageResult, error)
	DeleteSession(ctx context.Context, principal application.Principal, sessionID string) error
	MySessions(ctx context.Context, principal application.Principal) ([]application.Session, error)
}

type SessionHandler struct {
	service   sessionService
	responder responder
	logger    *slog.Logger
}

func NewSessionHandler(service sessionService, logger *slog.Logger) *SessionHandler {
	base := defaultLogger(logger)
	return &SessionHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SessionHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SessionHandler", operation, attrs...)
}

func (h *SessionHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *SessionHandler) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := SessionIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return "", false
	}
	return id, true
}

// List serves GET /api/sessions?from=&to=.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	vErr := &application.ValidationError{}
	from := parseDateField(vErr, "from", query.Get("from"), false)
	to := parseDateField(vErr, "to", query.Get("to"), false)
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	sessions, err := h.service.ListSessions(r.Context(), principal, application.SessionFilter{From: from, To: to})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSessionsResponse{Sessions: toSessionDTOs(sessions)})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	session, err := h.service.GetSession(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{Session: toSessionDTO(session)})
}

// Create serves POST /api/sessions. Overlap warnings are returned alongside
// the new session.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req createSessionRequest
	if !h.responder.decodeJSON(w, r, h.log(r.Context(), "Create"), &req) {
		return
	}

	vErr := &application.ValidationError{}
	date := parseDateField(vErr, "date", req.Date, true)
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	logger := h.log(r.Context(), "Create", "date", date.String())
	session, warnings, err := h.service.CreateSession(r.Context(), principal, date)
	if err != nil {
		logger.ErrorContext(r.Context(), "session creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("session_id", session.ID).InfoContext(r.Context(), "session created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, createSessionResponse{
		Session:  toSessionDTO(session),
		Warnings: toOverlapWarningDTOs(warnings),
	})
}

// CreateSeries serves POST /api/sessions/series.
func (h *SessionHandler) CreateSeries(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	logger := h.log(r.Context(), "CreateSeries")
	var req seriesRequest
	if !h.responder.decodeJSON(w, r, logger, &req) {
		return
	}

	vErr := &application.ValidationError{}
	params := application.SeriesParams{
		Start:         parseDateField(vErr, "start", req.Start, true),
		Until:         parseDateField(vErr, "until", req.Until, true),
		IntervalWeeks: req.IntervalWeeks,
	}
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	result, err := h.service.CreateSeries(r.Context(), principal, params)
	if err != nil {
		logger.ErrorContext(r.Context(), "series creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, seriesResponse{
		Created: toSessionDTOs(result.Created),
		Skipped: dateStrings(result.Skipped),
	})
}

// Assign serves PUT /api/sessions/{id} with {"user_id": "..."}; null or an
// empty string withdraws the assignee.
func (h *SessionHandler) Assign(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req assignRequest
	if !h.responder.decodeJSON(w, r, h.log(r.Context(), "Assign"), &req) {
		return
	}
	userID := ""
	if req.UserID != nil {
		userID = strings.TrimSpace(*req.UserID)
	}

	logger := h.log(r.Context(), "Assign", "assignee_id", userID)
	session, err := h.service.AssignSession(r.Context(), principal, id, userID)
	if err != nil {
		logger.ErrorContext(r.Context(), "session assignment failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "session assignment updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{Session: toSessionDTO(session)})
}

// Confirm serves PUT /api/sessions/{id}/confirm.
func (h *SessionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	logger := h.log(r.Context(), "Confirm")
	var req confirmRequest
	if !h.responder.decodeJSON(w, r, logger, &req) {
		return
	}

	result, err := h.service.ConfirmSession(r.Context(), principal, id, application.Confirmation{
		NeedsAssistance: req.NeedsAssistance,
		ArrivalDay:      strings.TrimSpace(req.ArrivalDay),
		ArrivalTime:     strings.TrimSpace(req.ArrivalTime),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "session confirmation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := confirmResponse{
		Session: toSessionDTO(result.Session),
		Notification: notificationDTO{
			Attempted: result.Notification.Attempted,
			Sent:      result.Notification.Sent,
		},
	}
	if result.Notification.Err != nil {
		resp.Notification.Error = "The assistance email could not be sent."
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

// Withdraw serves PUT /api/sessions/{id}/withdraw.
func (h *SessionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	session, err := h.service.WithdrawSession(r.Context(), principal, id)
	if err != nil {
		h.log(r.Context(), "Withdraw").
			ErrorContext(r.Context(), "withdraw failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{Session: toSessionDTO(session)})
}

// RequestCoverage serves POST /api/sessions/{id}/request-coverage.
func (h *SessionHandler) RequestCoverage(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "RequestCoverage")

	result, err := h.service.RequestCoverage(r.Context(), principal, id)
	if err != nil {
		logger.ErrorContext(r.Context(), "coverage request failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	names := make([]string, 0, len(result.Recipients))
	for _, u := range result.Recipients {
		names = append(names, u.Name)
	}
	message := "Email sent successfully"
	switch {
	case len(names) == 0:
		message = "There is nobody else to ask"
	case result.Redirected:
		message = "Email sent to testing account"
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, coverageResponse{Message: message, Recipients: names})
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteSession(r.Context(), principal, id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Roster serves GET /api/roster, the caller's upcoming sessions.
func (h *SessionHandler) Roster(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	sessions, err := h.service.MySessions(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSessionsResponse{Sessions: toSessionDTOs(sessions)})
}

// parseDateField records a validation error on vErr when value is not a
// YYYY-MM-DD date, or is empty and required.
func parseDateField(vErr *application.ValidationError, field, value string, required bool) calendar.Date {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			vErr.Add(field, field+" is required")
		}
		return calendar.Date{}
	}
	d, err := calendar.Parse(value)
	if err != nil {
		vErr.Add(field, field+" must be a YYYY-MM-DD date")
		return calendar.Date{}
	}
	return d
}

type createSessionRequest struct {
	Date string `json:"date"`
}

type seriesRequest struct {
	Start         string `json:"start"`
	Until         string `json:"until"`
	IntervalWeeks int    `json:"interval_weeks"`
}

type assignRequest struct {
	UserID *string `json:"user_id"`
}

type confirmRequest struct {
	NeedsAssistance bool   `json:"needs_assistance"`
	ArrivalDay      string `json:"arrival_day"`
	ArrivalTime     string `json:"arrival_time"`
}

type sessionResponse struct {
	Session sessionDTO `json:"session"`
}

type listSessionsResponse struct {
	Sessions []sessionDTO `json:"sessions"`
}

type createSessionResponse struct {
	Session  sessionDTO          `json:"session"`
	Warnings []overlapWarningDTO `json:"warnings,omitempty"`
}

type seriesResponse struct {
	Created []sessionDTO `json:"created"`
	Skipped []string     `json:"skipped"`
}

type confirmResponse struct {
	Session      sessionDTO      `json:"session"`
	Notification notificationDTO `json:"notification"`
}

type notificationDTO struct {
	Attempted bool   `json:"attempted"`
	Sent      bool   `json:"sent"`
	Error     string `json:"error,omitempty"`
}

type coverageResponse struct {
	Message    string   `json:"message"`
	Recipients []string `json:"recipients"`
}

type windowDTO struct {
	Before  string `json:"before"`
	Primary string `json:"primary"`
	After   string `json:"after"`
}

type sessionDTO struct {
	ID              string    `json:"id"`
	Date            string    `json:"date"`
	UserID          *string   `json:"user_id"`
	Status          string    `json:"status"`
	Confirmed       bool      `json:"confirmed"`
	ArrivalDay      string    `json:"arrival_day,omitempty"`
	ArrivalTime     string    `json:"arrival_time,omitempty"`
	NeedsAssistance bool      `json:"needs_assistance"`
	Window          windowDTO `json:"window"`
	CreatedAt       string    `json:"created_at"`
	UpdatedAt       string    `json:"updated_at"`
}

type overlapWarningDTO struct {
	SessionID  string   `json:"session_id"`
	Date       string   `json:"date"`
	SharedDays []string `json:"shared_days"`
}

func toWindowDTO(w calendar.Window) windowDTO {
	return windowDTO{Before: w.Before.String(), Primary: w.Primary.String(), After: w.After.String()}
}

func toSessionDTO(s application.Session) sessionDTO {
	dto := sessionDTO{
		ID:              s.ID,
		Date:            s.Date.String(),
		Status:          string(s.Status()),
		Confirmed:       s.Confirmed,
		ArrivalDay:      string(s.ArrivalDay),
		ArrivalTime:     s.ArrivalTime,
		NeedsAssistance: s.NeedsAssistance,
		Window:          toWindowDTO(s.Window()),
		CreatedAt:       s.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:       s.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if s.UserID != "" {
		userID := s.UserID
		dto.UserID = &userID
	}
	return dto
}

func toSessionDTOs(sessions []application.Session) []sessionDTO {
	out := make([]sessionDTO, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionDTO(s))
	}
	return out
}

func toOverlapWarningDTOs(warnings []application.OverlapWarning) []overlapWarningDTO {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]overlapWarningDTO, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, overlapWarningDTO{
			SessionID:  w.SessionID,
			Date:       w.Date.String(),
			SharedDays: dateStrings(w.SharedDays),
		})
	}
	return out
}

func dateStrings(dates []calendar.Date) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.String())
	}
	return out
}
