package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"strings"

	"github.com/example/mowing-roster/internal/application"
)

var (
	errBadRequestBody      = errors.New("invalid request body")
	errInvalidUserID       = errors.New("invalid user id")
	errInvalidSessionID    = errors.New("invalid session id")
	errMissingSessionToken = errors.New("authentication token is required")
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// decodeJSON reads req's body into dst. It answers 400 and returns false when
// the body is not valid JSON.
func (r responder) decodeJSON(w http.ResponseWriter, req *http.Request, logger *slog.Logger, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes)).Decode(dst); err != nil {
		logger.ErrorContext(req.Context(), "failed to decode request body", "error", err, "error_kind", "bad_request")
		r.writeError(req.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return false
	}
	return true
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := statusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// serviceErrors maps application sentinels to responses. Earlier entries
// win when an error wraps more than one sentinel.
var serviceErrors = []struct {
	target error
	status int
	body   errorResponse
}{
	{application.ErrInvalidCredentials, http.StatusUnauthorized, errorResponse{ErrorCode: "AUTH_INVALID_CREDENTIALS", Message: "Invalid name or password."}},
	{application.ErrSessionExpired, http.StatusUnauthorized, errorResponse{ErrorCode: "AUTH_SESSION_EXPIRED", Message: "Your login has expired. Please log in again."}},
	{application.ErrProtectedUser, http.StatusForbidden, errorResponse{ErrorCode: "USER_PROTECTED", Message: "Admin users cannot be deleted or demoted."}},
	{application.ErrUnauthorized, http.StatusForbidden, errorResponse{ErrorCode: "AUTH_FORBIDDEN", Message: statusMessage(http.StatusForbidden)}},
	{application.ErrNotFound, http.StatusNotFound, errorResponse{Message: statusMessage(http.StatusNotFound)}},
	{application.ErrAlreadyExists, http.StatusConflict, errorResponse{ErrorCode: "ALREADY_EXISTS", Message: "A record with the same name or date already exists."}},
	{application.ErrInvalidTransition, http.StatusConflict, errorResponse{ErrorCode: "INVALID_TRANSITION", Message: "The session is not in a state that allows this action."}},
	{application.ErrNotificationFailed, http.StatusBadGateway, errorResponse{ErrorCode: "NOTIFICATION_FAILED", Message: "The email could not be sent."}},
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			r.writeJSON(ctx, w, m.status, m.body)
			return
		}
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: statusMessage(http.StatusUnprocessableEntity),
			Errors:  validationDetails(vErr),
		})
		return
	}

	if err == nil {
		err = errors.New("unknown error")
	}
	r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
	r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: statusMessage(http.StatusInternalServerError)})
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "The request is malformed."
	case http.StatusUnauthorized:
		return "Authentication required."
	case http.StatusForbidden:
		return "You are not allowed to perform this action."
	case http.StatusNotFound:
		return "The requested resource was not found."
	case http.StatusConflict:
		return "The request conflicts with the current state of the resource."
	case http.StatusUnprocessableEntity:
		return "The submitted data is invalid."
	default:
		return "An internal server error occurred."
	}
}

func validationDetails(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}
	return maps.Clone(vErr.FieldErrors)
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
