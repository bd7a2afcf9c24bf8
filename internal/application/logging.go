package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/mowing-roster/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// serviceLogger prefers the request-scoped logger so request_id carries
// through to service log lines.
func serviceLogger(ctx context.Context, base *slog.Logger, service, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = defaultLogger(base)
	}
	return logger.With(append([]any{"service", service, "operation", operation}, attrs...)...)
}

var errorKinds = []struct {
	target error
	kind   string
}{
	{ErrUnauthorized, "unauthorized"},
	{ErrNotFound, "not_found"},
	{ErrAlreadyExists, "already_exists"},
	{ErrInvalidCredentials, "invalid_credentials"},
	{ErrSessionExpired, "session_expired"},
	{ErrProtectedUser, "protected_user"},
	{ErrInvalidTransition, "invalid_transition"},
	{ErrNotificationFailed, "notification_failed"},
	{context.Canceled, "canceled"},
	{context.DeadlineExceeded, "canceled"},
}

// ErrorKind labels err for the error_kind log attribute.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.kind
		}
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	return "unexpected"
}
