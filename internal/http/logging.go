package http

import (
	"context"
	"log/slog"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// handlerLogger scopes the request logger to one handler operation. The
// caller's principal and any session or user id taken from the path are
// attached when present.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
	}

	pairs := make([]any, 0, 8+len(attrs))
	pairs = append(pairs, "handler", handlerName, "operation", operation)
	if principal, ok := PrincipalFromContext(ctx); ok {
		pairs = append(pairs, "principal_id", principal.UserID, "principal_admin", principal.IsAdmin)
	}
	if id, ok := SessionIDFromContext(ctx); ok {
		pairs = append(pairs, "session_id", id)
	}
	if id, ok := UserIDFromContext(ctx); ok {
		pairs = append(pairs, "user_id", id)
	}
	return logger.With(append(pairs, attrs...)...)
}
