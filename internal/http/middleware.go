package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/mowing-roster/internal/application"
)

// SessionValidator resolves a login token to the acting principal.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (application.Principal, error)
}

// requestIDHeader is echoed on every response so a report can be matched to
// its log lines.
const requestIDHeader = "X-Request-ID"

// rejectSession writes the 401 or 500 for a token that failed validation.
func rejectSession(w http.ResponseWriter, r *http.Request, resp responder, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, application.ErrSessionExpired):
		resp.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_EXPIRED",
			Message:   "Your login has expired. Please log in again.",
		})
	case errors.Is(err, application.ErrUnauthorized),
		errors.Is(err, application.ErrInvalidCredentials),
		errors.Is(err, application.ErrNotFound):
		// ErrNotFound: the token names a user who has since been deleted.
		resp.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_INVALID_SESSION",
			Message:   "Your login is no longer valid. Please log in again.",
		})
	default:
		resp.loggerFor(ctx).ErrorContext(ctx, "login token check failed", "error", err)
		resp.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: statusMessage(http.StatusInternalServerError)})
	}
}

// RequireSession guards the roster API: the bearer header or the login
// cookie must carry a valid token. The resolved principal is stored in the
// request context.
func RequireSession(validator SessionValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	resp := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractTokenFromRequest(r)
			if token == "" {
				resp.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
				return
			}

			principal, err := validator.ValidateSession(r.Context(), token)
			if err != nil {
				rejectSession(w, r, resp, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

// RequestLogger stores a logger tagged with the request id, method and path
// in the context and logs one line per completed request. A caller supplied
// X-Request-ID is kept; otherwise a UUID is generated.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	base = defaultLogger(base)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)

			logger := base.With("request_id", id, "method", r.Method, "path", r.URL.Path)
			ctx := ContextWithLogger(r.Context(), logger)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))

			level := slog.LevelInfo
			if rec.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(ctx, level, "request completed", "status", rec.status, "duration", time.Since(start))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}
