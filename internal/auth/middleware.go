package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
)

type contextKey int

const sessionContextKey contextKey = iota

// RequireSession guards protected routes. The session's backing account is
// re-validated on every request, so disabling an account takes effect
// immediately rather than at session expiry.
func RequireSession(service *Service, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := SessionToken(r)
		if token == "" {
			writeError(w, ErrUnauthorized.Status, ErrUnauthorized.Code, ErrUnauthorized.Message)
			return
		}

		_, session, err := service.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, ErrUnauthorized) {
				writeError(w, ErrUnauthorized.Status, ErrUnauthorized.Code, ErrUnauthorized.Message)
				return
			}

			sentry.CaptureException(err)
			writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), session)))
	})
}

// ContextWithSession attaches the session the way RequireSession does.
func ContextWithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// SessionFromContext returns the session attached by RequireSession.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(*Session)
	return session, ok
}
