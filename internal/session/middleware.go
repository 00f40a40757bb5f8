package session

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tokobase/tokobase/internal/platform/httpx"
	"github.com/tokobase/tokobase/internal/shared"
)

// Middleware wires session resolution into the HTTP stack.
type Middleware struct {
	Manager *Manager
	Logger  *slog.Logger
}

// Attach resolves the session cookie and stores the validated session in the
// request context. Requests without a valid session continue unauthenticated;
// guards further down decide whether that matters.
func (m Middleware) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := m.Manager.TokenFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		sess, err := m.Manager.Validate(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, shared.ErrSessionInvalid), errors.Is(err, shared.ErrSessionExpired):
				m.Manager.ClearCookie(w)
			default:
				if m.Logger != nil {
					m.Logger.Error("validate session", slog.Any("error", err))
				}
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWith(r.Context(), sess)))
	})
}

// RequireAuthenticated rejects requests without a validated session.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) == nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Sesi tidak valid, silakan masuk kembali")
			return
		}
		next.ServeHTTP(w, r)
	})
}
