package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tokobase/tokobase/internal/observability"
	"github.com/tokobase/tokobase/internal/platform/httpx"
	"github.com/tokobase/tokobase/internal/session"
	"github.com/tokobase/tokobase/internal/shared"
)

// Guard gate-checks requested actions against the session's effective
// permission set. Every failure path is a deny: missing session, unassigned
// role, unknown action, and storage errors all yield false.
type Guard struct {
	Service *Service
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Authorize reports whether the session's user may perform the action.
func (g Guard) Authorize(ctx context.Context, sess *session.Session, action string) bool {
	if sess == nil {
		return false
	}
	if !shared.IsKnownAction(action) {
		if g.Logger != nil {
			g.Logger.Error("authorize called with unregistered action", slog.String("action", action))
		}
		return false
	}
	granted, err := g.Service.EffectivePermissionsForUser(ctx, sess.UserID)
	if err != nil {
		if g.Logger != nil {
			g.Logger.Error("load effective permissions", slog.Int64("user_id", sess.UserID), slog.Any("error", err))
		}
		return false
	}
	for _, a := range granted {
		if a == action {
			return true
		}
	}
	return false
}

// Require builds middleware denying requests whose session lacks the action.
func (g Guard) Require(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := session.FromContext(r.Context())
			if sess == nil {
				httpx.RespondError(w, shared.ErrSessionInvalid)
				return
			}
			if !g.Authorize(r.Context(), sess, action) {
				g.Metrics.ObserveDenial(action)
				httpx.RespondError(w, shared.ErrPermissionDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
