package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tokobase/tokobase/internal/shared"
)

// Options configures the session lifecycle.
type Options struct {
	CookieName  string
	IdleTTL     time.Duration
	AbsoluteTTL time.Duration
	Secure      bool
}

// Manager owns the session lifecycle: token issuance, validation with sliding
// expiration, and revocation. Sessions are rows in Postgres; expired ones are
// rejected lazily on the next validate, no sweeper required for correctness.
type Manager struct {
	repo    Repository
	logger  *slog.Logger
	opts    Options
	nowFunc func() time.Time
}

// NewManager constructs a Manager.
func NewManager(repo Repository, logger *slog.Logger, opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = "tokobase_session"
	}
	return &Manager{repo: repo, logger: logger, opts: opts, nowFunc: func() time.Time { return time.Now().UTC() }}
}

// Create issues a fresh unguessable token and persists an active session row.
func (m *Manager) Create(ctx context.Context, userID int64) (string, error) {
	token := m.generateToken()
	if _, err := m.repo.Insert(ctx, token, userID, m.nowFunc()); err != nil {
		return "", shared.WrapStorage("session insert", err)
	}
	return token, nil
}

// Validate resolves a token to its session. Unknown, revoked, or
// inactive-owner sessions fail with ErrSessionInvalid; timed-out ones are
// deactivated and fail with ErrSessionExpired. Success slides last_activity
// forward (best effort, last write wins).
func (m *Manager) Validate(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, shared.ErrSessionInvalid
	}
	sess, ownerActive, err := m.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrSessionInvalid
		}
		return nil, shared.WrapStorage("session find", err)
	}
	if !sess.IsActive || !ownerActive {
		return nil, shared.ErrSessionInvalid
	}
	now := m.nowFunc()
	if m.expired(sess, now) {
		if _, err := m.repo.Deactivate(ctx, token); err != nil && m.logger != nil {
			m.logger.Warn("deactivate expired session", slog.Any("error", err))
		}
		return nil, shared.ErrSessionExpired
	}
	if err := m.repo.Touch(ctx, token, now); err != nil && m.logger != nil {
		m.logger.Warn("touch session", slog.Any("error", err))
	}
	sess.LastActivity = now
	return sess, nil
}

// Invalidate revokes a session. Idempotent: revoking an unknown or already
// revoked token is not an error and reports false.
func (m *Manager) Invalidate(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	ok, err := m.repo.Deactivate(ctx, token)
	if err != nil {
		return false, shared.WrapStorage("session deactivate", err)
	}
	return ok, nil
}

// InvalidateAllForUser revokes every session of a user, used on password
// change and administrative lockout.
func (m *Manager) InvalidateAllForUser(ctx context.Context, userID int64) error {
	if err := m.repo.DeactivateAllForUser(ctx, userID); err != nil {
		return shared.WrapStorage("session deactivate all", err)
	}
	return nil
}

// CookieName returns the configured session cookie name.
func (m *Manager) CookieName() string {
	return m.opts.CookieName
}

// TokenFromRequest extracts the bearer token from the session cookie.
func (m *Manager) TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(m.opts.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// WriteCookie sets the session cookie on the response.
func (m *Manager) WriteCookie(w http.ResponseWriter, token string) {
	maxAge := 0
	if m.opts.AbsoluteTTL > 0 {
		maxAge = int(m.opts.AbsoluteTTL / time.Second)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCookie removes the session cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (m *Manager) expired(sess *Session, now time.Time) bool {
	if m.opts.IdleTTL > 0 && now.Sub(sess.LastActivity) > m.opts.IdleTTL {
		return true
	}
	if m.opts.AbsoluteTTL > 0 && now.Sub(sess.CreatedAt) > m.opts.AbsoluteTTL {
		return true
	}
	return false
}

func (m *Manager) generateToken() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// rand failing means the platform is broken; uuid already failed too.
		panic("session: no entropy source available")
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
