package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokobase/tokobase/internal/session"
	"github.com/tokobase/tokobase/internal/shared"
)

type memSessionRepo struct {
	rows        map[string]*session.Session
	ownerActive map[int64]bool
	nextID      int64
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{rows: map[string]*session.Session{}, ownerActive: map[int64]bool{}, nextID: 1}
}

func (m *memSessionRepo) Insert(_ context.Context, token string, userID int64, now time.Time) (*session.Session, error) {
	sess := &session.Session{ID: m.nextID, Token: token, UserID: userID, IsActive: true, CreatedAt: now, LastActivity: now}
	m.rows[token] = sess
	if _, ok := m.ownerActive[userID]; !ok {
		m.ownerActive[userID] = true
	}
	m.nextID++
	return sess, nil
}

func (m *memSessionRepo) FindByToken(_ context.Context, token string) (*session.Session, bool, error) {
	sess, ok := m.rows[token]
	if !ok {
		return nil, false, shared.ErrNotFound
	}
	clone := *sess
	return &clone, m.ownerActive[sess.UserID], nil
}

func (m *memSessionRepo) Touch(_ context.Context, token string, at time.Time) error {
	if sess, ok := m.rows[token]; ok {
		sess.LastActivity = at
	}
	return nil
}

func (m *memSessionRepo) Deactivate(_ context.Context, token string) (bool, error) {
	sess, ok := m.rows[token]
	if !ok || !sess.IsActive {
		return false, nil
	}
	sess.IsActive = false
	return true, nil
}

func (m *memSessionRepo) DeactivateAllForUser(_ context.Context, userID int64) error {
	for _, sess := range m.rows {
		if sess.UserID == userID {
			sess.IsActive = false
		}
	}
	return nil
}

func (m *memSessionRepo) DeleteInactiveBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	for token, sess := range m.rows {
		if !sess.IsActive && sess.LastActivity.Before(cutoff) {
			delete(m.rows, token)
			removed++
		}
	}
	return removed, nil
}

type handlerFixture struct {
	repo     *mockAuthRepo
	sessions *session.Manager
	csrf     *shared.CSRFManager
	handler  *Handler
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	repo := newMockAuthRepo()
	manager := session.NewManager(newMemSessionRepo(), discardLogger(), session.Options{
		IdleTTL:     time.Hour,
		AbsoluteTTL: 24 * time.Hour,
	})
	csrf := shared.NewCSRFManager("kunci-rahasia")
	service := NewService(repo, manager, nil, discardLogger())
	return &handlerFixture{
		repo:     repo,
		sessions: manager,
		csrf:     csrf,
		handler:  NewHandler(discardLogger(), service, manager, csrf, nil),
	}
}

func postLogin(t *testing.T, f *handlerFixture, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.handleLogin(rec, req)
	return rec
}

func TestLoginHandlerSuccess(t *testing.T) {
	f := newHandlerFixture(t)
	seedUser(f.repo, "budi@toko.id", hashOf(t, "rahasia-kuat"), true)

	rec := postLogin(t, f, `{"email":"budi@toko.id","password":"rahasia-kuat"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "budi@toko.id", resp.Email)
	assert.NotEmpty(t, resp.CSRFToken)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, f.sessions.CookieName(), cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, f.csrf.TokenFor(cookies[0].Value), resp.CSRFToken)
}

func TestLoginHandlerWrongPassword(t *testing.T) {
	f := newHandlerFixture(t)
	seedUser(f.repo, "budi@toko.id", hashOf(t, "rahasia-kuat"), true)

	rec := postLogin(t, f, `{"email":"budi@toko.id","password":"salah"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email atau password tidak valid")
	assert.Empty(t, rec.Result().Cookies())
}

func TestLoginHandlerInactiveAccountSameMessage(t *testing.T) {
	f := newHandlerFixture(t)
	seedUser(f.repo, "budi@toko.id", hashOf(t, "rahasia-kuat"), false)

	recInactive := postLogin(t, f, `{"email":"budi@toko.id","password":"rahasia-kuat"}`)
	recUnknown := postLogin(t, f, `{"email":"lain@toko.id","password":"rahasia-kuat"}`)

	assert.Equal(t, http.StatusUnauthorized, recInactive.Code)
	assert.Equal(t, http.StatusUnauthorized, recUnknown.Code)
	// An attacker probing accounts sees identical responses.
	assert.Equal(t, recUnknown.Body.String(), recInactive.Body.String())
}

func TestLoginHandlerMalformedBody(t *testing.T) {
	f := newHandlerFixture(t)

	rec := postLogin(t, f, `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutHandlerClearsCookieAndRevokes(t *testing.T) {
	f := newHandlerFixture(t)
	seedUser(f.repo, "budi@toko.id", hashOf(t, "rahasia-kuat"), true)

	login := postLogin(t, f, `{"email":"budi@toko.id","password":"rahasia-kuat"}`)
	require.Equal(t, http.StatusOK, login.Code)
	token := login.Result().Cookies()[0].Value

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: f.sessions.CookieName(), Value: token})
	rec := httptest.NewRecorder()
	f.handler.handleLogout(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)

	_, err := f.sessions.Validate(context.Background(), token)
	assert.ErrorIs(t, err, shared.ErrSessionInvalid)
}

func TestMeHandlerRequiresSession(t *testing.T) {
	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	f.handler.handleMe(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeHandlerReturnsCSRFToken(t *testing.T) {
	f := newHandlerFixture(t)
	sess := &session.Session{ID: 1, Token: "token-abc", UserID: 7, IsActive: true}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(session.ContextWith(req.Context(), sess))
	rec := httptest.NewRecorder()
	f.handler.handleMe(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(7), resp["user_id"])
	assert.Equal(t, f.csrf.TokenFor("token-abc"), resp["csrf_token"])
}
