package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokobase/tokobase/internal/session"
	"github.com/tokobase/tokobase/internal/shared"
)

func guardFixture(t *testing.T) (*mockRepository, Guard, *session.Session) {
	t.Helper()
	repo := newMockRepository()
	viewPerm := repo.addPermission(shared.ActionViewSales)
	role := repo.addRole("Kasir")
	repo.grants[role.ID][viewPerm.ID] = struct{}{}
	role.GrantsVersion = 1
	roleID := role.ID
	repo.userRoles[5] = &roleID
	guard := Guard{Service: NewService(repo, nil, nil, nil)}
	sess := &session.Session{ID: 1, Token: "tok", UserID: 5, IsActive: true}
	return repo, guard, sess
}

func TestAuthorizeGrantedAndDenied(t *testing.T) {
	_, guard, sess := guardFixture(t)
	ctx := context.Background()

	assert.True(t, guard.Authorize(ctx, sess, shared.ActionViewSales))
	assert.False(t, guard.Authorize(ctx, sess, shared.ActionEditSales))
}

func TestAuthorizeMissingSession(t *testing.T) {
	_, guard, _ := guardFixture(t)

	assert.False(t, guard.Authorize(context.Background(), nil, shared.ActionViewSales))
}

func TestAuthorizeUnknownActionFailsClosed(t *testing.T) {
	_, guard, sess := guardFixture(t)

	assert.False(t, guard.Authorize(context.Background(), sess, "view_salse"))
}

func TestAuthorizeUserWithoutRole(t *testing.T) {
	repo, guard, sess := guardFixture(t)
	repo.userRoles[sess.UserID] = nil

	assert.False(t, guard.Authorize(context.Background(), sess, shared.ActionViewSales))
}

func TestAuthorizeStorageErrorFailsClosed(t *testing.T) {
	repo, guard, sess := guardFixture(t)
	repo.actionsErr = assert.AnError

	assert.False(t, guard.Authorize(context.Background(), sess, shared.ActionViewSales))
}

func TestRequireMiddleware(t *testing.T) {
	_, guard, sess := guardFixture(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("no session yields 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sales", nil)
		res := httptest.NewRecorder()
		guard.Require(shared.ActionViewSales)(next).ServeHTTP(res, req)
		require.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("missing permission yields 403", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/sales", nil)
		req = req.WithContext(session.ContextWith(req.Context(), sess))
		res := httptest.NewRecorder()
		guard.Require(shared.ActionEditSales)(next).ServeHTTP(res, req)
		require.Equal(t, http.StatusForbidden, res.Code)
	})

	t.Run("granted permission passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sales", nil)
		req = req.WithContext(session.ContextWith(req.Context(), sess))
		res := httptest.NewRecorder()
		guard.Require(shared.ActionViewSales)(next).ServeHTTP(res, req)
		require.Equal(t, http.StatusOK, res.Code)
	})
}
