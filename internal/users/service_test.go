package users

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tokobase/tokobase/internal/rbac"
	"github.com/tokobase/tokobase/internal/shared"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockUserRepo struct {
	users    map[int64]User
	hashes   map[int64]string
	byEmail  map[string]int64
	nextID   int64
	failNext error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[int64]User{}, hashes: map[int64]string{}, byEmail: map[string]int64{}, nextID: 1}
}

func (m *mockUserRepo) take() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *mockUserRepo) ListUsers(_ context.Context) ([]User, error) {
	if err := m.take(); err != nil {
		return nil, err
	}
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockUserRepo) GetUser(_ context.Context, id int64) (User, error) {
	if err := m.take(); err != nil {
		return User{}, err
	}
	u, ok := m.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) CreateUser(_ context.Context, email, passwordHash, name string, roleID *int64) (User, error) {
	if err := m.take(); err != nil {
		return User{}, err
	}
	if _, exists := m.byEmail[email]; exists {
		return User{}, shared.ErrDuplicate
	}
	u := User{
		ID:        m.nextID,
		Email:     email,
		Name:      name,
		RoleID:    roleID,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.users[u.ID] = u
	m.hashes[u.ID] = passwordHash
	m.byEmail[email] = u.ID
	m.nextID++
	return u, nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	if err := m.take(); err != nil {
		return err
	}
	if _, ok := m.users[id]; !ok {
		return shared.ErrNotFound
	}
	m.hashes[id] = passwordHash
	return nil
}

func (m *mockUserRepo) SetActive(_ context.Context, id int64, active bool) error {
	if err := m.take(); err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.IsActive = active
	m.users[id] = u
	return nil
}

func (m *mockUserRepo) AssignRole(_ context.Context, id int64, roleID *int64) error {
	if err := m.take(); err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.RoleID = roleID
	m.users[id] = u
	return nil
}

type stubRoleStore struct {
	roles  map[int64]rbac.Role
	byName map[string]int64
	nextID int64
}

func newStubRoleStore(names ...string) *stubRoleStore {
	s := &stubRoleStore{roles: map[int64]rbac.Role{}, byName: map[string]int64{}, nextID: 1}
	for _, name := range names {
		_, _ = s.CreateRole(context.Background(), name, "")
	}
	return s
}

func (s *stubRoleStore) GetRole(_ context.Context, id int64) (rbac.Role, error) {
	role, ok := s.roles[id]
	if !ok {
		return rbac.Role{}, shared.ErrNotFound
	}
	return role, nil
}

func (s *stubRoleStore) GetRoleByName(_ context.Context, name string) (rbac.Role, error) {
	id, ok := s.byName[name]
	if !ok {
		return rbac.Role{}, shared.ErrNotFound
	}
	return s.roles[id], nil
}

func (s *stubRoleStore) CreateRole(_ context.Context, name, description string) (rbac.Role, error) {
	if _, exists := s.byName[name]; exists {
		return rbac.Role{}, shared.ErrDuplicate
	}
	role := rbac.Role{ID: s.nextID, Name: name, Description: description}
	s.roles[role.ID] = role
	s.byName[name] = role.ID
	s.nextID++
	return role, nil
}

type sessionSpy struct {
	invalidated []int64
	err         error
}

func (s *sessionSpy) InvalidateAllForUser(_ context.Context, userID int64) error {
	if s.err != nil {
		return s.err
	}
	s.invalidated = append(s.invalidated, userID)
	return nil
}

type userFixture struct {
	repo     *mockUserRepo
	roles    *stubRoleStore
	sessions *sessionSpy
	service  *Service
}

func newUserFixture(t *testing.T, roleNames ...string) *userFixture {
	t.Helper()
	f := &userFixture{
		repo:     newMockUserRepo(),
		roles:    newStubRoleStore(roleNames...),
		sessions: &sessionSpy{},
	}
	f.service = NewService(f.repo, f.roles, f.sessions, nil, testLogger())
	return f
}

func TestCreateUserHashesPassword(t *testing.T) {
	f := newUserFixture(t, "Kasir")
	ctx := context.Background()

	roleID := int64(1)
	user, err := f.service.CreateUser(ctx, 1, "Budi@Toko.ID", "rahasia-kuat", "Budi", &roleID)
	require.NoError(t, err)

	assert.Equal(t, "budi@toko.id", user.Email)
	assert.True(t, user.IsActive)
	hash := f.repo.hashes[user.ID]
	assert.NotEqual(t, "rahasia-kuat", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("rahasia-kuat")))
}

func TestCreateUserRejectsShortPassword(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.service.CreateUser(context.Background(), 1, "budi@toko.id", "pendek", "Budi", nil)
	require.Error(t, err)
	assert.Empty(t, f.repo.users)
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	f := newUserFixture(t)

	missing := int64(42)
	_, err := f.service.CreateUser(context.Background(), 1, "budi@toko.id", "rahasia-kuat", "Budi", &missing)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateUser(ctx, 1, "budi@toko.id", "rahasia-kuat", "Budi", nil)
	require.NoError(t, err)

	_, err = f.service.CreateUser(ctx, 1, "BUDI@toko.id", "rahasia-lain", "Budi Kedua", nil)
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestCreateAdminUserCreatesReservedRole(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	user, err := f.service.CreateAdminUser(ctx, "admin@toko.id", "rahasia-kuat", "Admin")
	require.NoError(t, err)

	role, err := f.roles.GetRoleByName(ctx, rbac.AdministratorRole)
	require.NoError(t, err)
	require.NotNil(t, user.RoleID)
	assert.Equal(t, role.ID, *user.RoleID)
}

func TestCreateAdminUserReusesExistingRole(t *testing.T) {
	f := newUserFixture(t, rbac.AdministratorRole)
	ctx := context.Background()

	user, err := f.service.CreateAdminUser(ctx, "admin@toko.id", "rahasia-kuat", "Admin")
	require.NoError(t, err)

	require.NotNil(t, user.RoleID)
	assert.Equal(t, int64(1), *user.RoleID)
	assert.Len(t, f.roles.roles, 1)
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	user, err := f.service.CreateUser(ctx, 1, "budi@toko.id", "rahasia-kuat", "Budi", nil)
	require.NoError(t, err)

	require.NoError(t, f.service.ChangePassword(ctx, 1, user.ID, "rahasia-baru"))

	assert.Equal(t, []int64{user.ID}, f.sessions.invalidated)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(f.repo.hashes[user.ID]), []byte("rahasia-baru")))
}

func TestChangePasswordUnknownUser(t *testing.T) {
	f := newUserFixture(t)

	err := f.service.ChangePassword(context.Background(), 1, 99, "rahasia-baru")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, f.sessions.invalidated)
}

func TestDeactivateRevokesSessions(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	user, err := f.service.CreateUser(ctx, 1, "budi@toko.id", "rahasia-kuat", "Budi", nil)
	require.NoError(t, err)

	require.NoError(t, f.service.Deactivate(ctx, 1, user.ID))

	assert.False(t, f.repo.users[user.ID].IsActive)
	assert.Equal(t, []int64{user.ID}, f.sessions.invalidated)
}

func TestAssignRoleValidatesTarget(t *testing.T) {
	f := newUserFixture(t, "Kasir")
	ctx := context.Background()

	user, err := f.service.CreateUser(ctx, 1, "budi@toko.id", "rahasia-kuat", "Budi", nil)
	require.NoError(t, err)

	missing := int64(42)
	err = f.service.AssignRole(ctx, 1, user.ID, &missing)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	roleID := int64(1)
	require.NoError(t, f.service.AssignRole(ctx, 1, user.ID, &roleID))
	require.NotNil(t, f.repo.users[user.ID].RoleID)
	assert.Equal(t, roleID, *f.repo.users[user.ID].RoleID)

	require.NoError(t, f.service.AssignRole(ctx, 1, user.ID, nil))
	assert.Nil(t, f.repo.users[user.ID].RoleID)
}

func TestListUsersWrapsStorageError(t *testing.T) {
	f := newUserFixture(t)
	f.repo.failNext = errors.New("koneksi putus")

	_, err := f.service.ListUsers(context.Background())
	assert.True(t, shared.IsStorageError(err))
}
