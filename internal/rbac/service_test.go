package rbac

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokobase/tokobase/internal/shared"
)

type mockRepository struct {
	roles      map[int64]*Role
	perms      map[int64]*Permission
	grants     map[int64]map[int64]struct{} // roleID -> permission IDs
	userRoles  map[int64]*int64
	nextRoleID int64
	nextPermID int64

	actionsErr error
	grantErr   error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		roles:      make(map[int64]*Role),
		perms:      make(map[int64]*Permission),
		grants:     make(map[int64]map[int64]struct{}),
		userRoles:  make(map[int64]*int64),
		nextRoleID: 1,
		nextPermID: 1,
	}
}

func (m *mockRepository) addRole(name string) *Role {
	role := &Role{ID: m.nextRoleID, Name: name}
	m.nextRoleID++
	m.roles[role.ID] = role
	m.grants[role.ID] = make(map[int64]struct{})
	return role
}

func (m *mockRepository) addPermission(action string) *Permission {
	perm := &Permission{ID: m.nextPermID, Action: action}
	m.nextPermID++
	m.perms[perm.ID] = perm
	return perm
}

func (m *mockRepository) GetRole(ctx context.Context, id int64) (Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	return *role, nil
}

func (m *mockRepository) GetRoleByName(ctx context.Context, name string) (Role, error) {
	for _, role := range m.roles {
		if role.Name == name {
			return *role, nil
		}
	}
	return Role{}, shared.ErrNotFound
}

func (m *mockRepository) ListRoles(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(m.roles))
	for _, role := range m.roles {
		out = append(out, *role)
	}
	return out, nil
}

func (m *mockRepository) CreateRole(ctx context.Context, name, description string) (Role, error) {
	for _, role := range m.roles {
		if role.Name == name {
			return Role{}, shared.ErrDuplicate
		}
	}
	role := m.addRole(name)
	role.Description = description
	return *role, nil
}

func (m *mockRepository) UpdateRole(ctx context.Context, id int64, name, description string) (Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	role.Name = name
	role.Description = description
	return *role, nil
}

func (m *mockRepository) DeleteRole(ctx context.Context, id int64) error {
	if _, ok := m.roles[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.roles, id)
	delete(m.grants, id)
	return nil
}

func (m *mockRepository) ListPermissions(ctx context.Context) ([]Permission, error) {
	out := make([]Permission, 0, len(m.perms))
	for _, perm := range m.perms {
		out = append(out, *perm)
	}
	return out, nil
}

func (m *mockRepository) EnsurePermission(ctx context.Context, action, description string) (Permission, error) {
	for _, perm := range m.perms {
		if perm.Action == action {
			perm.Description = description
			return *perm, nil
		}
	}
	perm := m.addPermission(action)
	perm.Description = description
	return *perm, nil
}

func (m *mockRepository) RoleActions(ctx context.Context, roleID int64) ([]string, error) {
	if m.actionsErr != nil {
		return nil, m.actionsErr
	}
	actions := []string{}
	for permID := range m.grants[roleID] {
		actions = append(actions, m.perms[permID].Action)
	}
	return actions, nil
}

func (m *mockRepository) GrantsVersion(ctx context.Context, roleID int64) (int64, error) {
	role, ok := m.roles[roleID]
	if !ok {
		return 0, shared.ErrNotFound
	}
	return role.GrantsVersion, nil
}

func (m *mockRepository) GrantAllPermissions(ctx context.Context, roleID int64) error {
	if m.grantErr != nil {
		return m.grantErr
	}
	role, ok := m.roles[roleID]
	if !ok {
		return shared.ErrNotFound
	}
	for permID := range m.perms {
		m.grants[roleID][permID] = struct{}{}
	}
	role.GrantsVersion++
	return nil
}

func (m *mockRepository) ReplaceGrants(ctx context.Context, roleID int64, permissionIDs []int64) error {
	role, ok := m.roles[roleID]
	if !ok {
		return shared.ErrNotFound
	}
	next := make(map[int64]struct{}, len(permissionIDs))
	for _, id := range permissionIDs {
		next[id] = struct{}{}
	}
	m.grants[roleID] = next
	role.GrantsVersion++
	return nil
}

func (m *mockRepository) UserRole(ctx context.Context, userID int64) (*int64, error) {
	roleID, ok := m.userRoles[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return roleID, nil
}

func newTestCache(t *testing.T) *PermissionCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewPermissionCache(client, time.Hour)
}

func seedCatalog(repo *mockRepository, actions ...string) {
	for _, action := range actions {
		repo.addPermission(action)
	}
}

func TestLoadPermissionsRepairsEmptyAdminRole(t *testing.T) {
	repo := newMockRepository()
	seedCatalog(repo, shared.ActionManageUsers, shared.ActionManageRoles, shared.ActionManageShops)
	admin := repo.addRole(AdministratorRole)
	svc := NewService(repo, nil, nil, nil)

	actions, err := svc.LoadPermissions(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{shared.ActionManageUsers, shared.ActionManageRoles, shared.ActionManageShops}, actions)
	assert.Len(t, repo.grants[admin.ID], 3, "repair must persist every catalog grant")
	assert.Equal(t, int64(1), repo.roles[admin.ID].GrantsVersion)
}

func TestLoadPermissionsRepairIsIdempotent(t *testing.T) {
	repo := newMockRepository()
	seedCatalog(repo, shared.ActionManageUsers, shared.ActionViewSales)
	admin := repo.addRole(AdministratorRole)
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	first, err := svc.LoadPermissions(ctx, admin.ID)
	require.NoError(t, err)
	second, err := svc.LoadPermissions(ctx, admin.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, first, second)
	assert.Len(t, repo.grants[admin.ID], 2)
}

func TestLoadPermissionsEmptyNonAdminRole(t *testing.T) {
	repo := newMockRepository()
	seedCatalog(repo, shared.ActionViewSales)
	viewer := repo.addRole("Viewer")
	svc := NewService(repo, nil, nil, nil)

	actions, err := svc.LoadPermissions(context.Background(), viewer.ID)
	require.NoError(t, err)
	assert.Empty(t, actions)
	assert.Empty(t, repo.grants[viewer.ID], "no grants may be inserted for non-admin roles")
}

func TestLoadPermissionsUnknownRole(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil, nil)

	_, err := svc.LoadPermissions(context.Background(), 99)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestLoadPermissionsRepairFailureSurfacesStorageError(t *testing.T) {
	repo := newMockRepository()
	seedCatalog(repo, shared.ActionManageUsers)
	admin := repo.addRole(AdministratorRole)
	repo.grantErr = assert.AnError
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.LoadPermissions(context.Background(), admin.ID)
	require.Error(t, err)
	assert.True(t, shared.IsStorageError(err))
}

func TestEffectivePermissionsCachesByVersion(t *testing.T) {
	repo := newMockRepository()
	viewPerm := repo.addPermission(shared.ActionViewSales)
	editPerm := repo.addPermission(shared.ActionEditSales)
	role := repo.addRole("Kasir")
	repo.grants[role.ID][viewPerm.ID] = struct{}{}
	role.GrantsVersion = 1
	cache := newTestCache(t)
	svc := NewService(repo, cache, nil, nil)
	ctx := context.Background()

	actions, err := svc.EffectivePermissions(ctx, 10, role.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{shared.ActionViewSales}, actions)

	// Cached result is served while the version is unchanged.
	repo.actionsErr = assert.AnError
	actions, err = svc.EffectivePermissions(ctx, 10, role.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{shared.ActionViewSales}, actions)

	// A grant change bumps the version and forces a recompute.
	repo.actionsErr = nil
	require.NoError(t, repo.ReplaceGrants(ctx, role.ID, []int64{viewPerm.ID, editPerm.ID}))
	actions, err = svc.EffectivePermissions(ctx, 10, role.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{shared.ActionViewSales, shared.ActionEditSales}, actions)
}

func TestEffectivePermissionsForUserWithoutRole(t *testing.T) {
	repo := newMockRepository()
	repo.userRoles[7] = nil
	svc := NewService(repo, nil, nil, nil)

	actions, err := svc.EffectivePermissionsForUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestSetRolePermissionsRejectsUnknownAction(t *testing.T) {
	repo := newMockRepository()
	seedCatalog(repo, shared.ActionViewSales)
	role := repo.addRole("Kasir")
	svc := NewService(repo, nil, nil, nil)

	err := svc.SetRolePermissions(context.Background(), 1, role.ID, []string{"manage_shosp"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown permission action")
	assert.Empty(t, repo.grants[role.ID])
}

func TestSetRolePermissionsBumpsVersion(t *testing.T) {
	repo := newMockRepository()
	seedCatalog(repo, shared.ActionViewSales, shared.ActionEditSales)
	role := repo.addRole("Kasir")
	svc := NewService(repo, nil, nil, nil)

	require.NoError(t, svc.SetRolePermissions(context.Background(), 1, role.ID, []string{shared.ActionViewSales}))
	assert.Equal(t, int64(1), repo.roles[role.ID].GrantsVersion)
	assert.Len(t, repo.grants[role.ID], 1)
}
