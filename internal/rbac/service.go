package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/tokobase/tokobase/internal/shared"
)

// Service orchestrates role administration and effective-permission loading.
type Service struct {
	repo   Repository
	cache  *PermissionCache
	audit  *shared.AuditLogger
	logger *slog.Logger
	group  singleflight.Group
}

// NewService constructs a Service.
func NewService(repo Repository, cache *PermissionCache, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, audit: audit, logger: logger}
}

// EnsureCatalog seeds the permission catalog from the action registry.
// Idempotent; called at startup so grants and checks always resolve against
// the same closed set of actions.
func (s *Service) EnsureCatalog(ctx context.Context) error {
	for _, action := range shared.KnownActions() {
		if _, err := s.repo.EnsurePermission(ctx, action, shared.DescribeAction(action)); err != nil {
			return shared.WrapStorage("ensure permission", err)
		}
	}
	return nil
}

// LoadPermissions computes the effective permission set for a role. A role
// with zero grants named Administrator gets repaired to the full catalog
// first; any other empty role yields the empty set.
func (s *Service) LoadPermissions(ctx context.Context, roleID int64) ([]string, error) {
	actions, err := s.repo.RoleActions(ctx, roleID)
	if err != nil {
		return nil, shared.WrapStorage("load role actions", err)
	}
	if len(actions) > 0 {
		return actions, nil
	}

	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.WrapStorage("load role", err)
	}
	if role.Name != AdministratorRole {
		return []string{}, nil
	}

	// Self-repair: an admin role with no grants means setup never ran or
	// grants were wiped. Restore the full catalog atomically.
	if err := s.repo.GrantAllPermissions(ctx, roleID); err != nil {
		return nil, shared.WrapStorage("repair admin grants", err)
	}
	if s.logger != nil {
		s.logger.Warn("administrator role had no grants, restored full catalog", slog.Int64("role_id", roleID))
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  0,
		Action:   shared.AuditGrantsRepaired,
		Entity:   "role",
		EntityID: strconv.FormatInt(roleID, 10),
	}); err != nil && s.logger != nil {
		s.logger.Warn("audit grants repair", slog.Any("error", err))
	}

	actions, err = s.repo.RoleActions(ctx, roleID)
	if err != nil {
		return nil, shared.WrapStorage("reload role actions", err)
	}
	return actions, nil
}

// EffectivePermissions resolves the cached permission set for a user+role,
// recomputing when the role's grants_version moved past the cached stamp.
func (s *Service) EffectivePermissions(ctx context.Context, userID, roleID int64) ([]string, error) {
	version, err := s.repo.GrantsVersion(ctx, roleID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.WrapStorage("grants version", err)
	}
	if actions, cachedVersion, ok := s.cache.Get(ctx, userID, roleID); ok && cachedVersion == version {
		return actions, nil
	}

	key := fmt.Sprintf("%d:%d", userID, roleID)
	result, err, _ := s.group.Do(key, func() (any, error) {
		actions, err := s.LoadPermissions(ctx, roleID)
		if err != nil {
			return nil, err
		}
		// The repair path bumps the version, re-read so the stamp matches.
		current, err := s.repo.GrantsVersion(ctx, roleID)
		if err != nil {
			return nil, shared.WrapStorage("grants version", err)
		}
		if err := s.cache.Put(ctx, userID, roleID, current, actions); err != nil && s.logger != nil {
			s.logger.Warn("cache permission set", slog.Any("error", err))
		}
		return actions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

// EffectivePermissionsForUser resolves a user's role and loads its set. Users
// without a role have no permissions.
func (s *Service) EffectivePermissionsForUser(ctx context.Context, userID int64) ([]string, error) {
	roleID, err := s.repo.UserRole(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.WrapStorage("user role", err)
	}
	if roleID == nil {
		return []string{}, nil
	}
	return s.EffectivePermissions(ctx, userID, *roleID)
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, shared.WrapStorage("list roles", err)
	}
	return roles, nil
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return Role{}, shared.WrapStorage("get role", err)
	}
	return role, nil
}

// GetRoleByName fetches a role by its unique name.
func (s *Service) GetRoleByName(ctx context.Context, name string) (Role, error) {
	role, err := s.repo.GetRoleByName(ctx, name)
	if err != nil {
		return Role{}, shared.WrapStorage("get role by name", err)
	}
	return role, nil
}

// CreateRole inserts a new role.
func (s *Service) CreateRole(ctx context.Context, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("rbac: role name required")
	}
	role, err := s.repo.CreateRole(ctx, name, strings.TrimSpace(description))
	if err != nil {
		return Role{}, shared.WrapStorage("create role", err)
	}
	return role, nil
}

// UpdateRole updates an existing role.
func (s *Service) UpdateRole(ctx context.Context, id int64, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("rbac: role name required")
	}
	role, err := s.repo.UpdateRole(ctx, id, name, strings.TrimSpace(description))
	if err != nil {
		return Role{}, shared.WrapStorage("update role", err)
	}
	return role, nil
}

// DeleteRole removes a role by ID.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return shared.WrapStorage("delete role", err)
	}
	return nil
}

// ListPermissions returns the permission catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, shared.WrapStorage("list permissions", err)
	}
	return perms, nil
}

// SetRolePermissions replaces the role's grant set. Every action must exist
// in the closed registry; typos fail here instead of silently always-denying.
func (s *Service) SetRolePermissions(ctx context.Context, actorID, roleID int64, actions []string) error {
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return shared.WrapStorage("get role", err)
	}
	for _, action := range actions {
		if !shared.IsKnownAction(action) {
			return fmt.Errorf("rbac: unknown permission action %q", action)
		}
	}
	catalog, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return shared.WrapStorage("list permissions", err)
	}
	byAction := make(map[string]int64, len(catalog))
	for _, perm := range catalog {
		byAction[perm.Action] = perm.ID
	}
	permissionIDs := make([]int64, 0, len(actions))
	for _, action := range actions {
		id, ok := byAction[action]
		if !ok {
			return fmt.Errorf("rbac: action %q missing from catalog", action)
		}
		permissionIDs = append(permissionIDs, id)
	}
	if err := s.repo.ReplaceGrants(ctx, roleID, permissionIDs); err != nil {
		return shared.WrapStorage("replace grants", err)
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   shared.AuditGrantsChanged,
		Entity:   "role",
		EntityID: strconv.FormatInt(roleID, 10),
		Meta:     map[string]any{"actions": actions},
	}); err != nil && s.logger != nil {
		s.logger.Warn("audit grants change", slog.Any("error", err))
	}
	return nil
}
