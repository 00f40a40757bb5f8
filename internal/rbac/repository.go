package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tokobase/tokobase/internal/platform/db"
	"github.com/tokobase/tokobase/internal/shared"
)

// Repository defines persistence operations for roles, permissions and grants.
type Repository interface {
	GetRole(ctx context.Context, id int64) (Role, error)
	GetRoleByName(ctx context.Context, name string) (Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	CreateRole(ctx context.Context, name, description string) (Role, error)
	UpdateRole(ctx context.Context, id int64, name, description string) (Role, error)
	DeleteRole(ctx context.Context, id int64) error
	ListPermissions(ctx context.Context) ([]Permission, error)
	EnsurePermission(ctx context.Context, action, description string) (Permission, error)
	RoleActions(ctx context.Context, roleID int64) ([]string, error)
	GrantsVersion(ctx context.Context, roleID int64) (int64, error)
	GrantAllPermissions(ctx context.Context, roleID int64) error
	ReplaceGrants(ctx context.Context, roleID int64, permissionIDs []int64) error
	UserRole(ctx context.Context, userID int64) (*int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const roleColumns = `id, name, description, grants_version, created_at, updated_at`

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.GrantsVersion, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// GetRole fetches a role by ID.
func (r *PGRepository) GetRole(ctx context.Context, id int64) (Role, error) {
	return scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
}

// GetRoleByName fetches a role by its unique name.
func (r *PGRepository) GetRoleByName(ctx context.Context, name string) (Role, error) {
	return scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE name = $1`, name))
}

// ListRoles returns all roles ordered by name.
func (r *PGRepository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.GrantsVersion, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// CreateRole inserts a new role.
func (r *PGRepository) CreateRole(ctx context.Context, name, description string) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `
		INSERT INTO roles (name, description) VALUES ($1, $2)
		RETURNING `+roleColumns, name, description))
	if err != nil {
		return Role{}, mapUniqueViolation(err)
	}
	return role, nil
}

// UpdateRole updates name and description of an existing role.
func (r *PGRepository) UpdateRole(ctx context.Context, id int64, name, description string) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `
		UPDATE roles SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+roleColumns, id, name, description))
	if err != nil {
		return Role{}, mapUniqueViolation(err)
	}
	return role, nil
}

// DeleteRole removes a role; grants cascade via FK.
func (r *PGRepository) DeleteRole(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListPermissions returns the full permission catalog ordered by action.
func (r *PGRepository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, action, description FROM permissions ORDER BY action`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.Action, &perm.Description); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

// EnsurePermission upserts a catalog entry for the action.
func (r *PGRepository) EnsurePermission(ctx context.Context, action, description string) (Permission, error) {
	var perm Permission
	err := r.pool.QueryRow(ctx, `
		INSERT INTO permissions (action, description) VALUES ($1, $2)
		ON CONFLICT (action) DO UPDATE SET description = EXCLUDED.description
		RETURNING id, action, description`, action, description).
		Scan(&perm.ID, &perm.Action, &perm.Description)
	if err != nil {
		return Permission{}, err
	}
	return perm, nil
}

// RoleActions returns the granted permission actions for a role.
func (r *PGRepository) RoleActions(ctx context.Context, roleID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.action
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.action`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	actions := []string{}
	for rows.Next() {
		var action string
		if err := rows.Scan(&action); err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, rows.Err()
}

// GrantsVersion returns the current grant-set version for a role.
func (r *PGRepository) GrantsVersion(ctx context.Context, roleID int64) (int64, error) {
	var version int64
	err := r.pool.QueryRow(ctx, `SELECT grants_version FROM roles WHERE id = $1`, roleID).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return version, nil
}

// GrantAllPermissions attaches the entire catalog to the role in one
// transaction. Either every grant lands and the version bumps, or nothing
// changes; a crash can never leave a partially privileged role.
func (r *PGRepository) GrantAllPermissions(ctx context.Context, roleID int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO role_permissions (role_id, permission_id)
			SELECT $1, id FROM permissions
			ON CONFLICT DO NOTHING`, roleID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE roles SET grants_version = grants_version + 1, updated_at = NOW() WHERE id = $1`, roleID)
		return err
	})
}

// ReplaceGrants rewrites the role's grant set transactionally and bumps the
// version so stale caches recompute.
func (r *PGRepository) ReplaceGrants(ctx context.Context, roleID int64, permissionIDs []int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1 AND permission_id != ALL($2)`, roleID, permissionIDs); err != nil {
			return err
		}
		for _, permID := range permissionIDs {
			if _, err := tx.Exec(ctx, `
				INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)
				ON CONFLICT DO NOTHING`, roleID, permID); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, `UPDATE roles SET grants_version = grants_version + 1, updated_at = NOW() WHERE id = $1`, roleID)
		return err
	})
}

// UserRole returns the role assigned to a user, nil when unassigned.
func (r *PGRepository) UserRole(ctx context.Context, userID int64) (*int64, error) {
	var roleID *int64
	err := r.pool.QueryRow(ctx, `SELECT role_id FROM users WHERE id = $1`, userID).Scan(&roleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return roleID, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}

var _ Repository = (*PGRepository)(nil)
