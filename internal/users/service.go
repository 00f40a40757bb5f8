package users

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/tokobase/tokobase/internal/rbac"
	"github.com/tokobase/tokobase/internal/shared"
)

// MinPasswordLength is the smallest password accepted for new accounts.
const MinPasswordLength = 8

// RoleStore is the slice of the rbac service the user module needs.
type RoleStore interface {
	GetRole(ctx context.Context, id int64) (rbac.Role, error)
	GetRoleByName(ctx context.Context, name string) (rbac.Role, error)
	CreateRole(ctx context.Context, name, description string) (rbac.Role, error)
}

// SessionInvalidator revokes sessions when credentials change.
type SessionInvalidator interface {
	InvalidateAllForUser(ctx context.Context, userID int64) error
}

// Service handles account business logic.
type Service struct {
	repo     RepositoryPort
	roles    RoleStore
	sessions SessionInvalidator
	audit    *shared.AuditLogger
	logger   *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, roles RoleStore, sessions SessionInvalidator, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, roles: roles, sessions: sessions, audit: audit, logger: logger}
}

// ListUsers returns all accounts.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, shared.WrapStorage("list users", err)
	}
	return users, nil
}

// GetUser fetches a single account.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, shared.WrapStorage("get user", err)
	}
	return user, nil
}

// CreateUser creates an active account, optionally bound to a role.
func (s *Service) CreateUser(ctx context.Context, actorID int64, email, password, name string, roleID *int64) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return User{}, errors.New("users: email required")
	}
	if len(password) < MinPasswordLength {
		return User{}, errors.New("users: password too short")
	}
	if roleID != nil {
		if _, err := s.roles.GetRole(ctx, *roleID); err != nil {
			return User{}, err
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	user, err := s.repo.CreateUser(ctx, email, string(hash), strings.TrimSpace(name), roleID)
	if err != nil {
		return User{}, shared.WrapStorage("create user", err)
	}
	s.record(ctx, actorID, shared.AuditUserCreated, user.ID, nil)
	return user, nil
}

// CreateAdminUser provisions an administrator account. It is the single core
// operation behind both the CLI and web adapters: it ensures the reserved
// Administrator role exists and binds the new account to it. The role's
// grants are left to the loader's self-repair, which fills in the catalog on
// first use.
func (s *Service) CreateAdminUser(ctx context.Context, email, password, name string) (User, error) {
	role, err := s.roles.GetRoleByName(ctx, rbac.AdministratorRole)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return User{}, err
		}
		role, err = s.roles.CreateRole(ctx, rbac.AdministratorRole, "Akses penuh ke seluruh platform")
		if err != nil {
			return User{}, err
		}
	}
	user, err := s.CreateUser(ctx, 0, email, password, name, &role.ID)
	if err != nil {
		return User{}, err
	}
	s.record(ctx, user.ID, shared.AuditAdminCreated, user.ID, nil)
	return user, nil
}

// ChangePassword rehashes the credential and revokes every open session for
// the account.
func (s *Service) ChangePassword(ctx context.Context, actorID, userID int64, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return errors.New("users: password too short")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return shared.WrapStorage("update password", err)
	}
	if err := s.sessions.InvalidateAllForUser(ctx, userID); err != nil {
		return err
	}
	s.record(ctx, actorID, shared.AuditPasswordChanged, userID, nil)
	return nil
}

// Deactivate soft-disables the account and revokes its sessions. There is no
// hard delete.
func (s *Service) Deactivate(ctx context.Context, actorID, userID int64) error {
	if err := s.repo.SetActive(ctx, userID, false); err != nil {
		return shared.WrapStorage("deactivate user", err)
	}
	if err := s.sessions.InvalidateAllForUser(ctx, userID); err != nil {
		return err
	}
	s.record(ctx, actorID, shared.AuditUserDeactivated, userID, nil)
	return nil
}

// AssignRole moves the account to a different role. The permission cache is
// keyed by user+role, so the next authorize resolves fresh grants without an
// explicit invalidation.
func (s *Service) AssignRole(ctx context.Context, actorID, userID int64, roleID *int64) error {
	if roleID != nil {
		if _, err := s.roles.GetRole(ctx, *roleID); err != nil {
			return err
		}
	}
	if err := s.repo.AssignRole(ctx, userID, roleID); err != nil {
		return shared.WrapStorage("assign role", err)
	}
	meta := map[string]any{}
	if roleID != nil {
		meta["role_id"] = *roleID
	}
	s.record(ctx, actorID, shared.AuditRoleAssigned, userID, meta)
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, userID int64, meta map[string]any) {
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     meta,
	}); err != nil && s.logger != nil {
		s.logger.Warn("audit user event", slog.String("action", action), slog.Any("error", err))
	}
}
