package auth

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tokobase/tokobase/internal/shared"
)

// SessionWriter is the slice of the session manager the authenticator needs.
type SessionWriter interface {
	Create(ctx context.Context, userID int64) (string, error)
	Invalidate(ctx context.Context, token string) (bool, error)
}

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	sessions SessionWriter
	audit    *shared.AuditLogger
	logger   *slog.Logger
}

// NewService constructs a new Service.
func NewService(repo Repository, sessions SessionWriter, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, sessions: sessions, audit: audit, logger: logger}
}

// Authenticate validates email/password credentials. Unknown accounts and
// wrong passwords collapse to ErrInvalidCredentials; inactive accounts keep
// their own error internally so callers can log the distinction, but the
// HTTP layer presents the same generic message for both.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, shared.WrapStorage("auth find user", err)
	}
	if !user.IsActive {
		return nil, shared.ErrAccountInactive
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and opens a new session, returning the bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}
	if err := s.repo.TouchLastLogin(ctx, user.ID, time.Now().UTC()); err != nil && s.logger != nil {
		s.logger.Warn("touch last login", slog.Any("error", err))
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  user.ID,
		Action:   shared.AuditLogin,
		Entity:   "user",
		EntityID: strconv.FormatInt(user.ID, 10),
	}); err != nil && s.logger != nil {
		s.logger.Warn("audit login", slog.Any("error", err))
	}
	return token, user, nil
}

// Logout revokes the session for the given token. Idempotent.
func (s *Service) Logout(ctx context.Context, token string, actorID int64) error {
	ok, err := s.sessions.Invalidate(ctx, token)
	if err != nil {
		return err
	}
	if ok {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   shared.AuditLogout,
			Entity:   "user",
			EntityID: strconv.FormatInt(actorID, 10),
		}); err != nil && s.logger != nil {
			s.logger.Warn("audit logout", slog.Any("error", err))
		}
	}
	return nil
}
