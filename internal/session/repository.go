package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tokobase/tokobase/internal/shared"
)

// Repository defines persistence operations for sessions.
type Repository interface {
	Insert(ctx context.Context, token string, userID int64, now time.Time) (*Session, error)
	// FindByToken returns the session together with the owner's active flag,
	// so callers can reject sessions of deactivated accounts.
	FindByToken(ctx context.Context, token string) (*Session, bool, error)
	Touch(ctx context.Context, token string, at time.Time) error
	Deactivate(ctx context.Context, token string) (bool, error)
	DeactivateAllForUser(ctx context.Context, userID int64) error
	DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert persists a new active session row.
func (r *PGRepository) Insert(ctx context.Context, token string, userID int64, now time.Time) (*Session, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO sessions (token, user_id, is_active, created_at, last_activity)
		VALUES ($1, $2, TRUE, $3, $3)
		RETURNING id`, token, userID, now)
	sess := &Session{Token: token, UserID: userID, IsActive: true, CreatedAt: now, LastActivity: now}
	if err := row.Scan(&sess.ID); err != nil {
		return nil, err
	}
	return sess, nil
}

// FindByToken fetches a session and its owner's active flag in one query.
func (r *PGRepository) FindByToken(ctx context.Context, token string) (*Session, bool, error) {
	var sess Session
	var ownerActive bool
	err := r.pool.QueryRow(ctx, `
		SELECT s.id, s.token, s.user_id, s.is_active, s.created_at, s.last_activity, u.is_active
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = $1`, token).
		Scan(&sess.ID, &sess.Token, &sess.UserID, &sess.IsActive, &sess.CreatedAt, &sess.LastActivity, &ownerActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, shared.ErrNotFound
		}
		return nil, false, err
	}
	return &sess, ownerActive, nil
}

// Touch advances last_activity. Concurrent touches race benignly, last write wins.
func (r *PGRepository) Touch(ctx context.Context, token string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE sessions SET last_activity = $2 WHERE token = $1`, token, at)
	return err
}

// Deactivate flips is_active off, reporting whether an active row matched.
func (r *PGRepository) Deactivate(ctx context.Context, token string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE sessions SET is_active = FALSE WHERE token = $1 AND is_active`, token)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeactivateAllForUser revokes every active session of a user.
func (r *PGRepository) DeactivateAllForUser(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE sessions SET is_active = FALSE WHERE user_id = $1 AND is_active`, userID)
	return err
}

// DeleteInactiveBefore purges dead session rows older than the cutoff.
func (r *PGRepository) DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE NOT is_active AND last_activity < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
