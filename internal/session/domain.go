package session

import "time"

// Session is a persisted bearer session. Possession of the token implies the
// identity of UserID; state lives in Postgres, one row per login.
type Session struct {
	ID           int64
	Token        string
	UserID       int64
	IsActive     bool
	CreatedAt    time.Time
	LastActivity time.Time
}
