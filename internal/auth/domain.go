package auth

import "time"

// User is the credential-store view of an account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	RoleID       *int64
	IsActive     bool
	LastLoginAt  *time.Time
}
