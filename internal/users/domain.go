package users

import "time"

// User represents an employee account. Accounts are never hard-deleted, only
// deactivated.
type User struct {
	ID          int64
	Email       string
	Name        string
	RoleID      *int64
	IsActive    bool
	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
