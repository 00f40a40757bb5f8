package rbac

import "time"

// AdministratorRole is the reserved role name. A role carrying this name with
// zero explicit grants is treated as uninitialized-but-privileged and repaired
// to the full catalog, so the administrator can never be locked out.
const AdministratorRole = "Administrator"

// Role represents a high-level permission grouping. GrantsVersion increments
// on every grant change and stamps cached permission sets.
type Role struct {
	ID            int64
	Name          string
	Description   string
	GrantsVersion int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Permission represents an atomic capability identified by its action key.
type Permission struct {
	ID          int64
	Action      string
	Description string
}
