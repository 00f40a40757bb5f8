package shops

import "time"

// Shop is a retail outlet managed through the admin panel.
type Shop struct {
	ID        int64
	Name      string
	Address   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
