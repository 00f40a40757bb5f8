package sales

import "time"

// SaleRecord is a single sale booked against a shop by an employee.
type SaleRecord struct {
	ID        int64
	ShopID    int64
	UserID    int64
	Amount    float64
	SoldAt    time.Time
	Note      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
