package persistence

import "time"

// User represents a roster volunteer or administrator.
type User struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	IsAdmin   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session represents a mowing session row. Date holds the primary date in
// YYYY-MM-DD form; optional columns are nil when unset.
type Session struct {
	ID              string
	Date            string
	UserID          *string
	Confirmed       bool
	ArrivalDay      *string
	ArrivalTime     *string
	NeedsAssistance bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
