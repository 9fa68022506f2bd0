package domain

import "time"

// Shift is a scheduled work period owned by one engineer.
type Shift struct {
	ID          int64
	UserID      int64
	StartTime   string
	EndTime     string
	Description string
	CreatedAt   time.Time

	// populated from the owning user on reads
	Username string
	FullName string
}
