package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrUserExists is returned when a username is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrConstraint is returned when a CHECK or FOREIGN KEY constraint rejects a write.
	ErrConstraint = errors.New("constraint violation")
)

// Scope limits list queries to the rows a caller may see.
// The zero value matches only rows owned by user 0, i.e. nothing.
type Scope struct {
	All     bool
	OwnerID int64
}
