package domain

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEngineer Role = "engineer"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEngineer
}

// User represents an account that can sign in to the system.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
	FullName     string
	CreatedAt    time.Time
}

// Identity is the caller resolved from a verified session token.
type Identity struct {
	ID       int64
	Username string
	Role     Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
