package domain

import "time"

// Role represents the privilege level of a portal user.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// IsElevated reports whether the role sees every project.
func (r Role) IsElevated() bool {
	return r == RoleAdmin
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	}
	return false
}

// User is the identity record owned by the credential store.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         *string
	Role         Role
	CreatedAt    time.Time
	LastLogin    *time.Time
}
