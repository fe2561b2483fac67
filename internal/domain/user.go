package domain

import "time"

// UserRole enumerates supported roles.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == UserRoleUser || r == UserRoleAdmin
}

// User represents a registered account.
type User struct {
	ID            string
	Name          string
	Email         string
	Phone         string
	PasswordHash  string
	Role          UserRole
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsAdmin reports whether the user can manage students and broadcasts.
func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
