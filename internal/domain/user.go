package domain

import "time"

// UserRole enumerates the access levels of an account.
type UserRole string

const (
	UserRoleAdmin     UserRole = "admin"
	UserRoleDeveloper UserRole = "developer"
	UserRoleReporter  UserRole = "reporter"
)

// User is the domain model for accounts that report and work on bugs.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidUserRole reports whether the value is a defined role.
func ValidUserRole(r UserRole) bool {
	switch r {
	case UserRoleAdmin, UserRoleDeveloper, UserRoleReporter:
		return true
	}
	return false
}
