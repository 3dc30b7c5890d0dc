package user

import "strings"

type Role string

const (
	RoleAdmin    Role = "admin"    // Cross-employee view
	RoleManager  Role = "manager"  // Treated as employee scope
	RoleEmployee Role = "employee" // Self-only view
)

var ValidRoles = []string{string(RoleAdmin), string(RoleManager), string(RoleEmployee)}

// NormalizeRole lower-cases the backend's role string ("Employee", "admin", ...).
func NormalizeRole(role string) Role {
	return Role(strings.ToLower(strings.TrimSpace(role)))
}

type User struct {
	ID         int64
	Name       string
	Email      string
	Role       Role
	Department *string
}

// IsAdmin checks if user sees the admin dashboard
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
