package models

import "strings"

// Role is the closed set of user roles.
type Role string

const (
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	return r == RoleManager || r == RoleEmployee
}

// ParseRole normalises a role from request input. The short forms "mngr" and
// "emp" are still sent by older clients.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "manager", "mngr":
		return RoleManager, true
	case "employee", "emp":
		return RoleEmployee, true
	default:
		return "", false
	}
}
