package auth

import "strings"

// Role is the platform-level role carried in JWT claims. Organization
// membership roles (admin/representative/member) live in the database
// and are checked per event by the ownership service.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func NormalizeRole(role string) Role {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case string(RoleAdmin):
		return RoleAdmin
	default:
		return RoleUser
	}
}

func IsAdmin(role string) bool {
	return NormalizeRole(role) == RoleAdmin
}
