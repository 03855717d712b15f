// Package organizations manages student organizations and their
// membership roles, which gate management of organization-owned
// events.
package organizations

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound       = errors.New("organization not found")
	ErrMemberNotFound = errors.New("organization member not found")
	ErrAlreadyMember  = errors.New("user is already a member")
	ErrForbidden      = errors.New("membership role does not allow this operation")
	ErrLastAdmin      = errors.New("organization must keep at least one admin")
)

// Membership roles. ADMIN manages membership and events,
// REPRESENTATIVE manages events only, MEMBER is plain affiliation.
const (
	RoleAdmin          = "ADMIN"
	RoleRepresentative = "REPRESENTATIVE"
	RoleMember         = "MEMBER"
)

func ParseRole(value string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleRepresentative:
		return RoleRepresentative, nil
	case RoleMember:
		return RoleMember, nil
	default:
		return "", ValidationError{Field: "role", Message: "must be ADMIN, REPRESENTATIVE or MEMBER"}
	}
}

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

type Organization struct {
	ULID        string
	Name        string
	Description string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Member struct {
	OrgULID   string
	UserULID  string
	Role      string
	CreatedAt time.Time
}
