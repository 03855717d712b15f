package events

import (
	"context"
	"errors"
	"fmt"
)

// Roles within an organization that may manage its events.
const (
	OrgRoleAdmin          = "ADMIN"
	OrgRoleRepresentative = "REPRESENTATIVE"
)

// OwnershipChecker answers whether a user may manage a given event:
// the owning user for user-owned events, or an ADMIN/REPRESENTATIVE
// member of the owning organization.
type OwnershipChecker struct {
	members MembershipDirectory
}

func NewOwnershipChecker(members MembershipDirectory) *OwnershipChecker {
	return &OwnershipChecker{members: members}
}

func (c *OwnershipChecker) CanManage(ctx context.Context, event *Event, userULID string) (bool, error) {
	switch event.OwnerType {
	case OwnerUser:
		return event.OwnerUserID == userULID, nil
	case OwnerOrganization:
		if event.OwnerOrgID == nil {
			return false, nil
		}
		role, err := c.members.MemberRole(ctx, *event.OwnerOrgID, userULID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return false, nil
			}
			return false, fmt.Errorf("resolve membership: %w", err)
		}
		return role == OrgRoleAdmin || role == OrgRoleRepresentative, nil
	default:
		return false, nil
	}
}
