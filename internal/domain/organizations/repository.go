package organizations

import "context"

type Repository interface {
	Insert(ctx context.Context, org *Organization) error
	GetByULID(ctx context.Context, ulid string) (*Organization, error)

	// UpsertMember inserts or updates the member's role.
	UpsertMember(ctx context.Context, member *Member) error
	RemoveMember(ctx context.Context, orgULID, userULID string) error
	// MemberRole returns "" when the user is not a member.
	MemberRole(ctx context.Context, orgULID, userULID string) (string, error)
	CountMembersWithRole(ctx context.Context, orgULID, role string) (int, error)
}
