package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/unievent/server/internal/domain/events"
	"github.com/unievent/server/internal/domain/organizations"
)

var (
	_ organizations.Repository   = (*OrganizationRepository)(nil)
	_ events.MembershipDirectory = (*OrganizationRepository)(nil)
)

func (r *OrganizationRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func (r *OrganizationRepository) Insert(ctx context.Context, org *organizations.Organization) error {
	_, err := r.queryer().Exec(ctx, `
INSERT INTO organizations (ulid, name, description, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		org.ULID, org.Name, org.Description, org.CreatedBy, org.CreatedAt, org.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert organization: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) GetByULID(ctx context.Context, ulid string) (*organizations.Organization, error) {
	var org organizations.Organization
	err := r.queryer().QueryRow(ctx, `
SELECT ulid, name, description, created_by, created_at, updated_at
  FROM organizations
 WHERE ulid = $1`, ulid).Scan(
		&org.ULID, &org.Name, &org.Description, &org.CreatedBy, &org.CreatedAt, &org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, organizations.ErrNotFound
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return &org, nil
}

func (r *OrganizationRepository) UpsertMember(ctx context.Context, member *organizations.Member) error {
	_, err := r.queryer().Exec(ctx, `
INSERT INTO organization_members (org_ulid, user_ulid, role, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (org_ulid, user_ulid) DO UPDATE SET role = EXCLUDED.role`,
		member.OrgULID, member.UserULID, member.Role, member.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert member: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) RemoveMember(ctx context.Context, orgULID, userULID string) error {
	tag, err := r.queryer().Exec(ctx,
		`DELETE FROM organization_members WHERE org_ulid = $1 AND user_ulid = $2`, orgULID, userULID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return organizations.ErrMemberNotFound
	}
	return nil
}

func (r *OrganizationRepository) MemberRole(ctx context.Context, orgULID, userULID string) (string, error) {
	var role string
	err := r.queryer().QueryRow(ctx,
		`SELECT role FROM organization_members WHERE org_ulid = $1 AND user_ulid = $2`,
		orgULID, userULID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get member role: %w", err)
	}
	return role, nil
}

func (r *OrganizationRepository) CountMembersWithRole(ctx context.Context, orgULID, role string) (int, error) {
	var count int
	err := r.queryer().QueryRow(ctx,
		`SELECT count(*) FROM organization_members WHERE org_ulid = $1 AND role = $2`,
		orgULID, role).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return count, nil
}
