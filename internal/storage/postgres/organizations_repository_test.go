package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unievent/server/internal/domain/organizations"
)

func TestOrganizationMembership(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	repo := &OrganizationRepository{pool: pool}

	creator := insertUser(t, ctx, pool, "creator")
	member := insertUser(t, ctx, pool, "member")
	now := time.Now().UTC()

	org := &organizations.Organization{
		ULID:      ulid.Make().String(),
		Name:      "Chess Club",
		CreatedBy: creator,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Insert(ctx, org))

	got, err := repo.GetByULID(ctx, org.ULID)
	require.NoError(t, err)
	assert.Equal(t, "Chess Club", got.Name)

	require.NoError(t, repo.UpsertMember(ctx, &organizations.Member{
		OrgULID: org.ULID, UserULID: member, Role: organizations.RoleMember, CreatedAt: now,
	}))

	role, err := repo.MemberRole(ctx, org.ULID, member)
	require.NoError(t, err)
	assert.Equal(t, organizations.RoleMember, role)

	// Upsert reassigns the role in place.
	require.NoError(t, repo.UpsertMember(ctx, &organizations.Member{
		OrgULID: org.ULID, UserULID: member, Role: organizations.RoleRepresentative, CreatedAt: now,
	}))
	role, err = repo.MemberRole(ctx, org.ULID, member)
	require.NoError(t, err)
	assert.Equal(t, organizations.RoleRepresentative, role)

	count, err := repo.CountMembersWithRole(ctx, org.ULID, organizations.RoleRepresentative)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Non-members resolve to the empty role.
	role, err = repo.MemberRole(ctx, org.ULID, creator)
	require.NoError(t, err)
	assert.Empty(t, role)

	require.NoError(t, repo.RemoveMember(ctx, org.ULID, member))
	assert.ErrorIs(t, repo.RemoveMember(ctx, org.ULID, member), organizations.ErrMemberNotFound)

	_, err = repo.GetByULID(ctx, ulid.Make().String())
	assert.ErrorIs(t, err, organizations.ErrNotFound)
}
