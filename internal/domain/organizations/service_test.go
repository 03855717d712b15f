package organizations

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	orgs    map[string]*Organization
	members map[string]map[string]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orgs: make(map[string]*Organization), members: make(map[string]map[string]string)}
}

func (r *fakeRepo) Insert(_ context.Context, org *Organization) error {
	r.orgs[org.ULID] = org
	return nil
}

func (r *fakeRepo) GetByULID(_ context.Context, ulid string) (*Organization, error) {
	org, ok := r.orgs[ulid]
	if !ok {
		return nil, ErrNotFound
	}
	return org, nil
}

func (r *fakeRepo) UpsertMember(_ context.Context, member *Member) error {
	if r.members[member.OrgULID] == nil {
		r.members[member.OrgULID] = make(map[string]string)
	}
	r.members[member.OrgULID][member.UserULID] = member.Role
	return nil
}

func (r *fakeRepo) RemoveMember(_ context.Context, orgULID, userULID string) error {
	delete(r.members[orgULID], userULID)
	return nil
}

func (r *fakeRepo) MemberRole(_ context.Context, orgULID, userULID string) (string, error) {
	return r.members[orgULID][userULID], nil
}

func (r *fakeRepo) CountMembersWithRole(_ context.Context, orgULID, role string) (int, error) {
	count := 0
	for _, memberRole := range r.members[orgULID] {
		if memberRole == role {
			count++
		}
	}
	return count, nil
}

func TestCreateMakesCreatorAdmin(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, zerolog.Nop())

	org, err := svc.Create(context.Background(), "Chess Club", "<b>Weekly</b> games", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Chess Club", org.Name)

	role, err := repo.MemberRole(context.Background(), org.ULID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)
}

func TestCreateSanitizesName(t *testing.T) {
	svc := NewService(newFakeRepo(), zerolog.Nop())

	org, err := svc.Create(context.Background(), "<script>x</script>Robotics", "", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Robotics", org.Name)

	_, err = svc.Create(context.Background(), "  ", "", "user-1")
	assert.Error(t, err)
}

func TestSetMemberRole(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, zerolog.Nop())

	org, err := svc.Create(context.Background(), "Chess Club", "", "admin-1")
	require.NoError(t, err)

	require.NoError(t, svc.SetMemberRole(context.Background(), org.ULID, "admin-1", "user-2", "representative"))
	role, err := repo.MemberRole(context.Background(), org.ULID, "user-2")
	require.NoError(t, err)
	assert.Equal(t, RoleRepresentative, role)

	err = svc.SetMemberRole(context.Background(), org.ULID, "user-2", "user-3", RoleMember)
	assert.ErrorIs(t, err, ErrForbidden)

	err = svc.SetMemberRole(context.Background(), org.ULID, "admin-1", "user-3", "OVERLORD")
	assert.Error(t, err)
}

func TestLastAdminCannotDemoteSelf(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, zerolog.Nop())

	org, err := svc.Create(context.Background(), "Chess Club", "", "admin-1")
	require.NoError(t, err)

	err = svc.SetMemberRole(context.Background(), org.ULID, "admin-1", "admin-1", RoleMember)
	assert.ErrorIs(t, err, ErrLastAdmin)

	// With a second admin in place the demotion goes through.
	require.NoError(t, svc.SetMemberRole(context.Background(), org.ULID, "admin-1", "admin-2", RoleAdmin))
	require.NoError(t, svc.SetMemberRole(context.Background(), org.ULID, "admin-1", "admin-1", RoleMember))
}

func TestRemoveMember(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, zerolog.Nop())

	org, err := svc.Create(context.Background(), "Chess Club", "", "admin-1")
	require.NoError(t, err)
	require.NoError(t, svc.SetMemberRole(context.Background(), org.ULID, "admin-1", "user-2", RoleMember))

	// Self-removal needs no admin role.
	require.NoError(t, svc.RemoveMember(context.Background(), org.ULID, "user-2", "user-2"))

	err = svc.RemoveMember(context.Background(), org.ULID, "admin-1", "user-2")
	assert.ErrorIs(t, err, ErrMemberNotFound)

	err = svc.RemoveMember(context.Background(), org.ULID, "admin-1", "admin-1")
	assert.ErrorIs(t, err, ErrLastAdmin)
}
