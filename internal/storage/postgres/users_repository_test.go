package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unievent/server/internal/domain/users"
)

func TestUserInsertUniqueViolations(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	repo := &UserRepository{pool: pool}

	now := time.Now().UTC()
	gender := users.GenderFemale
	user := &users.User{
		ULID:         ulid.Make().String(),
		Username:     "alice42",
		Email:        "alice@example.edu",
		PasswordHash: "hash",
		Role:         users.RoleUser,
		Gender:       &gender,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.Insert(ctx, user))

	dupUsername := *user
	dupUsername.ULID = ulid.Make().String()
	dupUsername.Email = "other@example.edu"
	assert.ErrorIs(t, repo.Insert(ctx, &dupUsername), users.ErrUsernameTaken)

	dupEmail := *user
	dupEmail.ULID = ulid.Make().String()
	dupEmail.Username = "bob99"
	assert.ErrorIs(t, repo.Insert(ctx, &dupEmail), users.ErrEmailTaken)

	got, err := repo.GetByUsername(ctx, "alice42")
	require.NoError(t, err)
	assert.Equal(t, user.ULID, got.ULID)
	require.NotNil(t, got.Gender)
	assert.Equal(t, users.GenderFemale, *got.Gender)

	gender2, err := repo.Gender(ctx, user.ULID)
	require.NoError(t, err)
	assert.Equal(t, users.GenderFemale, gender2)

	_, err = repo.GetByULID(ctx, ulid.Make().String())
	assert.ErrorIs(t, err, users.ErrNotFound)
}

func TestCountAdmins(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	repo := &UserRepository{pool: pool}

	count, err := repo.CountAdmins(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	now := time.Now().UTC()
	require.NoError(t, repo.Insert(ctx, &users.User{
		ULID: ulid.Make().String(), Username: "root", Email: "root@localhost",
		PasswordHash: "hash", Role: users.RoleAdmin, CreatedAt: now, UpdatedAt: now,
	}))

	count, err = repo.CountAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
