package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/unievent/server/internal/domain/participation"
	"github.com/unievent/server/internal/domain/users"
)

var (
	_ users.Repository            = (*UserRepository)(nil)
	_ participation.UserDirectory = (*UserRepository)(nil)
)

const userColumns = `
	ulid, username, name, email, password_hash, role, gender, created_at, updated_at`

func (r *UserRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func (r *UserRepository) Insert(ctx context.Context, user *users.User) error {
	_, err := r.queryer().Exec(ctx, `
INSERT INTO users (ulid, username, name, email, password_hash, role, gender, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ULID, user.Username, user.Name, user.Email, user.PasswordHash,
		user.Role, user.Gender, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if uniqueViolation(err, "users_username_key") {
			return users.ErrUsernameTaken
		}
		if uniqueViolation(err, "users_email_key") {
			return users.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByULID(ctx context.Context, ulid string) (*users.User, error) {
	row := r.queryer().QueryRow(ctx, `SELECT`+userColumns+` FROM users WHERE ulid = $1`, ulid)
	return scanUser(row)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	row := r.queryer().QueryRow(ctx, `SELECT`+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func (r *UserRepository) CountAdmins(ctx context.Context) (int, error) {
	var count int
	err := r.queryer().QueryRow(ctx, `SELECT count(*) FROM users WHERE role = 'admin'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return count, nil
}

// Gender satisfies the directory lookup used by gender-restricted
// admission.
func (r *UserRepository) Gender(ctx context.Context, userULID string) (string, error) {
	var gender *string
	err := r.queryer().QueryRow(ctx, `SELECT gender FROM users WHERE ulid = $1`, userULID).Scan(&gender)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", users.ErrNotFound
		}
		return "", fmt.Errorf("get user gender: %w", err)
	}
	if gender == nil {
		return "", nil
	}
	return *gender, nil
}

// Identity resolves the username and display name shown on the
// check-in receipt.
func (r *UserRepository) Identity(ctx context.Context, userULID string) (string, string, error) {
	var username, name string
	err := r.queryer().QueryRow(ctx, `SELECT username, name FROM users WHERE ulid = $1`, userULID).
		Scan(&username, &name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", users.ErrNotFound
		}
		return "", "", fmt.Errorf("get user identity: %w", err)
	}
	return username, name, nil
}

func scanUser(row pgx.Row) (*users.User, error) {
	var user users.User
	err := row.Scan(
		&user.ULID, &user.Username, &user.Name, &user.Email, &user.PasswordHash,
		&user.Role, &user.Gender, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}
