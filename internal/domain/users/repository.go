package users

import "context"

type Repository interface {
	// Insert returns ErrUsernameTaken or ErrEmailTaken on the matching
	// unique violation.
	Insert(ctx context.Context, user *User) error
	GetByULID(ctx context.Context, ulid string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	CountAdmins(ctx context.Context) (int, error)
}
