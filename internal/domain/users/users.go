// Package users manages accounts: registration, credential checks,
// and the bootstrap admin.
package users

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrEmailTaken         = errors.New("email is already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	// BcryptCost is the cost factor for password hashing.
	BcryptCost = 12
)

// Recognized profile genders. The field is optional and only consulted
// by gender-restricted events.
const (
	GenderFemale = "FEMALE"
	GenderMale   = "MALE"
)

type User struct {
	ULID         string
	Username     string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Gender       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type RegisterParams struct {
	Username string `validate:"required,min=3,max=64,alphanum"`
	Name     string `validate:"max=128"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8,max=128"`
	Gender   *string
}

func normalizeGender(value string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case GenderFemale:
		return GenderFemale, true
	case GenderMale:
		return GenderMale, true
	default:
		return "", false
	}
}
