package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/unievent/server/internal/domain/ids"
)

type Service struct {
	repo     Repository
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(),
		logger:   logger.With().Str("component", "users").Logger(),
	}
}

// Register creates a regular account. The password is stored only as a
// bcrypt hash.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	params.Username = strings.TrimSpace(params.Username)
	params.Name = strings.TrimSpace(params.Name)
	params.Email = strings.TrimSpace(strings.ToLower(params.Email))
	if err := s.validate.Struct(params); err != nil {
		return nil, fmt.Errorf("invalid registration: %w", err)
	}

	var gender *string
	if params.Gender != nil {
		normalized, ok := normalizeGender(*params.Gender)
		if !ok {
			return nil, fmt.Errorf("invalid registration: unrecognized gender")
		}
		gender = &normalized
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	ulid, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint user id: %w", err)
	}

	now := time.Now().UTC()
	user := &User{
		ULID:         ulid,
		Username:     params.Username,
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: string(hash),
		Role:         RoleUser,
		Gender:       gender,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ULID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

// Authenticate checks credentials and returns the account. Unknown
// usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, ulid string) (*User, error) {
	return s.repo.GetByULID(ctx, ulid)
}

// EnsureAdmin creates the bootstrap admin account at startup when no
// admin exists yet. A second run is a no-op.
func (s *Service) EnsureAdmin(ctx context.Context, username, email, password string) error {
	if username == "" || password == "" {
		return nil
	}
	if email == "" {
		email = username + "@localhost"
	}

	count, err := s.repo.CountAdmins(ctx)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	ulid, err := ids.NewULID()
	if err != nil {
		return fmt.Errorf("mint admin id: %w", err)
	}

	now := time.Now().UTC()
	err = s.repo.Insert(ctx, &User{
		ULID:         ulid,
		Username:     username,
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		Role:         RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		// A concurrent replica may have bootstrapped first.
		if errors.Is(err, ErrUsernameTaken) || errors.Is(err, ErrEmailTaken) {
			return nil
		}
		return fmt.Errorf("insert bootstrap admin: %w", err)
	}

	s.logger.Info().Str("username", username).Msg("bootstrap admin created")
	return nil
}
