package organizations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/unievent/server/internal/domain/ids"
	"github.com/unievent/server/internal/sanitize"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "organizations").Logger()}
}

// Create registers an organization; the creator becomes its first ADMIN.
func (s *Service) Create(ctx context.Context, name, description, creatorULID string) (*Organization, error) {
	name = sanitize.Text(strings.TrimSpace(name))
	if name == "" {
		return nil, ValidationError{Field: "name", Message: "required"}
	}

	ulid, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint organization id: %w", err)
	}

	now := time.Now().UTC()
	org := &Organization{
		ULID:        ulid,
		Name:        name,
		Description: sanitize.HTML(description),
		CreatedBy:   creatorULID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, org); err != nil {
		return nil, err
	}
	if err := s.repo.UpsertMember(ctx, &Member{OrgULID: ulid, UserULID: creatorULID, Role: RoleAdmin, CreatedAt: now}); err != nil {
		return nil, fmt.Errorf("add creator as admin: %w", err)
	}

	s.logger.Info().Str("org_id", ulid).Str("created_by", creatorULID).Msg("organization created")
	return org, nil
}

func (s *Service) Get(ctx context.Context, ulid string) (*Organization, error) {
	return s.repo.GetByULID(ctx, ulid)
}

// SetMemberRole adds or reassigns a member. Only organization ADMINs
// may call it, and the last ADMIN cannot demote themselves.
func (s *Service) SetMemberRole(ctx context.Context, orgULID, actorULID, userULID, role string) error {
	parsed, err := ParseRole(role)
	if err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, orgULID, actorULID); err != nil {
		return err
	}

	if actorULID == userULID && parsed != RoleAdmin {
		admins, err := s.repo.CountMembersWithRole(ctx, orgULID, RoleAdmin)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}

	err = s.repo.UpsertMember(ctx, &Member{
		OrgULID:   orgULID,
		UserULID:  userULID,
		Role:      parsed,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("org_id", orgULID).
		Str("user_id", userULID).
		Str("role", parsed).
		Msg("organization member role set")
	return nil
}

// RemoveMember drops a membership. ADMINs may remove anyone but the
// last ADMIN; members may remove themselves.
func (s *Service) RemoveMember(ctx context.Context, orgULID, actorULID, userULID string) error {
	if actorULID != userULID {
		if err := s.requireAdmin(ctx, orgULID, actorULID); err != nil {
			return err
		}
	}

	role, err := s.repo.MemberRole(ctx, orgULID, userULID)
	if err != nil {
		return err
	}
	if role == "" {
		return ErrMemberNotFound
	}
	if role == RoleAdmin {
		admins, err := s.repo.CountMembersWithRole(ctx, orgULID, RoleAdmin)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}
	return s.repo.RemoveMember(ctx, orgULID, userULID)
}

// MemberRole satisfies the membership lookup used by event ownership
// checks.
func (s *Service) MemberRole(ctx context.Context, orgULID, userULID string) (string, error) {
	return s.repo.MemberRole(ctx, orgULID, userULID)
}

func (s *Service) requireAdmin(ctx context.Context, orgULID, actorULID string) error {
	role, err := s.repo.MemberRole(ctx, orgULID, actorULID)
	if err != nil {
		return err
	}
	if role != RoleAdmin {
		return ErrForbidden
	}
	return nil
}
