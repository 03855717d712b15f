package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/unievent/server/internal/domain/ids"
	"github.com/unievent/server/internal/moderation"
	"github.com/unievent/server/internal/sanitize"
)

// LifecycleService is the only writer of event lifecycle state. It
// consumes the moderation gate at creation time and owns the review
// and sweep transitions.
type LifecycleService struct {
	repo     Repository
	gate     *moderation.Gate
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewLifecycleService(repo Repository, gate *moderation.Gate, logger zerolog.Logger) *LifecycleService {
	return &LifecycleService{
		repo:     repo,
		gate:     gate,
		validate: validator.New(),
		logger:   logger,
	}
}

// Create sanitizes the caller-supplied content, runs it through the
// moderation gate, and inserts the event. Safe content publishes
// immediately as FUTURE; anything else, including a gate that could
// not be evaluated, parks the event in PENDING_REVIEW with the verdict
// persisted.
func (s *LifecycleService) Create(ctx context.Context, params CreateParams) (*Event, error) {
	params.Title = sanitize.Text(params.Title)
	params.Description = sanitize.HTML(params.Description)

	if err := s.validate.Struct(params); err != nil {
		return nil, ValidationError{Message: err.Error()}
	}
	if params.OwnerType != OwnerUser && params.OwnerType != OwnerOrganization {
		return nil, ValidationError{Field: "owner_type", Message: "must be USER or ORGANIZATION"}
	}
	if params.OwnerType == OwnerOrganization && params.OwnerOrgID == nil {
		return nil, ValidationError{Field: "organization_id", Message: "required for organization-owned events"}
	}
	if params.EndsAt != nil && params.EndsAt.Before(params.StartsAt) {
		return nil, ValidationError{Field: "ends_at", Message: "must be on or after starts_at"}
	}

	verdict := s.gate.Review(ctx, params.Title, params.Description)

	ulid, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint event id: %w", err)
	}

	now := time.Now().UTC()
	event := &Event{
		ULID:                ulid,
		Title:               params.Title,
		Description:         params.Description,
		OwnerType:           params.OwnerType,
		OwnerUserID:         params.OwnerUserID,
		OwnerOrgID:          params.OwnerOrgID,
		Capacity:            params.Capacity,
		StartsAt:            params.StartsAt.UTC(),
		RequiresApplication: params.RequiresApplication,
		OnlyEligibleGender:  params.OnlyEligibleGender,
		Location:            params.Location,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if params.EndsAt != nil {
		endsAt := params.EndsAt.UTC()
		event.EndsAt = &endsAt
	}

	if verdict.IsSafe {
		event.Status = StatusFuture
	} else {
		event.Status = StatusPendingReview
		event.ReviewReason = &verdict.Reason
		event.ReviewSource = &verdict.Source
		if flags, err := json.Marshal(verdict.Flags); err == nil {
			flagsJSON := string(flags)
			event.ReviewFlags = &flagsJSON
		}
	}

	if err := s.repo.Insert(ctx, event); err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	s.logger.Info().
		Str("event_id", event.ULID).
		Str("status", string(event.Status)).
		Str("moderation_source", verdict.Source).
		Msg("event created")
	return event, nil
}

// Review resolves a PENDING_REVIEW event. Any other current status
// fails with ErrStateConflict; the underlying conditional update makes
// that race-free against a concurrent review or sweep.
func (s *LifecycleService) Review(ctx context.Context, eventULID string, decision Decision, adminULID string, note string) (*Event, error) {
	target := StatusFuture
	if decision == DecisionRejected {
		target = StatusRejected
	}

	var adminNote *string
	if note != "" {
		adminNote = &note
	}

	applied, err := s.repo.ApplyReview(ctx, eventULID, target, adminULID, time.Now().UTC(), adminNote)
	if err != nil {
		return nil, fmt.Errorf("apply review: %w", err)
	}
	if !applied {
		// Distinguish a missing event from one already past review.
		if _, err := s.repo.GetByULID(ctx, eventULID); err != nil {
			return nil, err
		}
		return nil, ErrStateConflict
	}

	event, err := s.repo.GetByULID(ctx, eventULID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("event_id", eventULID).
		Str("decision", string(decision)).
		Str("reviewed_by", adminULID).
		Msg("event reviewed")
	return event, nil
}

// Reevaluate re-runs the moderation gate for a PENDING_REVIEW event on
// admin request. Unlike creation, an unreachable classifier is
// surfaced to the caller instead of being swallowed.
func (s *LifecycleService) Reevaluate(ctx context.Context, eventULID string) (*Event, error) {
	event, err := s.repo.GetByULID(ctx, eventULID)
	if err != nil {
		return nil, err
	}
	if event.Status != StatusPendingReview {
		return nil, ErrStateConflict
	}

	verdict := s.gate.Review(ctx, event.Title, event.Description)
	if verdict.Source == moderation.SourceUnreachable {
		return nil, ErrModerationUnavailable
	}

	status := StatusPendingReview
	var reason *string
	var flagsJSON *string
	if verdict.IsSafe {
		status = StatusFuture
	} else {
		reason = &verdict.Reason
		if flags, err := json.Marshal(verdict.Flags); err == nil {
			encoded := string(flags)
			flagsJSON = &encoded
		}
	}

	applied, err := s.repo.UpdateModeration(ctx, eventULID, status, reason, flagsJSON, verdict.Source)
	if err != nil {
		return nil, fmt.Errorf("update moderation verdict: %w", err)
	}
	if !applied {
		// The event left PENDING_REVIEW while the classifier ran; the
		// review decision that got there first stands.
		return nil, ErrStateConflict
	}

	s.logger.Info().
		Str("event_id", eventULID).
		Bool("is_safe", verdict.IsSafe).
		Str("moderation_source", verdict.Source).
		Msg("event moderation re-evaluated")
	return s.repo.GetByULID(ctx, eventULID)
}

// SweepCompleted advances every expired FUTURE event to COMPLETED.
// Safe to invoke repeatedly or concurrently: the predicate only ever
// matches rows still in FUTURE.
func (s *LifecycleService) SweepCompleted(ctx context.Context) (int64, error) {
	updated, err := s.repo.SweepCompleted(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep completed events: %w", err)
	}
	if updated > 0 {
		s.logger.Info().Int64("updated_count", updated).Msg("expired events moved to COMPLETED")
	}
	return updated, nil
}

func (s *LifecycleService) Get(ctx context.Context, eventULID string) (*Event, error) {
	return s.repo.GetByULID(ctx, eventULID)
}
