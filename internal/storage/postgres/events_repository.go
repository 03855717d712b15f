package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/unievent/server/internal/domain/events"
)

var _ events.Repository = (*EventRepository)(nil)

const eventColumns = `
	ulid, title, description, owner_type, owner_user_id, owner_org_id, status,
	capacity, starts_at, ends_at, requires_application, only_eligible_gender,
	location, review_reason, review_flags, review_source, reviewed_by,
	reviewed_at, admin_note, created_at, updated_at`

func (r *EventRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func (r *EventRepository) Insert(ctx context.Context, event *events.Event) error {
	_, err := r.queryer().Exec(ctx, `
INSERT INTO events (
	ulid, title, description, owner_type, owner_user_id, owner_org_id, status,
	capacity, starts_at, ends_at, requires_application, only_eligible_gender,
	location, review_reason, review_flags, review_source, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		event.ULID, event.Title, event.Description, string(event.OwnerType),
		event.OwnerUserID, event.OwnerOrgID, string(event.Status),
		event.Capacity, event.StartsAt, timestamptz(event.EndsAt),
		event.RequiresApplication, event.OnlyEligibleGender, event.Location,
		event.ReviewReason, event.ReviewFlags, event.ReviewSource,
		event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *EventRepository) GetByULID(ctx context.Context, ulid string) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `SELECT`+eventColumns+` FROM events WHERE ulid = $1`, ulid)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) ApplyReview(ctx context.Context, ulid string, status events.Status, reviewedBy string, reviewedAt time.Time, adminNote *string) (bool, error) {
	tag, err := r.queryer().Exec(ctx, `
UPDATE events
   SET status = $2,
       reviewed_by = $3,
       reviewed_at = $4,
       admin_note = $5,
       updated_at = now()
 WHERE ulid = $1
   AND status = 'PENDING_REVIEW'`,
		ulid, string(status), reviewedBy, reviewedAt, adminNote,
	)
	if err != nil {
		return false, fmt.Errorf("apply review: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SweepCompleted is one set-based update; events without an end fall
// back to their start time.
func (r *EventRepository) SweepCompleted(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.queryer().Exec(ctx, `
UPDATE events
   SET status = 'COMPLETED',
       updated_at = now()
 WHERE status = 'FUTURE'
   AND (ends_at < $1 OR (ends_at IS NULL AND starts_at < $1))`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("sweep completed: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *EventRepository) UpdateModeration(ctx context.Context, ulid string, status events.Status, reason *string, flags *string, source string) (bool, error) {
	tag, err := r.queryer().Exec(ctx, `
UPDATE events
   SET status = $2,
       review_reason = $3,
       review_flags = $4,
       review_source = $5,
       updated_at = now()
 WHERE ulid = $1
   AND status = 'PENDING_REVIEW'`,
		ulid, string(status), reason, flags, source,
	)
	if err != nil {
		return false, fmt.Errorf("update moderation verdict: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanEvent(row pgx.Row) (*events.Event, error) {
	var (
		event      events.Event
		ownerType  string
		status     string
		endsAt     pgtype.Timestamptz
		reviewedAt pgtype.Timestamptz
	)
	err := row.Scan(
		&event.ULID, &event.Title, &event.Description, &ownerType,
		&event.OwnerUserID, &event.OwnerOrgID, &status, &event.Capacity,
		&event.StartsAt, &endsAt, &event.RequiresApplication,
		&event.OnlyEligibleGender, &event.Location, &event.ReviewReason,
		&event.ReviewFlags, &event.ReviewSource, &event.ReviewedBy,
		&reviewedAt, &event.AdminNote, &event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	event.OwnerType = events.OwnerType(ownerType)
	event.Status = events.Status(status)
	event.EndsAt = timeOrNil(endsAt)
	event.ReviewedAt = timeOrNil(reviewedAt)
	return &event, nil
}
