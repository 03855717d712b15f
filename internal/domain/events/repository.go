package events

import (
	"context"
	"time"
)

type Repository interface {
	Insert(ctx context.Context, event *Event) error
	GetByULID(ctx context.Context, ulid string) (*Event, error)

	// ApplyReview conditionally moves a PENDING_REVIEW event to the given
	// status, recording the reviewer. It returns false without writing
	// when the event is not currently PENDING_REVIEW, so a racing second
	// review loses deterministically.
	ApplyReview(ctx context.Context, ulid string, status Status, reviewedBy string, reviewedAt time.Time, adminNote *string) (bool, error)

	// UpdateModeration rewrites the moderation verdict fields and status
	// for an event still in PENDING_REVIEW, used by admin-triggered
	// re-evaluation. It returns false without writing when the event has
	// left PENDING_REVIEW, so a verdict computed before a racing review
	// decision cannot overwrite it.
	UpdateModeration(ctx context.Context, ulid string, status Status, reason *string, flags *string, source string) (bool, error)

	// SweepCompleted executes the bulk FUTURE→COMPLETED transition as one
	// set-based update and reports how many rows moved.
	SweepCompleted(ctx context.Context, now time.Time) (int64, error)
}

// MembershipDirectory resolves a user's role inside an organization.
type MembershipDirectory interface {
	// MemberRole returns the member's role, or "" when the user is not a
	// member of the organization.
	MemberRole(ctx context.Context, orgULID, userULID string) (string, error)
}
