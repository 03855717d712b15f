package events

import (
	"strings"
	"time"
)

// Status is the lifecycle state of an event. Transitions happen only
// through the lifecycle service: creation decides between FUTURE and
// PENDING_REVIEW, admin review resolves PENDING_REVIEW, and the sweep
// moves expired FUTURE events to COMPLETED. REJECTED and COMPLETED are
// terminal.
type Status string

const (
	StatusPendingReview Status = "PENDING_REVIEW"
	StatusFuture        Status = "FUTURE"
	StatusRejected      Status = "REJECTED"
	StatusCompleted     Status = "COMPLETED"
)

func ParseStatus(value string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(value))) {
	case StatusPendingReview:
		return StatusPendingReview, nil
	case StatusFuture:
		return StatusFuture, nil
	case StatusRejected:
		return StatusRejected, nil
	case StatusCompleted:
		return StatusCompleted, nil
	default:
		return "", ValidationError{Field: "status", Message: "unrecognized status value"}
	}
}

type OwnerType string

const (
	OwnerUser         OwnerType = "USER"
	OwnerOrganization OwnerType = "ORGANIZATION"
)

type Event struct {
	ULID        string
	Title       string
	Description string

	OwnerType OwnerType
	// OwnerUserID is the creating user. For organization-owned events it
	// records who created the event on the organization's behalf.
	OwnerUserID string
	OwnerOrgID  *string

	Status Status

	// Capacity is the maximum number of participants; nil means unlimited.
	// Immutable after creation.
	Capacity *int

	StartsAt time.Time
	// EndsAt falls back to StartsAt for completion checks when nil.
	EndsAt *time.Time

	// RequiresApplication disables direct registration; admission then
	// only happens through an approved application.
	RequiresApplication bool

	// OnlyEligibleGender restricts admission to users whose profile
	// gender matches; nil means no restriction.
	OnlyEligibleGender *string

	Location string

	ReviewReason *string
	ReviewFlags  *string
	ReviewSource *string
	ReviewedBy   *string
	ReviewedAt   *time.Time
	AdminNote    *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EndsAtOrStart returns the timestamp the sweep compares against now.
func (e *Event) EndsAtOrStart() time.Time {
	if e.EndsAt != nil {
		return *e.EndsAt
	}
	return e.StartsAt
}

// CreateParams carries the caller-supplied fields for a new event.
// Title and Description arrive already sanitized by the service.
type CreateParams struct {
	Title               string `validate:"required,max=300"`
	Description         string `validate:"required,max=10000"`
	OwnerType           OwnerType
	OwnerUserID         string `validate:"required"`
	OwnerOrgID          *string
	Capacity            *int `validate:"omitempty,min=1"`
	StartsAt            time.Time
	EndsAt              *time.Time
	RequiresApplication bool
	OnlyEligibleGender  *string
	Location            string `validate:"max=500"`
}

// Decision is an admin's verdict on a PENDING_REVIEW event.
type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

func ParseDecision(value string) (Decision, error) {
	switch Decision(strings.ToUpper(strings.TrimSpace(value))) {
	case DecisionApproved:
		return DecisionApproved, nil
	case DecisionRejected:
		return DecisionRejected, nil
	default:
		return "", ValidationError{Field: "decision", Message: "must be APPROVED or REJECTED"}
	}
}
