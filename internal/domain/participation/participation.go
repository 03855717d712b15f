// Package participation covers who attends an event: direct
// registration under a capacity guard, ticket check-in, and the
// application pipeline for events that require one.
package participation

import (
	"strings"
	"time"
)

// ParticipantStatus tracks attendance. Admission always starts at
// NO_SHOW; check-in is the only transition to ATTENDED and happens at
// most once per participant.
type ParticipantStatus string

const (
	StatusNoShow   ParticipantStatus = "NO_SHOW"
	StatusAttended ParticipantStatus = "ATTENDED"
)

// Participant is one admitted seat. TicketCode is minted at admission
// and is globally unique; it is the credential presented at check-in.
// ApplicationID references the approved application the seat came
// from, nil for direct registration.
type Participant struct {
	ID            int64
	EventULID     string
	UserULID      string
	Status        ParticipantStatus
	TicketCode    string
	ApplicationID *int64
	CreatedAt     time.Time
	AttendedAt    *time.Time
}

// ApplicationStatus is the pipeline state of an application. PENDING
// applications hold no seat; approval is the admission point.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "PENDING"
	ApplicationApproved ApplicationStatus = "APPROVED"
	ApplicationRejected ApplicationStatus = "REJECTED"
)

type Application struct {
	ID        int64
	EventULID string
	UserULID  string
	Status    ApplicationStatus
	Message   string
	DecidedBy *string
	DecidedAt *time.Time
	CreatedAt time.Time
}

// Decision is a reviewer's verdict on a pending application.
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

// CheckInRef identifies the participant to check in, by ticket code or
// by participant id. Exactly one field must be set.
type CheckInRef struct {
	TicketCode    string
	ParticipantID int64
}

func (r CheckInRef) validate() error {
	byTicket := r.TicketCode != ""
	byID := r.ParticipantID != 0
	if byTicket == byID {
		return ValidationError{Message: "exactly one of ticket_code or participant_id is required"}
	}
	return nil
}

// CheckInResult pairs the attended participant with the holder's
// identity so the gate operator can verify who is standing in front of
// them.
type CheckInResult struct {
	Participant *Participant
	Username    string
	Name        string
}
