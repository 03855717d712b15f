package participation

import (
	"context"

	"github.com/unievent/server/internal/domain/events"
)

// Repository is the storage contract for admission and check-in. The
// ForUpdate methods must acquire row locks that hold until the
// enclosing WithTx transaction commits; every admission and check-in
// runs inside one.
type Repository interface {
	// GetEventForUpdate loads and locks the event row so that the
	// capacity check and insert that follow are serialized across
	// concurrent admissions.
	GetEventForUpdate(ctx context.Context, eventULID string) (*events.Event, error)
	// GetEvent is the unlocked read used where no seat is granted, such
	// as filing an application.
	GetEvent(ctx context.Context, eventULID string) (*events.Event, error)
	CountParticipants(ctx context.Context, eventULID string) (int, error)

	FindParticipant(ctx context.Context, eventULID, userULID string) (*Participant, error)
	// InsertParticipant returns ErrAlreadyRegistered when the
	// (event, user) pair already holds a seat and ErrTicketUsed when the
	// ticket code collides.
	InsertParticipant(ctx context.Context, participant *Participant) error
	DeleteParticipant(ctx context.Context, eventULID, userULID string) error

	GetParticipantByTicketForUpdate(ctx context.Context, eventULID, ticketCode string) (*Participant, error)
	GetParticipantByIDForUpdate(ctx context.Context, eventULID string, participantID int64) (*Participant, error)
	MarkAttended(ctx context.Context, participantID int64) error

	FindApplication(ctx context.Context, eventULID, userULID string) (*Application, error)
	// InsertApplication returns ErrAlreadyApplied when the (event, user)
	// pair already has an application in any state.
	InsertApplication(ctx context.Context, application *Application) error
	GetApplicationForUpdate(ctx context.Context, applicationID int64) (*Application, error)
	UpdateApplicationStatus(ctx context.Context, application *Application) error
	DeleteApplication(ctx context.Context, eventULID, userULID string) error

	ListParticipants(ctx context.Context, eventULID string) ([]*Participant, error)
	ListApplications(ctx context.Context, eventULID string) ([]*Application, error)

	// WithTx runs fn against a transactional copy of the repository and
	// commits when fn returns nil. Row locks taken inside fn are held
	// until then.
	WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

// UserDirectory exposes the profile fields admission rules consult.
type UserDirectory interface {
	// Gender returns the user's profile gender, or "" when unset.
	Gender(ctx context.Context, userULID string) (string, error)

	// Identity returns the user's username and display name, used on the
	// check-in receipt so the gate operator can verify the ticket holder.
	Identity(ctx context.Context, userULID string) (username, name string, err error)
}
