package participation

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("participation record not found")

	// ErrStateConflict marks an operation against an event whose
	// lifecycle state does not allow it, such as registering for an
	// event that is not FUTURE.
	ErrStateConflict = errors.New("event state does not allow this operation")

	ErrAlreadyRegistered = errors.New("user already registered for this event")
	ErrAlreadyApplied    = errors.New("user already applied to this event")

	// ErrCapacityExceeded means the admission would take the event past
	// its capacity. On application approval the application stays
	// PENDING when this fires.
	ErrCapacityExceeded = errors.New("event capacity exceeded")

	// ErrTicketUsed means the participant was already checked in; the
	// first check-in keeps its ATTENDED state.
	ErrTicketUsed = errors.New("ticket already used")

	ErrAlreadyDecided = errors.New("application already decided")

	// ErrApplicationRequired rejects direct registration for events
	// admitting only through approved applications.
	ErrApplicationRequired = errors.New("event admits participants by application only")

	// ErrDirectRegistration rejects an application to an event that
	// admits by direct registration.
	ErrDirectRegistration = errors.New("event admits participants by direct registration")

	ErrGenderRestricted = errors.New("event is restricted to another gender")

	ErrForbidden = errors.New("not allowed to act on this participation record")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
