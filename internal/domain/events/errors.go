package events

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("event not found")

	// ErrStateConflict marks an operation that is illegal in the event's
	// current lifecycle state, such as reviewing an event that is not
	// PENDING_REVIEW.
	ErrStateConflict = errors.New("operation not allowed in current event state")

	// ErrModerationUnavailable is surfaced verbatim only on
	// admin-triggered re-evaluation; creation handles the same condition
	// internally by failing closed into PENDING_REVIEW.
	ErrModerationUnavailable = errors.New("moderation service unavailable")
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
