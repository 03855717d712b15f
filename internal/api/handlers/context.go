package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/unievent/server/internal/api/middleware"
	"github.com/unievent/server/internal/api/problem"
	"github.com/unievent/server/internal/auth"
	"github.com/unievent/server/internal/domain/events"
	"github.com/unievent/server/internal/domain/participation"
)

const (
	typeValidation  = "https://unievent.example/problems/validation-error"
	typeNotFound    = "https://unievent.example/problems/not-found"
	typeForbidden   = "https://unievent.example/problems/forbidden"
	typeConflict    = "https://unievent.example/problems/conflict"
	typeUnavailable = "https://unievent.example/problems/service-unavailable"
	typeServerError = "https://unievent.example/problems/server-error"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON reads a bounded request body. Unknown fields are rejected
// so typos surface as 400s instead of silently dropped input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// callerClaims returns the authenticated caller or writes a 401. The
// auth middleware runs first on every route that calls this, so a nil
// result here means a wiring mistake rather than a client error.
func callerClaims(w http.ResponseWriter, r *http.Request, env string) *auth.Claims {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		problem.Write(w, r, http.StatusUnauthorized, "https://unievent.example/problems/unauthorized", "Unauthorized", nil, env)
	}
	return claims
}

// EventDirectory reads events for handler-level authorization.
type EventDirectory interface {
	Get(ctx context.Context, eventULID string) (*events.Event, error)
}

// ManagerAuthorizer reports whether a user may manage an event, either
// as its owning user or through an organization role.
type ManagerAuthorizer interface {
	CanManage(ctx context.Context, event *events.Event, userULID string) (bool, error)
}

// requireManager loads the event and checks that the caller manages it.
// Platform admins bypass the ownership check. A problem response is
// written on failure and nil is returned.
func requireManager(w http.ResponseWriter, r *http.Request, dir EventDirectory, authorizer ManagerAuthorizer, eventULID string, claims *auth.Claims, env string) *events.Event {
	event, err := dir.Get(r.Context(), eventULID)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, typeNotFound, "Not found", err, env)
			return nil
		}
		problem.Write(w, r, http.StatusInternalServerError, typeServerError, "Server error", err, env)
		return nil
	}

	if auth.IsAdmin(claims.Role) {
		return event
	}

	allowed, err := authorizer.CanManage(r.Context(), event, claims.Subject)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, typeServerError, "Server error", err, env)
		return nil
	}
	if !allowed {
		problem.Write(w, r, http.StatusForbidden, typeForbidden, "Forbidden", nil, env,
			problem.WithDetail("You do not manage this event"))
		return nil
	}
	return event
}

// writeParticipationError maps the participation error taxonomy onto
// problem responses.
func writeParticipationError(w http.ResponseWriter, r *http.Request, err error, env string) {
	var validation participation.ValidationError
	switch {
	case errors.As(err, &validation):
		problem.Write(w, r, http.StatusBadRequest, typeValidation, "Invalid request", err, env)
	case errors.Is(err, participation.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, typeNotFound, "Not found", err, env)
	case errors.Is(err, participation.ErrForbidden),
		errors.Is(err, participation.ErrGenderRestricted):
		problem.Write(w, r, http.StatusForbidden, typeForbidden, "Forbidden", err, env)
	case errors.Is(err, participation.ErrStateConflict),
		errors.Is(err, participation.ErrAlreadyRegistered),
		errors.Is(err, participation.ErrAlreadyApplied),
		errors.Is(err, participation.ErrCapacityExceeded),
		errors.Is(err, participation.ErrTicketUsed),
		errors.Is(err, participation.ErrAlreadyDecided),
		errors.Is(err, participation.ErrApplicationRequired),
		errors.Is(err, participation.ErrDirectRegistration):
		problem.Write(w, r, http.StatusConflict, typeConflict, "Conflict", err, env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, typeServerError, "Server error", err, env)
	}
}

func timeOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
