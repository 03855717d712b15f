package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/unievent/server/internal/api/problem"
	"github.com/unievent/server/internal/audit"
	"github.com/unievent/server/internal/domain/events"
	"github.com/unievent/server/internal/metrics"
)

// AdminLifecycle is the admin-only slice of the event lifecycle:
// resolving the review queue and running the completion sweep on
// demand.
type AdminLifecycle interface {
	Review(ctx context.Context, eventULID string, decision events.Decision, adminULID string, note string) (*events.Event, error)
	Reevaluate(ctx context.Context, eventULID string) (*events.Event, error)
	SweepCompleted(ctx context.Context) (int64, error)
}

type AdminHandler struct {
	Lifecycle AdminLifecycle
	Audit     *audit.Logger
	Env       string
}

func NewAdminHandler(lifecycle AdminLifecycle, auditLog *audit.Logger, env string) *AdminHandler {
	return &AdminHandler{Lifecycle: lifecycle, Audit: auditLog, Env: env}
}

type reviewRequest struct {
	Decision string `json:"decision"`
	Note     string `json:"note,omitempty"`
}

// Review handles POST /api/v1/admin/events/{id}/review. Only events
// currently in PENDING_REVIEW can be resolved; a second decision
// conflicts instead of overwriting the first.
func (h *AdminHandler) Review(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(w, r, h.Env)
	if claims == nil {
		return
	}

	var req reviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, typeValidation, "Invalid request", err, h.Env)
		return
	}
	decision, err := events.ParseDecision(req.Decision)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, typeValidation, "Invalid request", err, h.Env)
		return
	}

	event, err := h.Lifecycle.Review(r.Context(), r.PathValue("id"), decision, claims.Subject, req.Note)
	if err != nil {
		h.Audit.Failure("event_review", claims.Subject, "event", r.PathValue("id"), err.Error())
		writeEventError(w, r, err, h.Env)
		return
	}
	h.Audit.Success("event_review", claims.Subject, "event", event.ULID)
	writeJSON(w, http.StatusOK, eventPayload(event))
}

// Reevaluate handles POST /api/v1/admin/events/{id}/reevaluate,
// re-running moderation for a parked event. A classifier outage is
// reported as 503 here rather than parking the event again.
func (h *AdminHandler) Reevaluate(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(w, r, h.Env)
	if claims == nil {
		return
	}

	event, err := h.Lifecycle.Reevaluate(r.Context(), r.PathValue("id"))
	if err != nil {
		h.Audit.Failure("event_reevaluate", claims.Subject, "event", r.PathValue("id"), err.Error())
		writeEventError(w, r, err, h.Env)
		return
	}
	h.Audit.Success("event_reevaluate", claims.Subject, "event", event.ULID)
	writeJSON(w, http.StatusOK, eventPayload(event))
}

// Sweep handles POST /api/v1/admin/sweep, the manual counterpart of
// the hourly job.
func (h *AdminHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(w, r, h.Env)
	if claims == nil {
		return
	}

	updated, err := h.Lifecycle.SweepCompleted(r.Context())
	if err != nil {
		h.Audit.Failure("manual_sweep", claims.Subject, "event", "", err.Error())
		problem.Write(w, r, http.StatusInternalServerError, typeServerError, "Server error", err, h.Env)
		return
	}

	h.Audit.Success("manual_sweep", claims.Subject, "event", "")
	metrics.SweepRuns.Inc()
	metrics.SweepCompletedEvents.Add(float64(updated))
	writeJSON(w, http.StatusOK, map[string]int64{"updated_count": updated})
}

func writeEventError(w http.ResponseWriter, r *http.Request, err error, env string) {
	var validation events.ValidationError
	switch {
	case errors.As(err, &validation):
		problem.Write(w, r, http.StatusBadRequest, typeValidation, "Invalid request", err, env)
	case errors.Is(err, events.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, typeNotFound, "Not found", err, env)
	case errors.Is(err, events.ErrStateConflict):
		problem.Write(w, r, http.StatusConflict, typeConflict, "Conflict", err, env)
	case errors.Is(err, events.ErrModerationUnavailable):
		problem.Write(w, r, http.StatusServiceUnavailable, typeUnavailable, "Service unavailable", err, env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, typeServerError, "Server error", err, env)
	}
}
