package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/unievent/server/internal/api/problem"
	"github.com/unievent/server/internal/domain/participation"
	"github.com/unievent/server/internal/metrics"
)

// ApplicationService covers the application pipeline for events that
// disable direct registration.
type ApplicationService interface {
	Apply(ctx context.Context, eventULID, userULID, message string) (*participation.Application, error)
	Decide(ctx context.Context, eventULID string, applicationID int64, decision participation.Decision, decidedBy string) (*participation.Application, error)
	WithdrawApplication(ctx context.Context, eventULID, userULID string) error
	ListApplications(ctx context.Context, eventULID string) ([]*participation.Application, error)
}

type ApplicationsHandler struct {
	Service  ApplicationService
	Events   EventDirectory
	Managers ManagerAuthorizer
	Env      string
}

func NewApplicationsHandler(service ApplicationService, events EventDirectory, managers ManagerAuthorizer, env string) *ApplicationsHandler {
	return &ApplicationsHandler{Service: service, Events: events, Managers: managers, Env: env}
}

type applicationResponse struct {
	ID        int64  `json:"id"`
	EventID   string `json:"event_id"`
	UserID    string `json:"user_id"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	DecidedBy string `json:"decided_by,omitempty"`
	DecidedAt string `json:"decided_at,omitempty"`
	CreatedAt string `json:"created_at"`
}

func applicationPayload(a *participation.Application) applicationResponse {
	resp := applicationResponse{
		ID:        a.ID,
		EventID:   a.EventULID,
		UserID:    a.UserULID,
		Status:    string(a.Status),
		Message:   a.Message,
		DecidedAt: timeOrEmpty(a.DecidedAt),
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.DecidedBy != nil {
		resp.DecidedBy = *a.DecidedBy
	}
	return resp
}

type applyRequest struct {
	Message string `json:"message"`
}

// Apply handles POST /api/v1/events/{id}/applications.
func (h *ApplicationsHandler) Apply(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(w, r, h.Env)
	if claims == nil {
		return
	}

	var req applyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, typeValidation, "Invalid request", err, h.Env)
		return
	}

	application, err := h.Service.Apply(r.Context(), r.PathValue("id"), claims.Subject, req.Message)
	if err != nil {
		writeParticipationError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, applicationPayload(application))
}

// Withdraw handles DELETE /api/v1/events/{id}/applications/me. Only a
// still-pending application can be withdrawn.
func (h *ApplicationsHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(w, r, h.Env)
	if claims == nil {
		return
	}

	if err := h.Service.WithdrawApplication(r.Context(), r.PathValue("id"), claims.Subject); err != nil {
		writeParticipationError(w, r, err, h.Env)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/v1/events/{id}/applications, manager-only.
func (h *ApplicationsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(w, r, h.Env)
	if claims == nil {
		return
	}

	eventULID := r.PathValue("id")
	if requireManager(w, r, h.Events, h.Managers, eventULID, claims, h.Env) == nil {
		return
	}

	applications, err := h.Service.ListApplications(r.Context(), eventULID)
	if err != nil {
		writeParticipationError(w, r, err, h.Env)
		return
	}

	items := make([]applicationResponse, 0, len(applications))
	for _, a := range applications {
		items = append(items, applicationPayload(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type decideRequest struct {
	Decision string `json:"decision"`
}

// Decide handles POST /api/v1/events/{id}/applications/{application_id}/decision.
// Approval admits the applicant, re-checking capacity in the same
// transaction; a full event leaves the application pending.
func (h *ApplicationsHandler) Decide(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(w, r, h.Env)
	if claims == nil {
		return
	}

	eventULID := r.PathValue("id")
	if requireManager(w, r, h.Events, h.Managers, eventULID, claims, h.Env) == nil {
		return
	}

	applicationID, err := strconv.ParseInt(r.PathValue("application_id"), 10, 64)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, typeValidation, "Invalid request",
			participation.ValidationError{Field: "application_id", Message: "must be an integer"}, h.Env)
		return
	}

	var req decideRequest
	if err := decodeJSON(w, r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, typeValidation, "Invalid request", err, h.Env)
		return
	}
	decision, err := participation.ParseDecision(req.Decision)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, typeValidation, "Invalid request", err, h.Env)
		return
	}

	application, err := h.Service.Decide(r.Context(), eventULID, applicationID, decision, claims.Subject)
	if err != nil {
		writeParticipationError(w, r, err, h.Env)
		return
	}

	metrics.ApplicationDecisions.WithLabelValues(string(decision)).Inc()
	writeJSON(w, http.StatusOK, applicationPayload(application))
}
