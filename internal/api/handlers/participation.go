package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/unievent/server/internal/api/problem"
	"github.com/unievent/server/internal/domain/participation"
	"github.com/unievent/server/internal/metrics"
)

// ParticipationService covers seat handling: direct registration,
// check-in, withdrawal and owner-side roster management.
type ParticipationService interface {
	Admit(ctx context.Context, eventULID, userULID string) (*participation.Participant, error)
	CheckIn(ctx context.Context, eventULID string, ref participation.CheckInRef) (*participation.CheckInResult, error)
	Withdraw(ctx context.Context, eventULID, userULID string) error
	Remove(ctx context.Context, eventULID, userULID string) error
	ListParticipants(ctx context.Context, eventULID string) ([]*participation.Participant, error)
}

type ParticipationHandler struct {
	Service  ParticipationService
	Events   EventDirectory
	Managers ManagerAuthorizer
	Env      string
}

func NewParticipationHandler(service ParticipationService, events EventDirectory, managers ManagerAuthorizer, env string) *ParticipationHandler {
	return &ParticipationHandler{Service: service, Events: events, Managers: managers, Env: env}
}

type participantResponse struct {
	ID            int64  `json:"id"`
	EventID       string `json:"event_id"`
	UserID        string `json:"user_id"`
	Status        string `json:"status"`
	TicketCode    string `json:"ticket_code"`
	ApplicationID *int64 `json:"application_id,omitempty"`
	AttendedAt    string `json:"attended_at,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func participantPayload(p *participation.Participant) participantResponse {
	return participantResponse{
		ID:            p.ID,
		EventID:       p.EventULID,
		UserID:        p.UserULID,
		Status:        string(p.Status),
		TicketCode:    p.TicketCode,
		ApplicationID: p.ApplicationID,
		AttendedAt:    timeOrEmpty(p.AttendedAt),
		CreatedAt:     p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Register handles POST /api/v1/events/{id}/participants. The caller
// registers themselves; the seat is granted or refused atomically.
func (h *ParticipationHandler) Register(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(w, r, h.Env)
	if claims == nil {
		return
	}

	participant, err := h.Service.Admit(r.Context(), r.PathValue("id"), claims.Subject)
	if err != nil {
		metrics.AdmissionsTotal.WithLabelValues("refused").Inc()
		writeParticipationError(w, r, err, h.Env)
		return
	}

	metrics.AdmissionsTotal.WithLabelValues("admitted").Inc()
	writeJSON(w, http.StatusCreated, participantPayload(participant))
}

// Withdraw handles DELETE /api/v1/events/{id}/participants/me.
func (h *ParticipationHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(w, r, h.Env)
	if claims == nil {
		return
	}

	if err := h.Service.Withdraw(r.Context(), r.PathValue("id"), claims.Subject); err != nil {
		writeParticipationError(w, r, err, h.Env)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type checkInRequest struct {
	TicketCode    string `json:"ticket_code,omitempty"`
	ParticipantID int64  `json:"participant_id,omitempty"`
}

// checkInResponse tells the gate operator who the ticket belongs to.
type checkInResponse struct {
	Username   string `json:"username"`
	Name       string `json:"name"`
	TicketCode string `json:"ticket_code"`
	Status     string `json:"status"`
	AttendedAt string `json:"attended_at,omitempty"`
}

// CheckIn handles POST /api/v1/events/{id}/check-in. Only event
// managers may check participants in, by ticket code or by
// participant id. A ticket marks attendance exactly once.
func (h *ParticipationHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(w, r, h.Env)
	if claims == nil {
		return
	}

	eventULID := r.PathValue("id")
	if requireManager(w, r, h.Events, h.Managers, eventULID, claims, h.Env) == nil {
		return
	}

	var req checkInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, typeValidation, "Invalid request", err, h.Env)
		return
	}

	result, err := h.Service.CheckIn(r.Context(), eventULID, participation.CheckInRef{
		TicketCode:    req.TicketCode,
		ParticipantID: req.ParticipantID,
	})
	if err != nil {
		metrics.CheckInsTotal.WithLabelValues("refused").Inc()
		writeParticipationError(w, r, err, h.Env)
		return
	}

	metrics.CheckInsTotal.WithLabelValues("checked_in").Inc()
	writeJSON(w, http.StatusOK, checkInResponse{
		Username:   result.Username,
		Name:       result.Name,
		TicketCode: result.Participant.TicketCode,
		Status:     string(result.Participant.Status),
		AttendedAt: timeOrEmpty(result.Participant.AttendedAt),
	})
}

// List handles GET /api/v1/events/{id}/participants, manager-only.
func (h *ParticipationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(w, r, h.Env)
	if claims == nil {
		return
	}

	eventULID := r.PathValue("id")
	if requireManager(w, r, h.Events, h.Managers, eventULID, claims, h.Env) == nil {
		return
	}

	participants, err := h.Service.ListParticipants(r.Context(), eventULID)
	if err != nil {
		writeParticipationError(w, r, err, h.Env)
		return
	}

	items := make([]participantResponse, 0, len(participants))
	for _, p := range participants {
		items = append(items, participantPayload(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Remove handles DELETE /api/v1/events/{id}/participants/{user_id},
// manager-only removal of someone else's seat.
func (h *ParticipationHandler) Remove(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(w, r, h.Env)
	if claims == nil {
		return
	}

	eventULID := r.PathValue("id")
	if requireManager(w, r, h.Events, h.Managers, eventULID, claims, h.Env) == nil {
		return
	}

	if err := h.Service.Remove(r.Context(), eventULID, r.PathValue("user_id")); err != nil {
		writeParticipationError(w, r, err, h.Env)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
