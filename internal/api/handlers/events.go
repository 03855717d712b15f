package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/unievent/server/internal/api/problem"
	"github.com/unievent/server/internal/domain/events"
	"github.com/unievent/server/internal/metrics"
)

// EventLifecycle is the slice of the lifecycle service the public
// events surface needs.
type EventLifecycle interface {
	Create(ctx context.Context, params events.CreateParams) (*events.Event, error)
	Get(ctx context.Context, eventULID string) (*events.Event, error)
}

type EventsHandler struct {
	Lifecycle EventLifecycle
	Managers  ManagerAuthorizer
	Env       string
}

func NewEventsHandler(lifecycle EventLifecycle, managers ManagerAuthorizer, env string) *EventsHandler {
	return &EventsHandler{Lifecycle: lifecycle, Managers: managers, Env: env}
}

type createEventRequest struct {
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	OwnerType           string     `json:"owner_type"`
	OwnerOrgID          *string    `json:"owner_org_id,omitempty"`
	Capacity            *int       `json:"capacity,omitempty"`
	StartsAt            time.Time  `json:"starts_at"`
	EndsAt              *time.Time `json:"ends_at,omitempty"`
	RequiresApplication bool       `json:"requires_application"`
	OnlyEligibleGender  *string    `json:"only_eligible_gender,omitempty"`
	Location            string     `json:"location"`
}

type eventResponse struct {
	ID                  string  `json:"id"`
	Title               string  `json:"title"`
	Description         string  `json:"description"`
	OwnerType           string  `json:"owner_type"`
	OwnerUserID         string  `json:"owner_user_id"`
	OwnerOrgID          *string `json:"owner_org_id,omitempty"`
	Status              string  `json:"status"`
	Capacity            *int    `json:"capacity,omitempty"`
	StartsAt            string  `json:"starts_at"`
	EndsAt              string  `json:"ends_at,omitempty"`
	RequiresApplication bool    `json:"requires_application"`
	OnlyEligibleGender  *string `json:"only_eligible_gender,omitempty"`
	Location            string  `json:"location,omitempty"`
	ReviewReason        *string `json:"review_reason,omitempty"`
	CreatedAt           string  `json:"created_at"`
}

func eventPayload(e *events.Event) eventResponse {
	return eventResponse{
		ID:                  e.ULID,
		Title:               e.Title,
		Description:         e.Description,
		OwnerType:           string(e.OwnerType),
		OwnerUserID:         e.OwnerUserID,
		OwnerOrgID:          e.OwnerOrgID,
		Status:              string(e.Status),
		Capacity:            e.Capacity,
		StartsAt:            e.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:              timeOrEmpty(e.EndsAt),
		RequiresApplication: e.RequiresApplication,
		OnlyEligibleGender:  e.OnlyEligibleGender,
		Location:            e.Location,
		ReviewReason:        e.ReviewReason,
		CreatedAt:           e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Create handles POST /api/v1/events. The owner is always the caller;
// organization-owned events additionally name the organization, and
// the lifecycle service decides between FUTURE and PENDING_REVIEW.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(w, r, h.Env)
	if claims == nil {
		return
	}

	var req createEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, typeValidation, "Invalid request", err, h.Env)
		return
	}

	ownerType := events.OwnerUser
	if req.OwnerType != "" {
		ownerType = events.OwnerType(req.OwnerType)
	}

	// Creating on an organization's behalf needs a management role in
	// that organization.
	if ownerType == events.OwnerOrganization && req.OwnerOrgID != nil {
		prospective := &events.Event{
			OwnerType:   ownerType,
			OwnerUserID: claims.Subject,
			OwnerOrgID:  req.OwnerOrgID,
		}
		allowed, err := h.Managers.CanManage(r.Context(), prospective, claims.Subject)
		if err != nil {
			problem.Write(w, r, http.StatusInternalServerError, typeServerError, "Server error", err, h.Env)
			return
		}
		if !allowed {
			problem.Write(w, r, http.StatusForbidden, typeForbidden, "Forbidden", nil, h.Env,
				problem.WithDetail("You do not manage this organization"))
			return
		}
	}

	event, err := h.Lifecycle.Create(r.Context(), events.CreateParams{
		Title:               req.Title,
		Description:         req.Description,
		OwnerType:           ownerType,
		OwnerUserID:         claims.Subject,
		OwnerOrgID:          req.OwnerOrgID,
		Capacity:            req.Capacity,
		StartsAt:            req.StartsAt,
		EndsAt:              req.EndsAt,
		RequiresApplication: req.RequiresApplication,
		OnlyEligibleGender:  req.OnlyEligibleGender,
		Location:            req.Location,
	})
	if err != nil {
		var validation events.ValidationError
		if errors.As(err, &validation) {
			problem.Write(w, r, http.StatusBadRequest, typeValidation, "Invalid request", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, typeServerError, "Server error", err, h.Env)
		return
	}

	metrics.EventsCreated.WithLabelValues(string(event.Status)).Inc()
	writeJSON(w, http.StatusCreated, eventPayload(event))
}

// Get handles GET /api/v1/events/{id}.
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.Lifecycle.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, typeNotFound, "Not found", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, typeServerError, "Server error", err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, eventPayload(event))
}
