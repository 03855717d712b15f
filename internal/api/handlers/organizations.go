package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/unievent/server/internal/api/problem"
	"github.com/unievent/server/internal/domain/organizations"
)

// OrganizationService manages student organizations and membership
// roles.
type OrganizationService interface {
	Create(ctx context.Context, name, description, creatorULID string) (*organizations.Organization, error)
	Get(ctx context.Context, ulid string) (*organizations.Organization, error)
	SetMemberRole(ctx context.Context, orgULID, actorULID, userULID, role string) error
	RemoveMember(ctx context.Context, orgULID, actorULID, userULID string) error
}

type OrganizationsHandler struct {
	Service OrganizationService
	Env     string
}

func NewOrganizationsHandler(service OrganizationService, env string) *OrganizationsHandler {
	return &OrganizationsHandler{Service: service, Env: env}
}

type organizationResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   string `json:"created_at"`
}

func organizationPayload(o *organizations.Organization) organizationResponse {
	return organizationResponse{
		ID:          o.ULID,
		Name:        o.Name,
		Description: o.Description,
		CreatedBy:   o.CreatedBy,
		CreatedAt:   o.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func writeOrganizationError(w http.ResponseWriter, r *http.Request, err error, env string) {
	var validation organizations.ValidationError
	switch {
	case errors.As(err, &validation):
		problem.Write(w, r, http.StatusBadRequest, typeValidation, "Invalid request", err, env)
	case errors.Is(err, organizations.ErrNotFound),
		errors.Is(err, organizations.ErrMemberNotFound):
		problem.Write(w, r, http.StatusNotFound, typeNotFound, "Not found", err, env)
	case errors.Is(err, organizations.ErrForbidden):
		problem.Write(w, r, http.StatusForbidden, typeForbidden, "Forbidden", err, env)
	case errors.Is(err, organizations.ErrLastAdmin),
		errors.Is(err, organizations.ErrAlreadyMember):
		problem.Write(w, r, http.StatusConflict, typeConflict, "Conflict", err, env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, typeServerError, "Server error", err, env)
	}
}

type createOrganizationRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create handles POST /api/v1/organizations. The creator becomes the
// organization's first ADMIN.
func (h *OrganizationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(w, r, h.Env)
	if claims == nil {
		return
	}

	var req createOrganizationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, typeValidation, "Invalid request", err, h.Env)
		return
	}

	org, err := h.Service.Create(r.Context(), req.Name, req.Description, claims.Subject)
	if err != nil {
		writeOrganizationError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, organizationPayload(org))
}

// Get handles GET /api/v1/organizations/{id}.
func (h *OrganizationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	org, err := h.Service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeOrganizationError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, organizationPayload(org))
}

type setMemberRoleRequest struct {
	Role string `json:"role"`
}

// SetMemberRole handles PUT /api/v1/organizations/{id}/members/{user_id}.
// Only organization admins may grant roles, and the last admin cannot
// demote themselves.
func (h *OrganizationsHandler) SetMemberRole(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(w, r, h.Env)
	if claims == nil {
		return
	}

	var req setMemberRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, typeValidation, "Invalid request", err, h.Env)
		return
	}

	err := h.Service.SetMemberRole(r.Context(), r.PathValue("id"), claims.Subject, r.PathValue("user_id"), req.Role)
	if err != nil {
		writeOrganizationError(w, r, err, h.Env)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveMember handles DELETE /api/v1/organizations/{id}/members/{user_id}.
// Members may leave on their own; removing someone else requires the
// admin role.
func (h *OrganizationsHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(w, r, h.Env)
	if claims == nil {
		return
	}

	err := h.Service.RemoveMember(r.Context(), r.PathValue("id"), claims.Subject, r.PathValue("user_id"))
	if err != nil {
		writeOrganizationError(w, r, err, h.Env)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
