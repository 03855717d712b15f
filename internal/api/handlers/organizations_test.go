package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/unievent/server/internal/domain/organizations"
)

type stubOrganizations struct {
	createFn  func(name, description, creatorULID string) (*organizations.Organization, error)
	getFn     func(ulid string) (*organizations.Organization, error)
	setRoleFn func(orgULID, actorULID, userULID, role string) error
	removeFn  func(orgULID, actorULID, userULID string) error
}

func (s stubOrganizations) Create(_ context.Context, name, description, creatorULID string) (*organizations.Organization, error) {
	return s.createFn(name, description, creatorULID)
}

func (s stubOrganizations) Get(_ context.Context, ulid string) (*organizations.Organization, error) {
	return s.getFn(ulid)
}

func (s stubOrganizations) SetMemberRole(_ context.Context, orgULID, actorULID, userULID, role string) error {
	return s.setRoleFn(orgULID, actorULID, userULID, role)
}

func (s stubOrganizations) RemoveMember(_ context.Context, orgULID, actorULID, userULID string) error {
	return s.removeFn(orgULID, actorULID, userULID)
}

const testOrgID = "01J0KXMQZ8RPXJPN8J9Q6TK0CC"

func sampleOrganization() *organizations.Organization {
	return &organizations.Organization{
		ULID:      testOrgID,
		Name:      "Chess Club",
		CreatedBy: testUserID,
		CreatedAt: time.Now().UTC(),
	}
}

func TestOrganizationsCreate(t *testing.T) {
	svc := stubOrganizations{
		createFn: func(name, description, creatorULID string) (*organizations.Organization, error) {
			require.Equal(t, "Chess Club", name)
			require.Equal(t, testUserID, creatorULID)
			return sampleOrganization(), nil
		},
	}
	h := NewOrganizationsHandler(svc, "test")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/organizations",
		jsonBody(t, map[string]any{"name": "Chess Club", "description": ""}))
	res := doRequest(h.Create, asUser(req, testUserID, "user"))

	require.Equal(t, http.StatusCreated, res.Code)

	var payload organizationResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	require.Equal(t, testOrgID, payload.ID)
}

func TestOrganizationsCreateEmptyName(t *testing.T) {
	svc := stubOrganizations{
		createFn: func(string, string, string) (*organizations.Organization, error) {
			return nil, organizations.ValidationError{Field: "name", Message: "required"}
		},
	}
	h := NewOrganizationsHandler(svc, "test")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/organizations",
		jsonBody(t, map[string]any{"name": ""}))
	res := doRequest(h.Create, asUser(req, testUserID, "user"))

	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestOrganizationsGetNotFound(t *testing.T) {
	svc := stubOrganizations{
		getFn: func(string) (*organizations.Organization, error) {
			return nil, organizations.ErrNotFound
		},
	}
	h := NewOrganizationsHandler(svc, "test")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/organizations/unknown", nil)
	req.SetPathValue("id", "unknown")
	res := doRequest(h.Get, req)

	require.Equal(t, http.StatusNotFound, res.Code)
}

func TestSetMemberRole(t *testing.T) {
	svc := stubOrganizations{
		setRoleFn: func(orgULID, actorULID, userULID, role string) error {
			require.Equal(t, testOrgID, orgULID)
			require.Equal(t, testUserID, actorULID)
			require.Equal(t, testOwnerID, userULID)
			require.Equal(t, "REPRESENTATIVE", role)
			return nil
		},
	}
	h := NewOrganizationsHandler(svc, "test")

	req := httptest.NewRequest(http.MethodPut, "/api/v1/organizations/"+testOrgID+"/members/"+testOwnerID,
		jsonBody(t, map[string]any{"role": "REPRESENTATIVE"}))
	req.SetPathValue("id", testOrgID)
	req.SetPathValue("user_id", testOwnerID)
	res := doRequest(h.SetMemberRole, asUser(req, testUserID, "user"))

	require.Equal(t, http.StatusNoContent, res.Code)
}

func TestSetMemberRoleForbidden(t *testing.T) {
	svc := stubOrganizations{
		setRoleFn: func(string, string, string, string) error {
			return organizations.ErrForbidden
		},
	}
	h := NewOrganizationsHandler(svc, "test")

	req := httptest.NewRequest(http.MethodPut, "/api/v1/organizations/"+testOrgID+"/members/"+testOwnerID,
		jsonBody(t, map[string]any{"role": "ADMIN"}))
	req.SetPathValue("id", testOrgID)
	req.SetPathValue("user_id", testOwnerID)
	res := doRequest(h.SetMemberRole, asUser(req, testUserID, "user"))

	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestRemoveMemberLastAdmin(t *testing.T) {
	svc := stubOrganizations{
		removeFn: func(string, string, string) error {
			return organizations.ErrLastAdmin
		},
	}
	h := NewOrganizationsHandler(svc, "test")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/organizations/"+testOrgID+"/members/"+testUserID, nil)
	req.SetPathValue("id", testOrgID)
	req.SetPathValue("user_id", testUserID)
	res := doRequest(h.RemoveMember, asUser(req, testUserID, "user"))

	require.Equal(t, http.StatusConflict, res.Code)
}

func TestRemoveMemberSelf(t *testing.T) {
	svc := stubOrganizations{
		removeFn: func(orgULID, actorULID, userULID string) error {
			require.Equal(t, actorULID, userULID)
			return nil
		},
	}
	h := NewOrganizationsHandler(svc, "test")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/organizations/"+testOrgID+"/members/"+testUserID, nil)
	req.SetPathValue("id", testOrgID)
	req.SetPathValue("user_id", testUserID)
	res := doRequest(h.RemoveMember, asUser(req, testUserID, "user"))

	require.Equal(t, http.StatusNoContent, res.Code)
}
