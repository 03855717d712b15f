package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/unievent/server/internal/api/middleware"
	"github.com/unievent/server/internal/auth"
	"github.com/unievent/server/internal/domain/events"
	"github.com/unievent/server/internal/domain/participation"
)

const (
	testEventID = "01J0KXMQZ8RPXJPN8J9Q6TK0WP"
	testUserID  = "01J0KXMQZ8RPXJPN8J9Q6TK0AA"
	testOwnerID = "01J0KXMQZ8RPXJPN8J9Q6TK0BB"
)

func asUser(r *http.Request, subject, role string) *http.Request {
	claims := &auth.Claims{Username: "someone", Role: role}
	claims.Subject = subject
	return r.WithContext(middleware.WithClaims(r.Context(), claims))
}

func jsonBody(t *testing.T, payload any) io.Reader {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(raw)
}

func doRequest(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	res := httptest.NewRecorder()
	h(res, req)
	return res
}

type stubLifecycle struct {
	createFn func(params events.CreateParams) (*events.Event, error)
	getFn    func(ulid string) (*events.Event, error)
}

func (s stubLifecycle) Create(_ context.Context, params events.CreateParams) (*events.Event, error) {
	return s.createFn(params)
}

func (s stubLifecycle) Get(_ context.Context, ulid string) (*events.Event, error) {
	return s.getFn(ulid)
}

type stubAdminLifecycle struct {
	reviewFn     func(eventULID string, decision events.Decision, adminULID, note string) (*events.Event, error)
	reevaluateFn func(eventULID string) (*events.Event, error)
	sweepFn      func() (int64, error)
}

func (s stubAdminLifecycle) Review(_ context.Context, eventULID string, decision events.Decision, adminULID, note string) (*events.Event, error) {
	return s.reviewFn(eventULID, decision, adminULID, note)
}

func (s stubAdminLifecycle) Reevaluate(_ context.Context, eventULID string) (*events.Event, error) {
	return s.reevaluateFn(eventULID)
}

func (s stubAdminLifecycle) SweepCompleted(_ context.Context) (int64, error) {
	return s.sweepFn()
}

// stubEventDirectory serves the authorization lookups.
type stubEventDirectory struct {
	getFn func(ulid string) (*events.Event, error)
}

func (s stubEventDirectory) Get(_ context.Context, ulid string) (*events.Event, error) {
	return s.getFn(ulid)
}

// stubManagers authorizes by comparing against the event's owner.
// Like the production OwnershipChecker, it ignores OwnerUserID for
// organization-owned events; with no membership directory here, no
// caller manages an organization.
type stubManagers struct{}

func (stubManagers) CanManage(_ context.Context, event *events.Event, userULID string) (bool, error) {
	if event.OwnerType == events.OwnerOrganization {
		return false, nil
	}
	return event.OwnerUserID == userULID, nil
}

func ownedEvent() *events.Event {
	return &events.Event{
		ULID:        testEventID,
		Title:       "Robotics Demo Day",
		OwnerType:   events.OwnerUser,
		OwnerUserID: testOwnerID,
		Status:      events.StatusFuture,
	}
}

func ownedEventDirectory() stubEventDirectory {
	return stubEventDirectory{getFn: func(ulid string) (*events.Event, error) {
		if ulid != testEventID {
			return nil, events.ErrNotFound
		}
		return ownedEvent(), nil
	}}
}

type stubParticipation struct {
	admitFn    func(eventULID, userULID string) (*participation.Participant, error)
	checkInFn  func(eventULID string, ref participation.CheckInRef) (*participation.CheckInResult, error)
	withdrawFn func(eventULID, userULID string) error
	removeFn   func(eventULID, userULID string) error
	listFn     func(eventULID string) ([]*participation.Participant, error)
}

func (s stubParticipation) Admit(_ context.Context, eventULID, userULID string) (*participation.Participant, error) {
	return s.admitFn(eventULID, userULID)
}

func (s stubParticipation) CheckIn(_ context.Context, eventULID string, ref participation.CheckInRef) (*participation.CheckInResult, error) {
	return s.checkInFn(eventULID, ref)
}

func (s stubParticipation) Withdraw(_ context.Context, eventULID, userULID string) error {
	return s.withdrawFn(eventULID, userULID)
}

func (s stubParticipation) Remove(_ context.Context, eventULID, userULID string) error {
	return s.removeFn(eventULID, userULID)
}

func (s stubParticipation) ListParticipants(_ context.Context, eventULID string) ([]*participation.Participant, error) {
	return s.listFn(eventULID)
}

type stubApplications struct {
	applyFn    func(eventULID, userULID, message string) (*participation.Application, error)
	decideFn   func(eventULID string, applicationID int64, decision participation.Decision, decidedBy string) (*participation.Application, error)
	withdrawFn func(eventULID, userULID string) error
	listFn     func(eventULID string) ([]*participation.Application, error)
}

func (s stubApplications) Apply(_ context.Context, eventULID, userULID, message string) (*participation.Application, error) {
	return s.applyFn(eventULID, userULID, message)
}

func (s stubApplications) Decide(_ context.Context, eventULID string, applicationID int64, decision participation.Decision, decidedBy string) (*participation.Application, error) {
	return s.decideFn(eventULID, applicationID, decision, decidedBy)
}

func (s stubApplications) WithdrawApplication(_ context.Context, eventULID, userULID string) error {
	return s.withdrawFn(eventULID, userULID)
}

func (s stubApplications) ListApplications(_ context.Context, eventULID string) ([]*participation.Application, error) {
	return s.listFn(eventULID)
}
