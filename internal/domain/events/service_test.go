package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unievent/server/internal/moderation"
)

type fakeRepo struct {
	events map[string]*Event
	swept  int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{events: make(map[string]*Event)}
}

func (r *fakeRepo) Insert(_ context.Context, event *Event) error {
	copied := *event
	r.events[event.ULID] = &copied
	return nil
}

func (r *fakeRepo) GetByULID(_ context.Context, ulid string) (*Event, error) {
	event, ok := r.events[ulid]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *event
	return &copied, nil
}

func (r *fakeRepo) ApplyReview(_ context.Context, ulid string, status Status, reviewedBy string, reviewedAt time.Time, adminNote *string) (bool, error) {
	event, ok := r.events[ulid]
	if !ok || event.Status != StatusPendingReview {
		return false, nil
	}
	event.Status = status
	event.ReviewedBy = &reviewedBy
	event.ReviewedAt = &reviewedAt
	event.AdminNote = adminNote
	return true, nil
}

func (r *fakeRepo) UpdateModeration(_ context.Context, ulid string, status Status, reason *string, flags *string, source string) (bool, error) {
	event, ok := r.events[ulid]
	if !ok || event.Status != StatusPendingReview {
		return false, nil
	}
	event.Status = status
	event.ReviewReason = reason
	event.ReviewFlags = flags
	event.ReviewSource = &source
	return true, nil
}

func (r *fakeRepo) SweepCompleted(_ context.Context, now time.Time) (int64, error) {
	var updated int64
	for _, event := range r.events {
		if event.Status == StatusFuture && event.EndsAtOrStart().Before(now) {
			event.Status = StatusCompleted
			updated++
		}
	}
	r.swept++
	return updated, nil
}

type staticClassifier struct {
	result moderation.Result
	err    error
}

func (c staticClassifier) Classify(context.Context, string, string) (moderation.Result, error) {
	return c.result, c.err
}

type classifierFunc func(ctx context.Context, title, description string) (moderation.Result, error)

func (f classifierFunc) Classify(ctx context.Context, title, description string) (moderation.Result, error) {
	return f(ctx, title, description)
}

func newService(repo Repository, classifier moderation.Classifier) *LifecycleService {
	return NewLifecycleService(repo, moderation.NewGate(classifier), zerolog.Nop())
}

func validParams() CreateParams {
	return CreateParams{
		Title:       "Robotics workshop",
		Description: "Hands-on introduction to line-following robots.",
		OwnerType:   OwnerUser,
		OwnerUserID: "01J8ME1VQZXK5R2T7W9A4B6C8D",
		StartsAt:    time.Now().Add(48 * time.Hour),
		Location:    "Engineering building, room 204",
	}
}

func TestCreatePublishesSafeContent(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, staticClassifier{result: moderation.Result{IsSafe: true}})

	event, err := svc.Create(context.Background(), validParams())
	require.NoError(t, err)
	assert.Equal(t, StatusFuture, event.Status)
	assert.Nil(t, event.ReviewReason)
	assert.NotEmpty(t, event.ULID)

	stored, err := repo.GetByULID(context.Background(), event.ULID)
	require.NoError(t, err)
	assert.Equal(t, StatusFuture, stored.Status)
}

func TestCreateParksUnsafeContent(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, staticClassifier{result: moderation.Result{
		IsSafe: false,
		Flags:  moderation.Flags{Political: true},
		Reason: "political campaigning",
	}})

	event, err := svc.Create(context.Background(), validParams())
	require.NoError(t, err)
	assert.Equal(t, StatusPendingReview, event.Status)
	require.NotNil(t, event.ReviewReason)
	assert.Equal(t, "political campaigning", *event.ReviewReason)
	require.NotNil(t, event.ReviewSource)
	assert.Equal(t, moderation.SourceClassifier, *event.ReviewSource)
}

func TestCreateFailsClosedWhenClassifierDown(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, staticClassifier{err: errors.New("connection refused")})

	event, err := svc.Create(context.Background(), validParams())
	require.NoError(t, err)
	assert.Equal(t, StatusPendingReview, event.Status)
	require.NotNil(t, event.ReviewSource)
	assert.Equal(t, moderation.SourceUnreachable, *event.ReviewSource)
	require.NotNil(t, event.ReviewReason)
	assert.Equal(t, moderation.ReasonUnavailable, *event.ReviewReason)
}

func TestCreateBlocklistOverridesClassifier(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, staticClassifier{result: moderation.Result{IsSafe: true}})

	params := validParams()
	params.Title = "Seminar for every campus idiot"
	event, err := svc.Create(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingReview, event.Status)
	require.NotNil(t, event.ReviewSource)
	assert.Equal(t, moderation.SourceBlocklist, *event.ReviewSource)
}

func TestCreateStripsMarkup(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, staticClassifier{result: moderation.Result{IsSafe: true}})

	params := validParams()
	params.Title = `<script>alert(1)</script>Chess night`
	params.Description = `Friendly blitz games. <img src=x onerror=alert(1)>`
	event, err := svc.Create(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, "Chess night", event.Title)
	assert.NotContains(t, event.Description, "onerror")
}

func TestCreateValidation(t *testing.T) {
	svc := newService(newFakeRepo(), staticClassifier{result: moderation.Result{IsSafe: true}})

	t.Run("missing title", func(t *testing.T) {
		params := validParams()
		params.Title = ""
		_, err := svc.Create(context.Background(), params)
		var verr ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("org owner without org id", func(t *testing.T) {
		params := validParams()
		params.OwnerType = OwnerOrganization
		_, err := svc.Create(context.Background(), params)
		var verr ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "organization_id", verr.Field)
	})

	t.Run("ends before starts", func(t *testing.T) {
		params := validParams()
		endsAt := params.StartsAt.Add(-time.Hour)
		params.EndsAt = &endsAt
		_, err := svc.Create(context.Background(), params)
		var verr ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "ends_at", verr.Field)
	})

	t.Run("zero capacity", func(t *testing.T) {
		params := validParams()
		capacity := 0
		params.Capacity = &capacity
		_, err := svc.Create(context.Background(), params)
		var verr ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestReviewApprovesPendingEvent(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, staticClassifier{err: errors.New("down")})

	created, err := svc.Create(context.Background(), validParams())
	require.NoError(t, err)
	require.Equal(t, StatusPendingReview, created.Status)

	reviewed, err := svc.Review(context.Background(), created.ULID, DecisionApproved, "01J8ADMIN0000000000000000A", "checked manually")
	require.NoError(t, err)
	assert.Equal(t, StatusFuture, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	require.NotNil(t, reviewed.AdminNote)
	assert.Equal(t, "checked manually", *reviewed.AdminNote)
}

func TestReviewRejectsPendingEvent(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, staticClassifier{err: errors.New("down")})

	created, err := svc.Create(context.Background(), validParams())
	require.NoError(t, err)

	reviewed, err := svc.Review(context.Background(), created.ULID, DecisionRejected, "01J8ADMIN0000000000000000A", "")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, reviewed.Status)
	assert.Nil(t, reviewed.AdminNote)
}

func TestReviewConflictsOutsidePendingReview(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, staticClassifier{result: moderation.Result{IsSafe: true}})

	created, err := svc.Create(context.Background(), validParams())
	require.NoError(t, err)
	require.Equal(t, StatusFuture, created.Status)

	_, err = svc.Review(context.Background(), created.ULID, DecisionApproved, "01J8ADMIN0000000000000000A", "")
	assert.ErrorIs(t, err, ErrStateConflict)
}

func TestReviewUnknownEvent(t *testing.T) {
	svc := newService(newFakeRepo(), staticClassifier{result: moderation.Result{IsSafe: true}})

	_, err := svc.Review(context.Background(), "01J8MISSING000000000000000", DecisionApproved, "01J8ADMIN0000000000000000A", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviewSecondDecisionLoses(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, staticClassifier{err: errors.New("down")})

	created, err := svc.Create(context.Background(), validParams())
	require.NoError(t, err)

	_, err = svc.Review(context.Background(), created.ULID, DecisionRejected, "01J8ADMIN0000000000000000A", "")
	require.NoError(t, err)

	_, err = svc.Review(context.Background(), created.ULID, DecisionApproved, "01J8ADMIN0000000000000000B", "")
	assert.ErrorIs(t, err, ErrStateConflict)
}

func TestReevaluateClearsPendingEvent(t *testing.T) {
	repo := newFakeRepo()
	down := newService(repo, staticClassifier{err: errors.New("down")})

	created, err := down.Create(context.Background(), validParams())
	require.NoError(t, err)
	require.Equal(t, StatusPendingReview, created.Status)

	up := newService(repo, staticClassifier{result: moderation.Result{IsSafe: true}})
	event, err := up.Reevaluate(context.Background(), created.ULID)
	require.NoError(t, err)
	assert.Equal(t, StatusFuture, event.Status)
}

func TestReevaluateSurfacesUnreachableClassifier(t *testing.T) {
	repo := newFakeRepo()
	down := newService(repo, staticClassifier{err: errors.New("down")})

	created, err := down.Create(context.Background(), validParams())
	require.NoError(t, err)

	_, err = down.Reevaluate(context.Background(), created.ULID)
	assert.ErrorIs(t, err, ErrModerationUnavailable)
}

func TestReevaluateRequiresPendingReview(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, staticClassifier{result: moderation.Result{IsSafe: true}})

	created, err := svc.Create(context.Background(), validParams())
	require.NoError(t, err)
	require.Equal(t, StatusFuture, created.Status)

	_, err = svc.Reevaluate(context.Background(), created.ULID)
	assert.ErrorIs(t, err, ErrStateConflict)
}

func TestReevaluateLosesToConcurrentReview(t *testing.T) {
	repo := newFakeRepo()
	down := newService(repo, staticClassifier{err: errors.New("down")})

	created, err := down.Create(context.Background(), validParams())
	require.NoError(t, err)
	require.Equal(t, StatusPendingReview, created.Status)

	// An admin rejects the event while the classifier round-trip is in
	// flight; the stale safe verdict must not reopen the terminal state.
	racing := newService(repo, classifierFunc(func(context.Context, string, string) (moderation.Result, error) {
		applied, err := repo.ApplyReview(context.Background(), created.ULID, StatusRejected, "admin", time.Now().UTC(), nil)
		require.NoError(t, err)
		require.True(t, applied)
		return moderation.Result{IsSafe: true}, nil
	}))

	_, err = racing.Reevaluate(context.Background(), created.ULID)
	assert.ErrorIs(t, err, ErrStateConflict)

	event, err := repo.GetByULID(context.Background(), created.ULID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, event.Status)
}

func TestSweepCompleted(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, staticClassifier{result: moderation.Result{IsSafe: true}})

	past := time.Now().Add(-2 * time.Hour)
	endsAt := past.Add(time.Hour)
	repo.events["expired-with-end"] = &Event{ULID: "expired-with-end", Status: StatusFuture, StartsAt: past, EndsAt: &endsAt}
	repo.events["expired-no-end"] = &Event{ULID: "expired-no-end", Status: StatusFuture, StartsAt: past}
	repo.events["upcoming"] = &Event{ULID: "upcoming", Status: StatusFuture, StartsAt: time.Now().Add(time.Hour)}
	repo.events["rejected"] = &Event{ULID: "rejected", Status: StatusRejected, StartsAt: past}

	updated, err := svc.SweepCompleted(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)
	assert.Equal(t, StatusCompleted, repo.events["expired-with-end"].Status)
	assert.Equal(t, StatusCompleted, repo.events["expired-no-end"].Status)
	assert.Equal(t, StatusFuture, repo.events["upcoming"].Status)
	assert.Equal(t, StatusRejected, repo.events["rejected"].Status)

	again, err := svc.SweepCompleted(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestOwnershipChecker(t *testing.T) {
	orgID := "01J8ORG000000000000000000A"
	directory := fakeDirectory{
		orgID: {
			"01J8ADMINMEMBER00000000000": OrgRoleAdmin,
			"01J8REPMEMBER000000000000A": OrgRoleRepresentative,
			"01J8PLAINMEMBER0000000000A": "MEMBER",
		},
	}
	checker := NewOwnershipChecker(directory)

	userEvent := &Event{OwnerType: OwnerUser, OwnerUserID: "01J8OWNER00000000000000000"}
	orgEvent := &Event{OwnerType: OwnerOrganization, OwnerUserID: "01J8CREATOR000000000000000", OwnerOrgID: &orgID}

	cases := []struct {
		name  string
		event *Event
		user  string
		want  bool
	}{
		{"owner of user event", userEvent, "01J8OWNER00000000000000000", true},
		{"stranger on user event", userEvent, "01J8STRANGER00000000000000", false},
		{"org admin", orgEvent, "01J8ADMINMEMBER00000000000", true},
		{"org representative", orgEvent, "01J8REPMEMBER000000000000A", true},
		{"plain member", orgEvent, "01J8PLAINMEMBER0000000000A", false},
		{"non-member", orgEvent, "01J8STRANGER00000000000000", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := checker.CanManage(context.Background(), tc.event, tc.user)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

type fakeDirectory map[string]map[string]string

func (d fakeDirectory) MemberRole(_ context.Context, orgULID, userULID string) (string, error) {
	members, ok := d[orgULID]
	if !ok {
		return "", nil
	}
	return members[userULID], nil
}
