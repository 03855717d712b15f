package moderation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubClassifier struct {
	result Result
	err    error
	calls  int
}

func (s *stubClassifier) Classify(ctx context.Context, title, description string) (Result, error) {
	s.calls++
	return s.result, s.err
}

func TestGateBlocklistTakesPrecedence(t *testing.T) {
	classifier := &stubClassifier{result: Result{IsSafe: true}}
	gate := NewGate(classifier)

	result := gate.Review(context.Background(), "You are an 1d1ot", "join us")

	require.False(t, result.IsSafe)
	require.True(t, result.Flags.Profanity)
	require.Equal(t, SourceBlocklist, result.Source)
	require.Zero(t, classifier.calls, "classifier must not run after blocklist hit")
}

func TestGatePassesSafeContent(t *testing.T) {
	classifier := &stubClassifier{result: Result{IsSafe: true}}
	gate := NewGate(classifier)

	result := gate.Review(context.Background(), "Chess tournament", "weekly chess meetup at the student center")

	require.True(t, result.IsSafe)
	require.Equal(t, SourceClassifier, result.Source)
	require.Equal(t, 1, classifier.calls)
}

func TestGateProfanityFlagAlwaysBlocks(t *testing.T) {
	classifier := &stubClassifier{result: Result{IsSafe: true, Flags: Flags{Profanity: true}}}
	gate := NewGate(classifier)

	result := gate.Review(context.Background(), "title", "description")

	require.False(t, result.IsSafe)
}

func TestGateFailsClosedOnClassifierError(t *testing.T) {
	classifier := &stubClassifier{err: errors.New("connection refused")}
	gate := NewGate(classifier)

	result := gate.Review(context.Background(), "title", "description")

	require.False(t, result.IsSafe)
	require.Equal(t, ReasonUnavailable, result.Reason)
	require.Equal(t, SourceUnreachable, result.Source)
	require.Zero(t, result.Flags, "an outage is not a content verdict")
}

func TestGateFailsClosedWithoutClassifier(t *testing.T) {
	gate := NewGate(nil)

	result := gate.Review(context.Background(), "title", "description")

	require.False(t, result.IsSafe)
	require.Equal(t, ReasonUnavailable, result.Reason)
}

func TestContainsBlockedTerm(t *testing.T) {
	cases := []struct {
		text    string
		blocked bool
	}{
		{"", false},
		{"Friendly football match", false},
		{"classic literature night", false}, // no substring false positive on "ass"
		{"what the f*ck", true},
		{"Sh1t show", true},
		{"you MORON", true},
		{"total bitches", true},
	}
	for _, tc := range cases {
		require.Equal(t, tc.blocked, ContainsBlockedTerm(tc.text), "text: %q", tc.text)
	}
}

func TestHTTPClassifierRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"is_safe": false, "flags": {"profanity": false, "sexism": true, "political": false}, "reason": "gender-discriminatory language"}`))
	}))
	defer server.Close()

	classifier := NewHTTPClassifier(server.URL, "key-123", time.Second)
	result, err := classifier.Classify(context.Background(), "title", "description")

	require.NoError(t, err)
	require.False(t, result.IsSafe)
	require.True(t, result.Flags.Sexism)
	require.Equal(t, "gender-discriminatory language", result.Reason)
}

func TestHTTPClassifierErrors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		classifier := NewHTTPClassifier(server.URL, "", time.Second)
		_, err := classifier.Classify(context.Background(), "t", "d")
		require.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("missing is_safe", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"flags": {}}`))
		}))
		defer server.Close()

		classifier := NewHTTPClassifier(server.URL, "", time.Second)
		_, err := classifier.Classify(context.Background(), "t", "d")
		require.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("no endpoint configured", func(t *testing.T) {
		classifier := NewHTTPClassifier("", "", time.Second)
		_, err := classifier.Classify(context.Background(), "t", "d")
		require.ErrorIs(t, err, ErrUnavailable)
	})
}
