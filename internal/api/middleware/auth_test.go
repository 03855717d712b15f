package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/unievent/server/internal/auth"
)

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Hour, "test")
	h := RequireAuth(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	res := httptest.NewRecorder()

	h.ServeHTTP(res, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.Contains(t, res.Header().Get("WWW-Authenticate"), "Bearer")
}

func TestRequireAuthRejectsInvalidToken(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Hour, "test")
	h := RequireAuth(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	res := httptest.NewRecorder()

	h.ServeHTTP(res, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRequireAuthSetsClaims(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Hour, "test")
	token, err := manager.Generate("01HQZX3Y4K6F7G8H9J0K1M2N3P", "ayse", "user")
	require.NoError(t, err)

	h := RequireAuth(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		require.NotNil(t, claims)
		require.Equal(t, "01HQZX3Y4K6F7G8H9J0K1M2N3P", claims.Subject)
		require.Equal(t, "ayse", claims.Username)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()

	h.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
}

func TestRequireAdminRejectsUserRole(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Hour, "test")
	token, err := manager.Generate("01HQZX3Y4K6F7G8H9J0K1M2N3P", "ayse", "user")
	require.NoError(t, err)

	h := RequireAuth(manager)(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/sweep", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()

	h.ServeHTTP(res, req)
	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestRequireAdminAllowsAdminRole(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Hour, "test")
	token, err := manager.Generate("01HQZX3Y4K6F7G8H9J0K1M2N3P", "root", "admin")
	require.NoError(t, err)

	h := RequireAuth(manager)(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/sweep", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()

	h.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
}

func TestRequireAdminWithoutAuthIsUnauthorized(t *testing.T) {
	h := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/sweep", nil)
	res := httptest.NewRecorder()

	h.ServeHTTP(res, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}
