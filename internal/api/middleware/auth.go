package middleware

import (
	"context"
	"net/http"

	"github.com/unievent/server/internal/api/problem"
	"github.com/unievent/server/internal/auth"
)

type claimsKey struct{}

// RequireAuth validates the bearer token and stores the parsed claims
// in the request context. Requests without a valid token get a 401.
func RequireAuth(manager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				unauthorized(w, r, "Missing or malformed Authorization header")
				return
			}

			claims, err := manager.Validate(token)
			if err != nil {
				unauthorized(w, r, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireAdmin rejects requests whose token does not carry the admin
// role. It must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			unauthorized(w, r, "Authentication required")
			return
		}
		if !auth.IsAdmin(claims.Role) {
			problem.Write(w, r, http.StatusForbidden, "https://unievent.example/problems/forbidden", "Forbidden",
				nil, "", problem.WithDetail("Administrator role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithClaims returns a context carrying the given claims.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims stored by RequireAuth, or nil
// when the request was not authenticated.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims
}

func unauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="unievent"`)
	problem.Write(w, r, http.StatusUnauthorized, "https://unievent.example/problems/unauthorized", "Unauthorized",
		nil, "", problem.WithDetail(detail))
}
