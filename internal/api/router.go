// Package api assembles the HTTP surface: routing, middleware chain,
// and handler wiring.
package api

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/unievent/server/internal/api/handlers"
	"github.com/unievent/server/internal/api/middleware"
	"github.com/unievent/server/internal/auth"
	"github.com/unievent/server/internal/metrics"
)

// RouterConfig carries the assembled services and cross-cutting
// dependencies the router wires together.
type RouterConfig struct {
	Logger zerolog.Logger
	JWT    *auth.JWTManager
	Pool   *pgxpool.Pool

	Events        *handlers.EventsHandler
	Participation *handlers.ParticipationHandler
	Applications  *handlers.ApplicationsHandler
	Organizations *handlers.OrganizationsHandler
	Admin         *handlers.AdminHandler
	Health        *handlers.HealthChecker

	RequireHTTPS   bool
	TracingEnabled bool
}

// NewRouter builds the full route table. Probe and metrics endpoints
// skip authentication; everything under /api/v1 except event reads
// requires a bearer token, and /api/v1/admin additionally requires the
// admin role.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", cfg.Health.Health())
	mux.Handle("GET /livez", handlers.Healthz())
	mux.Handle("GET /readyz", handlers.Readyz(cfg.Pool))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	authed := middleware.RequireAuth(cfg.JWT)

	// Events: reads are public, everything else needs a caller.
	mux.Handle("POST /api/v1/events", authed(http.HandlerFunc(cfg.Events.Create)))
	mux.Handle("GET /api/v1/events/{id}", http.HandlerFunc(cfg.Events.Get))

	// Participation.
	mux.Handle("POST /api/v1/events/{id}/participants", authed(http.HandlerFunc(cfg.Participation.Register)))
	mux.Handle("GET /api/v1/events/{id}/participants", authed(http.HandlerFunc(cfg.Participation.List)))
	mux.Handle("DELETE /api/v1/events/{id}/participants/me", authed(http.HandlerFunc(cfg.Participation.Withdraw)))
	mux.Handle("DELETE /api/v1/events/{id}/participants/{user_id}", authed(http.HandlerFunc(cfg.Participation.Remove)))
	mux.Handle("POST /api/v1/events/{id}/check-in", authed(http.HandlerFunc(cfg.Participation.CheckIn)))

	// Applications.
	mux.Handle("POST /api/v1/events/{id}/applications", authed(http.HandlerFunc(cfg.Applications.Apply)))
	mux.Handle("GET /api/v1/events/{id}/applications", authed(http.HandlerFunc(cfg.Applications.List)))
	mux.Handle("DELETE /api/v1/events/{id}/applications/me", authed(http.HandlerFunc(cfg.Applications.Withdraw)))
	mux.Handle("POST /api/v1/events/{id}/applications/{application_id}/decision", authed(http.HandlerFunc(cfg.Applications.Decide)))

	// Organizations.
	mux.Handle("POST /api/v1/organizations", authed(http.HandlerFunc(cfg.Organizations.Create)))
	mux.Handle("GET /api/v1/organizations/{id}", http.HandlerFunc(cfg.Organizations.Get))
	mux.Handle("PUT /api/v1/organizations/{id}/members/{user_id}", authed(http.HandlerFunc(cfg.Organizations.SetMemberRole)))
	mux.Handle("DELETE /api/v1/organizations/{id}/members/{user_id}", authed(http.HandlerFunc(cfg.Organizations.RemoveMember)))

	// Admin surface.
	admin := func(h http.HandlerFunc) http.Handler {
		return authed(middleware.RequireAdmin(h))
	}
	mux.Handle("POST /api/v1/admin/events/{id}/review", admin(cfg.Admin.Review))
	mux.Handle("POST /api/v1/admin/events/{id}/reevaluate", admin(cfg.Admin.Reevaluate))
	mux.Handle("POST /api/v1/admin/sweep", admin(cfg.Admin.Sweep))

	var handler http.Handler = mux
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogging(cfg.Logger)(handler)
	if cfg.TracingEnabled {
		handler = middleware.Tracing(handler)
	}
	handler = middleware.CorrelationID(cfg.Logger)(handler)
	handler = middleware.SecurityHeaders(cfg.RequireHTTPS)(handler)
	return handler
}
