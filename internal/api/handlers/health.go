package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type HealthStatus struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit,omitempty"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

type CheckResult struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// HealthChecker probes the dependencies the server cannot run
// without: the database, applied migrations, and the job queue.
type HealthChecker struct {
	pool      *pgxpool.Pool
	version   string
	gitCommit string
}

func NewHealthChecker(pool *pgxpool.Pool, version, gitCommit string) *HealthChecker {
	return &HealthChecker{pool: pool, version: version, gitCommit: gitCommit}
}

// Health handles GET /healthz with the full dependency report. Any
// failing check turns the response into a 503.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]CheckResult{
			"database":   h.checkDatabase(ctx),
			"migrations": h.checkMigrations(ctx),
			"job_queue":  h.checkJobQueue(ctx),
		}

		overall := "healthy"
		statusCode := http.StatusOK
		for _, check := range checks {
			if check.Status == "fail" {
				overall = "unhealthy"
				statusCode = http.StatusServiceUnavailable
				break
			}
			if check.Status == "warn" {
				overall = "degraded"
			}
		}

		writeJSON(w, statusCode, HealthStatus{
			Status:    overall,
			Version:   h.version,
			GitCommit: h.gitCommit,
			Checks:    checks,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func (h *HealthChecker) checkDatabase(ctx context.Context) CheckResult {
	start := time.Now()
	if h.pool == nil {
		return CheckResult{Status: "fail", Message: "database pool not initialized"}
	}

	dbCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var one int
	err := h.pool.QueryRow(dbCtx, "SELECT 1").Scan(&one)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return CheckResult{
			Status:    "fail",
			Message:   "database query failed",
			LatencyMs: latency,
			Details:   map[string]any{"error": err.Error()},
		}
	}

	stats := h.pool.Stat()
	return CheckResult{
		Status:    "pass",
		LatencyMs: latency,
		Details: map[string]any{
			"max_connections":      stats.MaxConns(),
			"total_connections":    stats.TotalConns(),
			"idle_connections":     stats.IdleConns(),
			"acquired_connections": stats.AcquiredConns(),
		},
	}
}

func (h *HealthChecker) checkMigrations(ctx context.Context) CheckResult {
	start := time.Now()
	if h.pool == nil {
		return CheckResult{Status: "fail", Message: "database pool not initialized"}
	}

	migCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var version int64
	var dirty bool
	err := h.pool.QueryRow(migCtx,
		`SELECT version, dirty FROM schema_migrations ORDER BY version DESC LIMIT 1`,
	).Scan(&version, &dirty)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return CheckResult{
			Status:    "fail",
			Message:   "failed to read migration version",
			LatencyMs: latency,
			Details:   map[string]any{"error": err.Error()},
		}
	}
	if dirty {
		return CheckResult{
			Status:    "fail",
			Message:   "database in dirty migration state",
			LatencyMs: latency,
			Details:   map[string]any{"version": version},
		}
	}
	return CheckResult{
		Status:    "pass",
		Message:   fmt.Sprintf("migrations applied (version %d)", version),
		LatencyMs: latency,
	}
}

func (h *HealthChecker) checkJobQueue(ctx context.Context) CheckResult {
	start := time.Now()
	if h.pool == nil {
		return CheckResult{Status: "fail", Message: "database pool not initialized"}
	}

	jobCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var tableExists bool
	err := h.pool.QueryRow(jobCtx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = 'river_job'
		)`).Scan(&tableExists)
	if err != nil {
		return CheckResult{
			Status:    "fail",
			Message:   "failed to check job queue tables",
			LatencyMs: time.Since(start).Milliseconds(),
			Details:   map[string]any{"error": err.Error()},
		}
	}
	if !tableExists {
		return CheckResult{
			Status:    "warn",
			Message:   "river schema not migrated",
			LatencyMs: time.Since(start).Milliseconds(),
		}
	}

	var activeJobs int64
	err = h.pool.QueryRow(jobCtx,
		`SELECT COUNT(*) FROM river_job WHERE state = ANY($1)`,
		[]string{"available", "running"},
	).Scan(&activeJobs)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return CheckResult{
			Status:    "fail",
			Message:   "failed to query job queue",
			LatencyMs: latency,
			Details:   map[string]any{"error": err.Error()},
		}
	}
	return CheckResult{
		Status:    "pass",
		LatencyMs: latency,
		Details:   map[string]any{"active_jobs": activeJobs},
	}
}

// Healthz is the lightweight liveness probe.
func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondHealth(w, http.StatusOK, "ok")
	})
}

// Readyz reports readiness by pinging the database.
func Readyz(pool *pgxpool.Pool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if pool == nil || pool.Ping(ctx) != nil {
			respondHealth(w, http.StatusServiceUnavailable, "not_ready")
			return
		}
		respondHealth(w, http.StatusOK, "ready")
	})
}

type healthResponse struct {
	Status string `json:"status"`
}

func respondHealth(w http.ResponseWriter, status int, value string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(healthResponse{Status: value})
}
