// Package metrics exposes Prometheus instrumentation for the event
// service: HTTP traffic, database pool health, background jobs, and
// the domain counters operators actually watch (admissions, check-ins,
// sweeps, moderation verdicts).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "unievent"

// Registry is the Prometheus registry for all server metrics.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// AppInfo exposes build information as labels on a constant gauge.
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// EventsCreated counts created events by the lifecycle state they
// entered ("FUTURE" or "PENDING_REVIEW").
var EventsCreated = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_created_total",
		Help:      "Total events created, by initial lifecycle state",
	},
	[]string{"status"},
)

// ModerationVerdicts counts moderation gate outcomes by source
// (blocklist, classifier, unreachable) and verdict.
var ModerationVerdicts = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "moderation_verdicts_total",
		Help:      "Total moderation verdicts by source and result",
	},
	[]string{"source", "verdict"},
)

// AdmissionsTotal counts direct registrations and approval admissions
// by result (admitted, capacity_exceeded, conflict, error).
var AdmissionsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admissions_total",
		Help:      "Total admission attempts by result",
	},
	[]string{"result"},
)

// CheckInsTotal counts ticket check-in attempts by result (attended,
// ticket_used, not_found, error).
var CheckInsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkins_total",
		Help:      "Total check-in attempts by result",
	},
	[]string{"result"},
)

// ApplicationDecisions counts application reviews by decision.
var ApplicationDecisions = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "application_decisions_total",
		Help:      "Total application decisions by outcome",
	},
	[]string{"decision"},
)

// SweepRuns counts completed sweep executions.
var SweepRuns = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_runs_total",
		Help:      "Total lifecycle sweep executions",
	},
)

// SweepCompletedEvents counts events moved FUTURE to COMPLETED by the
// sweep.
var SweepCompletedEvents = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_completed_events_total",
		Help:      "Total events transitioned to COMPLETED by the sweep",
	},
)
