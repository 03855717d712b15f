// Package internal documents the unievent server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, problem responses, and routing
// - domain: event lifecycle, participation, users, and organizations
// - moderation: the content gate events pass through before publication
// - storage: pgx repositories and SQL migrations
// - jobs: River background workers, primarily the completion sweep
// - auth, audit, config, metrics, sanitize, telemetry: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
