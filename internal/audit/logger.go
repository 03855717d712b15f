// Package audit records admin operations as structured log entries so
// review decisions and manual sweeps stay attributable.
package audit

import (
	"time"

	"github.com/rs/zerolog"
)

type Entry struct {
	Action       string
	AdminULID    string
	ResourceType string
	ResourceID   string
	Status       string
	Detail       string
}

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

type Logger struct {
	logger zerolog.Logger
}

func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger.With().Str("component", "audit").Logger()}
}

// Log emits one audit entry. A nil receiver is a no-op so callers can
// treat the audit trail as optional.
func (l *Logger) Log(entry Entry) {
	if l == nil {
		return
	}
	event := l.logger.Info()
	if entry.Status == StatusFailure {
		event = l.logger.Warn()
	}
	event.
		Time("at", time.Now().UTC()).
		Str("action", entry.Action).
		Str("admin_ulid", entry.AdminULID).
		Str("resource_type", entry.ResourceType).
		Str("resource_id", entry.ResourceID).
		Str("status", entry.Status)
	if entry.Detail != "" {
		event.Str("detail", entry.Detail)
	}
	event.Msg("admin action")
}

// Success and Failure are shorthands for the common cases.

func (l *Logger) Success(action, adminULID, resourceType, resourceID string) {
	l.Log(Entry{Action: action, AdminULID: adminULID, ResourceType: resourceType, ResourceID: resourceID, Status: StatusSuccess})
}

func (l *Logger) Failure(action, adminULID, resourceType, resourceID, detail string) {
	l.Log(Entry{Action: action, AdminULID: adminULID, ResourceType: resourceType, ResourceID: resourceID, Status: StatusFailure, Detail: detail})
}
