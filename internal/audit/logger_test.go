package audit

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogSuccess(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))

	logger.Success("event_review", "01HQZX3Y4K6F7G8H9J0K1M2N3P", "event", "01HQZX3Y4K6F7G8H9J0K1M2N3Q")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "event_review", entry["action"])
	assert.Equal(t, "success", entry["status"])
	assert.Equal(t, "audit", entry["component"])
	assert.Equal(t, "info", entry["level"])
}

func TestLogFailureWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))

	logger.Failure("manual_sweep", "01HQZX3Y4K6F7G8H9J0K1M2N3P", "event", "", "database unavailable")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "database unavailable", entry["detail"])
}

func TestNilLoggerIsNoop(t *testing.T) {
	var logger *Logger
	logger.Success("event_review", "x", "event", "y")
}
