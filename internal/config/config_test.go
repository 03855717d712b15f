package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()
	require.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/unievent")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/unievent")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 24*time.Hour, cfg.Auth.JWTExpiry)
	require.Equal(t, time.Hour, cfg.Sweep.Interval)
	require.False(t, cfg.Sweep.Disabled)
	require.Equal(t, 10*time.Second, cfg.Moderation.Timeout)
	require.Equal(t, "json", cfg.Logging.Format)
	require.Equal(t, "development", cfg.Environment)
	require.False(t, cfg.Tracing.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/unievent")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SWEEP_INTERVAL_MINUTES", "15")
	t.Setenv("SWEEP_DISABLED", "true")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 15*time.Minute, cfg.Sweep.Interval)
	require.True(t, cfg.Sweep.Disabled)
	require.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadRejectsInvalidEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/unievent")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ENVIRONMENT", "staging")

	_, err := Load()
	require.ErrorContains(t, err, "invalid configuration")
}
