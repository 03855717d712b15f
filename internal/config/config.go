package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Auth           AuthConfig
	Moderation     ModerationConfig
	Sweep          SweepConfig
	Logging        LoggingConfig
	Tracing        TracingConfig
	AdminBootstrap AdminBootstrapConfig
	Environment    string `validate:"oneof=development test production"`
}

type ServerConfig struct {
	Host    string `validate:"required"`
	Port    int    `validate:"min=1,max=65535"`
	BaseURL string `validate:"required,url"`
}

type DatabaseConfig struct {
	URL            string `validate:"required"`
	MaxConnections int    `validate:"min=1"`
	MaxIdle        int    `validate:"min=0"`
}

type AuthConfig struct {
	JWTSecret string `validate:"required"`
	JWTExpiry time.Duration
	Issuer    string
}

// ModerationConfig points at the content classifier consumed during
// event creation. When Endpoint is empty the gate runs with the
// blocklist pre-filter only and treats the classifier as unreachable,
// which fails closed.
type ModerationConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration `validate:"min=0"`
}

type SweepConfig struct {
	Interval time.Duration `validate:"min=1m"`
	Disabled bool
}

type LoggingConfig struct {
	Level  string
	Format string `validate:"oneof=json console"`
}

type TracingConfig struct {
	Enabled      bool
	Exporter     string `validate:"oneof=stdout otlp none"`
	ServiceName  string
	OTLPEndpoint string
	SampleRate   float64 `validate:"min=0,max=1"`
}

type AdminBootstrapConfig struct {
	Username string
	Password string
	Email    string
}

func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvInt("SERVER_PORT", 8080),
			BaseURL: getEnv("SERVER_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 25),
			MaxIdle:        getEnvInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			JWTExpiry: time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
			Issuer:    getEnv("JWT_ISSUER", "unievent"),
		},
		Moderation: ModerationConfig{
			Endpoint: getEnv("MODERATION_ENDPOINT", ""),
			APIKey:   getEnv("MODERATION_API_KEY", ""),
			Timeout:  time.Duration(getEnvInt("MODERATION_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Sweep: SweepConfig{
			Interval: time.Duration(getEnvInt("SWEEP_INTERVAL_MINUTES", 60)) * time.Minute,
			Disabled: getEnvBool("SWEEP_DISABLED", false),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvBool("TRACING_ENABLED", false),
			Exporter:     getEnv("TRACING_EXPORTER", "none"),
			ServiceName:  getEnv("TRACING_SERVICE_NAME", "unievent-server"),
			OTLPEndpoint: getEnv("TRACING_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:   getEnvFloat("TRACING_SAMPLE_RATE", 1.0),
		},
		AdminBootstrap: AdminBootstrapConfig{
			Username: getEnv("ADMIN_USERNAME", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
			Email:    getEnv("ADMIN_EMAIL", ""),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
