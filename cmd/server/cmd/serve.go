package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/rivertype"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/unievent/server/internal/api"
	"github.com/unievent/server/internal/api/handlers"
	"github.com/unievent/server/internal/audit"
	"github.com/unievent/server/internal/auth"
	"github.com/unievent/server/internal/config"
	"github.com/unievent/server/internal/domain/events"
	"github.com/unievent/server/internal/domain/organizations"
	"github.com/unievent/server/internal/domain/participation"
	"github.com/unievent/server/internal/domain/users"
	"github.com/unievent/server/internal/jobs"
	"github.com/unievent/server/internal/metrics"
	"github.com/unievent/server/internal/moderation"
	"github.com/unievent/server/internal/storage/postgres"
	"github.com/unievent/server/internal/telemetry"
)

var (
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server and begin accepting API requests.

Startup also:
- applies River job queue migrations
- bootstraps the admin account when ADMIN_USERNAME/ADMIN_PASSWORD are set
- schedules the hourly completion sweep
- handles graceful shutdown on SIGINT/SIGTERM`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("version", Version).Msg("starting unievent server")

	metrics.AppInfo.WithLabelValues(Version, GitCommit, BuildDate).Set(1)

	tracingShutdown, err := telemetry.InitTracing(context.Background(), cfg.Tracing, Version)
	if err != nil {
		logger.Error().Err(err).Msg("tracing init failed")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tracingShutdown(ctx)
		}()
	}

	pool, err := newPool(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = jobs.MigrateRiver(migrateCtx, pool)
	migrateCancel()
	if err != nil {
		return fmt.Errorf("river migrations: %w", err)
	}

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return fmt.Errorf("repository init: %w", err)
	}

	// Domain services.
	var classifier moderation.Classifier
	if cfg.Moderation.Endpoint != "" {
		classifier = moderation.NewHTTPClassifier(cfg.Moderation.Endpoint, cfg.Moderation.APIKey, cfg.Moderation.Timeout)
	}
	gate := moderation.NewGate(classifier)

	lifecycle := events.NewLifecycleService(repo.Events(), gate, logger)
	orgService := organizations.NewService(repo.Organizations(), logger)
	ownership := events.NewOwnershipChecker(repo.Organizations())
	participationService := participation.NewService(repo.Participation(), repo.Users(), logger)
	userService := users.NewService(repo.Users(), logger)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = userService.EnsureAdmin(bootCtx, cfg.AdminBootstrap.Username, cfg.AdminBootstrap.Email, cfg.AdminBootstrap.Password)
	bootCancel()
	if err != nil {
		logger.Error().Err(err).Msg("admin bootstrap failed")
	}

	// Database pool metrics.
	dbCollector := metrics.NewDBCollector(pool)
	collectorCtx, collectorCancel := context.WithCancel(context.Background())
	go dbCollector.Start(collectorCtx, 15*time.Second)
	defer collectorCancel()
	defer dbCollector.Stop()

	// Background sweep via River.
	riverStop, err := startSweeper(cfg, pool, lifecycle, logger)
	if err != nil {
		return err
	}
	if riverStop != nil {
		defer riverStop()
	}

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.Issuer)

	handler := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		JWT:            jwtManager,
		Pool:           pool,
		Events:         handlers.NewEventsHandler(lifecycle, ownership, cfg.Environment),
		Participation:  handlers.NewParticipationHandler(participationService, lifecycle, ownership, cfg.Environment),
		Applications:   handlers.NewApplicationsHandler(participationService, lifecycle, ownership, cfg.Environment),
		Organizations:  handlers.NewOrganizationsHandler(orgService, cfg.Environment),
		Admin:          handlers.NewAdminHandler(lifecycle, audit.NewLogger(logger), cfg.Environment),
		Health:         handlers.NewHealthChecker(pool, Version, GitCommit),
		RequireHTTPS:   cfg.Environment == "production",
		TracingEnabled: cfg.Tracing.Enabled,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	return gracefulShutdown(server, logger)
}

func newPool(cfg config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxConnections)
	poolCfg.MinConns = int32(cfg.Database.MaxIdle)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return pool, nil
}

// startSweeper wires the River client with the periodic completion
// sweep. The returned stop function drains workers on shutdown.
func startSweeper(cfg config.Config, pool *pgxpool.Pool, lifecycle *events.LifecycleService, logger zerolog.Logger) (func(), error) {
	if cfg.Sweep.Disabled {
		logger.Warn().Msg("scheduled sweep disabled; expired events only move via the manual trigger")
		return nil, nil
	}

	workers, err := jobs.NewWorkers(lifecycle)
	if err != nil {
		return nil, fmt.Errorf("register workers: %w", err)
	}

	client, err := jobs.NewClient(pool, workers, config.NewSlogLogger(cfg.Logging),
		[]rivertype.Hook{metrics.NewRiverMetricsHook()}, jobs.NewPeriodicJobs(cfg.Sweep.Interval))
	if err != nil {
		return nil, fmt.Errorf("river client: %w", err)
	}

	riverCtx, riverCancel := context.WithCancel(context.Background())
	if err := client.Start(riverCtx); err != nil {
		riverCancel()
		return nil, fmt.Errorf("river start: %w", err)
	}
	logger.Info().Dur("interval", cfg.Sweep.Interval).Msg("completion sweep scheduled")

	return func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := client.Stop(stopCtx); err != nil {
			logger.Error().Err(err).Msg("river shutdown error")
		}
		riverCancel()
	}, nil
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}

func gracefulShutdown(server *http.Server, logger zerolog.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
