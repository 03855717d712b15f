package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/unievent/server/internal/config"
	"github.com/unievent/server/internal/domain/events"
	"github.com/unievent/server/internal/moderation"
	"github.com/unievent/server/internal/storage/postgres"
)

// sweepCmd runs the completion sweep once and exits, for operators who
// need to retire expired events without waiting for the hourly job.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Move expired FUTURE events to COMPLETED once",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := config.NewLogger(cfg.Logging)

		pool, err := newPool(cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		repo, err := postgres.NewRepository(pool)
		if err != nil {
			return fmt.Errorf("repository init: %w", err)
		}

		lifecycle := events.NewLifecycleService(repo.Events(), moderation.NewGate(nil), logger)

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		updated, err := lifecycle.SweepCompleted(ctx)
		if err != nil {
			return fmt.Errorf("sweep: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "completed %d events\n", updated)
		return nil
	},
}
