package jobs

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/unievent/server/internal/metrics"
)

// Sweeper is the slice of the event lifecycle service the sweep worker
// needs.
type Sweeper interface {
	SweepCompleted(ctx context.Context) (int64, error)
}

type SweepCompletedArgs struct{}

func (SweepCompletedArgs) Kind() string { return JobKindSweepCompleted }

// SweepCompletedWorker runs the bulk FUTURE to COMPLETED transition.
type SweepCompletedWorker struct {
	river.WorkerDefaults[SweepCompletedArgs]
	Lifecycle Sweeper
}

func (SweepCompletedWorker) Kind() string { return JobKindSweepCompleted }

func (w SweepCompletedWorker) Work(ctx context.Context, job *river.Job[SweepCompletedArgs]) error {
	if w.Lifecycle == nil {
		return fmt.Errorf("lifecycle service not configured")
	}

	updated, err := w.Lifecycle.SweepCompleted(ctx)
	if err != nil {
		return fmt.Errorf("sweep completed events: %w", err)
	}
	metrics.SweepRuns.Inc()
	metrics.SweepCompletedEvents.Add(float64(updated))
	return nil
}
