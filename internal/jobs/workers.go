package jobs

import (
	"fmt"

	"github.com/riverqueue/river"
)

// NewWorkers registers every worker the server runs.
func NewWorkers(lifecycle Sweeper) (*river.Workers, error) {
	workers := river.NewWorkers()
	if err := river.AddWorkerSafely(workers, SweepCompletedWorker{Lifecycle: lifecycle}); err != nil {
		return nil, fmt.Errorf("register sweep worker: %w", err)
	}
	return workers, nil
}
