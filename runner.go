package cutoutsched

import (
	"context"
	"fmt"
	"log/slog"
)

// ProcessFunc produces the cutout for one job. A non-nil error marks the
// job failed; the scheduler does not retry it.
type ProcessFunc func(ctx context.Context, job Job) error

// JobRunner is the producer-side counterpart of the scheduler: it executes
// the processing function for a job and writes the terminal marker the
// scheduler polls for. In-process launchers (simulations, tests, single-host
// runs) wrap a JobRunner; batch deployments achieve the same by having the
// job script touch the marker file itself.
type JobRunner struct {
	store   StatusStore
	process ProcessFunc
	logger  *slog.Logger
}

// NewJobRunner creates a runner that reports through the given store.
func NewJobRunner(store StatusStore, process ProcessFunc, logger *slog.Logger) *JobRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobRunner{store: store, process: process, logger: logger}
}

// Run processes the job and writes exactly one terminal marker: COMPLETED
// when the processing function returns nil, FAILED otherwise. The returned
// error covers only marker writing; a failed job is an outcome, not an
// error.
func (r *JobRunner) Run(ctx context.Context, job Job) error {
	kind := MarkerCompleted
	if err := r.process(ctx, job); err != nil {
		r.logger.Warn("job processing failed", "component", job.Component, "job_id", job.ID, "error", err)
		kind = MarkerFailed
	}
	if err := r.store.Mark(ctx, job.ID, kind); err != nil {
		return fmt.Errorf("mark job %d %s: %w", job.ID, kind, err)
	}
	return nil
}
