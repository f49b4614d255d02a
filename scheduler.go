package cutoutsched

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrExhausted is returned by Run when the loop budget is spent with jobs
// still queued or active.
var ErrExhausted = errors.New("failed to complete processing within loop budget")

// Scheduler drives one scheduling-block run: it polls the status store for
// finished jobs, releases their beams, and admits queued jobs under the
// two-tier concurrency policy.
//
// The scheduler is single-threaded. Observation and admission run strictly
// in sequence inside a loop, loops run strictly in sequence, and all
// bookkeeping is mutated only from the goroutine that calls Run (or Step).
// Within one loop every completion is observed, and its beams released,
// before any admission decision, so a beam freed this loop can be reused by
// a job admitted later in the same loop.
type Scheduler struct {
	cfg      Config
	catalog  *Catalog
	state    *BatchState
	status   StatusStore
	launcher Launcher
	logger   *slog.Logger
	metrics  *Metrics

	loops int
	total int // sum of |active| per loop, plus the pre-activation seed
}

// New creates a scheduler for one run over the catalog. Zero config values
// are replaced with the package defaults.
func New(cfg Config, catalog *Catalog, store StatusStore, launcher Launcher, logger *slog.Logger) (*Scheduler, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog is nil")
	}
	if store == nil {
		return nil, fmt.Errorf("status store is nil")
	}
	if launcher == nil {
		return nil, fmt.Errorf("launcher is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:      cfg.withDefaults(),
		catalog:  catalog,
		state:    NewBatchState(catalog),
		status:   store,
		launcher: launcher,
		logger:   logger,
	}, nil
}

// SetMetrics attaches prometheus collectors. Call before Run.
func (s *Scheduler) SetMetrics(m *Metrics) {
	s.metrics = m
}

// State exposes the scheduler's bookkeeping for inspection. The state must
// not be mutated by callers while Run is in progress.
func (s *Scheduler) State() *BatchState {
	return s.state
}

// Stats returns a snapshot of the bookkeeping counts.
func (s *Scheduler) Stats() BatchStats {
	return s.state.Stats()
}

// Run executes the driver loop until every job reaches a terminal state or
// the loop budget is spent. It returns ErrExhausted in the latter case and
// ErrLaunchFailed (wrapped) when a job submission itself fails; individual
// job failures are tallied, not escalated. Run may be called once per
// scheduler.
func (s *Scheduler) Run(ctx context.Context) (RunReport, error) {
	seed, err := s.registerPreActive()
	if err != nil {
		return s.report(), err
	}
	s.total += seed

	s.logger.Info("processing targets",
		"targets", s.state.RemainingCount(),
		"delay", s.cfg.Delay,
		"max_loops", s.cfg.MaxLoops,
		"concurrency_limit", s.cfg.ConcurrencyLimit,
		"min_concurrency_limit", s.cfg.MinConcurrencyLimit,
	)

	for s.state.RemainingCount() > 0 && s.loops < s.cfg.MaxLoops {
		if err := s.Step(ctx); err != nil {
			return s.report(), err
		}
		if s.state.RemainingCount() > 0 {
			if err := s.sleep(ctx); err != nil {
				return s.report(), err
			}
		}
	}

	if remaining := s.state.RemainingCount(); remaining > 0 {
		return s.report(), fmt.Errorf("%w: %d loops run, %d jobs incomplete", ErrExhausted, s.loops, remaining)
	}

	rep := s.report()
	s.logger.Info("completed processing",
		"loops", rep.Loops,
		"completed", rep.Completed,
		"failed", rep.Failed,
		"average_concurrency", rep.AverageConcurrency,
	)
	return rep, nil
}

// Step executes one scheduling loop: observe completions, admit queued
// jobs, account concurrency. Run calls Step; tests may call it directly to
// drive the scheduler cycle by cycle.
func (s *Scheduler) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.loops++
	st := s.state.Stats()
	s.logger.Info("scheduling loop",
		"loop", s.loops,
		"completed", st.Completed,
		"failed", st.Failed,
		"remaining", st.Remaining,
	)

	if err := s.observe(ctx); err != nil {
		return err
	}
	if err := s.admit(ctx); err != nil {
		return err
	}

	s.total += s.state.ActiveCount()
	s.metrics.setActive(s.state.ActiveCount())
	s.metrics.loopDone()
	return nil
}

// registerPreActive seeds the active set with the configured pre-active
// job ids. Trusted input: no conflict check, no launch.
func (s *Scheduler) registerPreActive() (int, error) {
	for _, id := range s.cfg.PreActive {
		job, err := s.catalog.Job(id)
		if err != nil {
			return s.state.ActiveCount(), fmt.Errorf("pre-active job: %w", err)
		}
		n, err := s.state.RegisterActive([]int{id})
		if err != nil {
			return n, err
		}
		s.logger.Info("registered active job",
			"component", job.Component,
			"job_id", id,
			"concurrency", n,
			"beams", job.Beams,
		)
	}
	return s.state.ActiveCount(), nil
}

// observe scans a snapshot of the remaining ids in ascending order and
// retires every job whose terminal marker has appeared, releasing its beams
// if it was active. A marker for a job that is no longer active retires the
// job without touching the beam counts.
func (s *Scheduler) observe(ctx context.Context) error {
	for _, id := range s.state.RemainingIDs() {
		job, err := s.catalog.Job(id)
		if err != nil {
			return err
		}
		if s.state.Retired(job.Component) {
			continue
		}

		completed, err := s.status.Exists(ctx, id, MarkerCompleted)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("status check failed", "job_id", id, "error", err)
			continue
		}
		if completed {
			s.finish(job, JobStateCompleted)
			continue
		}

		failed, err := s.status.Exists(ctx, id, MarkerFailed)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("status check failed", "job_id", id, "error", err)
			continue
		}
		if failed {
			s.finish(job, JobStateFailed)
		}
	}
	return nil
}

// finish retires a job whose terminal marker was observed.
func (s *Scheduler) finish(job Job, state JobState) {
	if s.state.Release(job.ID) {
		if state == JobStateFailed {
			s.logger.Warn("job failed",
				"component", job.Component, "job_id", job.ID, "concurrency", s.state.ActiveCount())
		} else {
			s.logger.Info("job completed",
				"component", job.Component, "job_id", job.ID, "concurrency", s.state.ActiveCount())
		}
	} else {
		// Late or duplicate signal for a job we never held beams for.
		s.logger.Info("skipping job, already finished",
			"component", job.Component, "job_id", job.ID, "state", string(state))
	}
	if err := s.state.Retire(job.ID, state); err != nil {
		s.logger.Error("retire job", "job_id", job.ID, "error", err)
		return
	}
	if state == JobStateFailed {
		s.metrics.jobFailed()
	} else {
		s.metrics.jobCompleted()
	}
}

// admit scans the remaining ids in ascending order (lower id wins ties) and
// starts every admissible job. Above the min-concurrency floor a job whose
// beams collide with held beams is deferred to a later loop; at or below
// the floor conflicts are tolerated so the queue cannot deadlock. At the
// concurrency ceiling a single rate-limit notice is logged per scan.
func (s *Scheduler) admit(ctx context.Context) error {
	rateLimited := false
	for _, id := range s.state.RemainingIDs() {
		if s.state.IsActive(id) {
			continue
		}
		job, err := s.catalog.Job(id)
		if err != nil {
			return err
		}
		if s.state.CompletedName(job.Component) {
			continue
		}

		if s.state.ActiveCount() > s.cfg.MinConcurrencyLimit && s.state.Conflicts(id) {
			s.metrics.admissionDeferred()
			continue
		}

		if s.state.ActiveCount() < s.cfg.ConcurrencyLimit {
			rateLimited = false
			if err := s.state.Activate(id); err != nil {
				return err
			}
			s.logger.Info("starting job",
				"component", job.Component,
				"job_id", id,
				"concurrency", s.state.ActiveCount(),
				"beams", job.Beams,
			)
			if err := s.launcher.Launch(ctx, job); err != nil {
				return err
			}
			s.metrics.jobLaunched()
		} else if !rateLimited {
			rateLimited = true
			s.logger.Info("rate limit applied", "limit", s.cfg.ConcurrencyLimit)
		}
	}
	return nil
}

func (s *Scheduler) sleep(ctx context.Context) error {
	timer := time.NewTimer(s.cfg.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Scheduler) report() RunReport {
	st := s.state.Stats()
	rep := RunReport{
		Loops:     s.loops,
		Completed: st.Completed,
		Failed:    st.Failed,
	}
	if s.loops > 0 {
		rep.AverageConcurrency = float64(s.total) / float64(s.loops)
	}
	return rep
}
