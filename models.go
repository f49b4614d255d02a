// Package cutoutsched schedules the production of spectral-line cutouts for
// the components of an ASKAP scheduling block, with support for multiple
// completion-marker storage backends (filesystem, BadgerDB, SQLite).
//
// The library supports:
//   - Dense job ids fixed by catalog order (first occurrence of a component)
//   - A two-tier admission policy: a hard ceiling on concurrent jobs, and a
//     floor below which beam conflicts are tolerated to guarantee progress
//   - Pluggable completion-marker backends (filesystem, BadgerDB, SQLite)
//   - Pluggable job launchers (direct script execution, PBS qsub submission)
//   - Pre-activation of jobs left running by a previous daemon invocation
//   - Average-concurrency reporting over the whole run
//
// Example usage:
//
//	catalog, _ := cutoutsched.BuildCatalog(rows)
//	store, _ := cutoutsched.NewFileStatusStore("status/8906")
//	launcher := &cutoutsched.ScriptLauncher{Script: "./start_job.sh", SBID: 8906}
//
//	sched, _ := cutoutsched.New(cutoutsched.Config{SBID: 8906}, catalog, store, launcher, logger)
//	report, err := sched.Run(ctx)
package cutoutsched

// JobState represents the lifecycle state of a cutout job.
type JobState string

const (
	// JobStateQueued indicates the job is waiting to be admitted.
	JobStateQueued JobState = "queued"
	// JobStateActive indicates the job has been launched and is running.
	JobStateActive JobState = "active"
	// JobStateCompleted indicates a COMPLETED marker was observed for the job.
	JobStateCompleted JobState = "completed"
	// JobStateFailed indicates a FAILED marker was observed for the job.
	JobStateFailed JobState = "failed"
)

// Job represents one cutout to be produced for a catalog component.
type Job struct {
	ID        int      // Dense 1-based id fixed by catalog order
	Component string   // Component (source) name, unique within the catalog
	Beams     []string // Beam measurement sets the cutout reads, sorted, no duplicates
}

// RunReport summarises a completed scheduler run.
type RunReport struct {
	Loops              int     // Number of scheduling loops executed
	Completed          int     // Components that produced a COMPLETED marker
	Failed             int     // Components that produced a FAILED marker
	AverageConcurrency float64 // Mean number of active jobs per loop
}

// BatchStats is a point-in-time snapshot of scheduler bookkeeping.
type BatchStats struct {
	Active    int // Jobs currently launched and not yet retired
	Remaining int // Jobs still queued or active
	Completed int // Components retired with a COMPLETED marker
	Failed    int // Components retired with a FAILED marker
}
