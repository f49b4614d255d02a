package cutoutsched

import (
	"context"
	"errors"
)

// MarkerKind identifies the two completion-marker kinds a job can produce.
type MarkerKind string

const (
	// MarkerCompleted is written when a cutout job finishes successfully.
	MarkerCompleted MarkerKind = "COMPLETED"
	// MarkerFailed is written when a cutout job gives up.
	MarkerFailed MarkerKind = "FAILED"
)

// ErrStoreClosed is returned by store operations after Close.
var ErrStoreClosed = errors.New("status store is closed")

// StatusStore is the completion-signal boundary between the scheduler and
// the jobs it launches. Jobs (or their wrappers, see JobRunner) write a
// marker when they reach a terminal state; the scheduler only ever asks
// whether a marker exists. Marker content is irrelevant, only presence
// counts.
//
// Implementations must be safe for concurrent use: markers are written by
// out-of-process jobs while the scheduler polls.
type StatusStore interface {
	// Exists reports whether a marker of the given kind has been written
	// for the job id.
	Exists(ctx context.Context, jobID int, kind MarkerKind) (bool, error)

	// Mark records a marker of the given kind for the job id. Marking the
	// same (id, kind) twice is not an error.
	Mark(ctx context.Context, jobID int, kind MarkerKind) error

	// Close releases any resources held by the store.
	Close() error
}

func normalizeContext(ctx context.Context) (context.Context, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ctx, nil
}
