package cutoutsched

import (
	"fmt"
)

// BatchState owns the mutable bookkeeping for one scheduling-block run: the
// queue of remaining job ids, the active id set, the beam occupancy counts,
// and the names of retired components.
//
// BatchState is not safe for concurrent use. The scheduler mutates it from
// a single control loop only; see Scheduler.Run.
type BatchState struct {
	catalog   *Catalog
	remaining []int          // queued-or-active job ids, ascending
	active    map[int]bool   // launched, not yet retired
	heldBeams map[string]int // beam -> number of active jobs reading it
	completed map[string]bool
	failed    map[string]bool
}

// NewBatchState creates the bookkeeping for a fresh run: every catalog job
// queued, nothing active, no beams held.
func NewBatchState(catalog *Catalog) *BatchState {
	s := &BatchState{
		catalog:   catalog,
		remaining: make([]int, 0, catalog.Size()),
		active:    make(map[int]bool),
		heldBeams: make(map[string]int),
		completed: make(map[string]bool),
		failed:    make(map[string]bool),
	}
	for id := 1; id <= catalog.Size(); id++ {
		s.remaining = append(s.remaining, id)
	}
	return s
}

// RegisterActive seeds the state with jobs assumed already running from a
// previous invocation. The ids are trusted: their beams are added to the
// occupancy counts and the ids to the active set with no conflict check and
// no launch. Returns the resulting active count.
func (s *BatchState) RegisterActive(ids []int) (int, error) {
	for _, id := range ids {
		job, err := s.catalog.Job(id)
		if err != nil {
			return s.ActiveCount(), fmt.Errorf("pre-active job: %w", err)
		}
		if s.active[id] {
			continue
		}
		s.activate(job)
	}
	return s.ActiveCount(), nil
}

// Activate marks the job active and adds its beams to the occupancy counts.
// The caller decides admission; Activate only does the bookkeeping.
func (s *BatchState) Activate(id int) error {
	job, err := s.catalog.Job(id)
	if err != nil {
		return err
	}
	if s.active[id] {
		return fmt.Errorf("job %d is already active", id)
	}
	s.activate(job)
	return nil
}

func (s *BatchState) activate(job Job) {
	s.active[job.ID] = true
	for _, beam := range job.Beams {
		s.heldBeams[beam]++
	}
}

// Release removes an active job and decrements exactly the beam counts it
// contributed. Releasing a job that is not active is a no-op and returns
// false, so late duplicate completion signals cannot corrupt the counts.
func (s *BatchState) Release(id int) bool {
	if !s.active[id] {
		return false
	}
	job, err := s.catalog.Job(id)
	if err != nil {
		return false
	}
	delete(s.active, id)
	for _, beam := range job.Beams {
		s.heldBeams[beam]--
		if s.heldBeams[beam] <= 0 {
			delete(s.heldBeams, beam)
		}
	}
	return true
}

// Retire removes the id from the remaining queue and records the component
// name in the completed or failed set. Retire does not touch the active set
// or beam counts; callers release first if the job was active.
func (s *BatchState) Retire(id int, state JobState) error {
	job, err := s.catalog.Job(id)
	if err != nil {
		return err
	}
	switch state {
	case JobStateCompleted:
		s.completed[job.Component] = true
	case JobStateFailed:
		s.failed[job.Component] = true
	default:
		return fmt.Errorf("retire job %d: %s is not a terminal state", id, state)
	}
	for i, rid := range s.remaining {
		if rid == id {
			s.remaining = append(s.remaining[:i], s.remaining[i+1:]...)
			break
		}
	}
	return nil
}

// Conflicts reports whether any beam of the job is currently held by an
// active job.
func (s *BatchState) Conflicts(id int) bool {
	job, err := s.catalog.Job(id)
	if err != nil {
		return false
	}
	for _, beam := range job.Beams {
		if s.heldBeams[beam] > 0 {
			return true
		}
	}
	return false
}

// IsActive reports whether the job id is in the active set.
func (s *BatchState) IsActive(id int) bool {
	return s.active[id]
}

// Retired reports whether the component name has reached a terminal state.
func (s *BatchState) Retired(name string) bool {
	return s.completed[name] || s.failed[name]
}

// CompletedName reports whether the component name completed successfully.
func (s *BatchState) CompletedName(name string) bool {
	return s.completed[name]
}

// ActiveCount returns the number of active jobs.
func (s *BatchState) ActiveCount() int {
	return len(s.active)
}

// RemainingCount returns the number of jobs not yet retired.
func (s *BatchState) RemainingCount() int {
	return len(s.remaining)
}

// RemainingIDs returns a copy of the remaining queue in ascending id order.
// Scans iterate the copy so retiring ids mid-scan is safe.
func (s *BatchState) RemainingIDs() []int {
	ids := make([]int, len(s.remaining))
	copy(ids, s.remaining)
	return ids
}

// HeldCount returns how many active jobs hold the given beam.
func (s *BatchState) HeldCount(beam string) int {
	return s.heldBeams[beam]
}

// HeldBeams returns the number of distinct beams currently held.
func (s *BatchState) HeldBeams() int {
	return len(s.heldBeams)
}

// HeldTotal returns the beam occupancy as a multiset size: a beam held by k
// active jobs counts k.
func (s *BatchState) HeldTotal() int {
	total := 0
	for _, count := range s.heldBeams {
		total += count
	}
	return total
}

// Stats returns a snapshot of the bookkeeping counts.
func (s *BatchState) Stats() BatchStats {
	return BatchStats{
		Active:    len(s.active),
		Remaining: len(s.remaining),
		Completed: len(s.completed),
		Failed:    len(s.failed),
	}
}
