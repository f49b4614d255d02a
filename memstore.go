package cutoutsched

import (
	"context"
	"sync"
)

// InMemoryStatusStore implements StatusStore using in-memory storage.
// It uses a single mutex for thread-safety and is suitable for testing and
// in-process simulations.
type InMemoryStatusStore struct {
	mu      sync.RWMutex
	markers map[markerID]bool
	closed  bool
}

type markerID struct {
	jobID int
	kind  MarkerKind
}

// NewInMemoryStatusStore creates a new in-memory status store.
func NewInMemoryStatusStore() *InMemoryStatusStore {
	return &InMemoryStatusStore{
		markers: make(map[markerID]bool),
	}
}

// Exists reports whether Mark has been called for (jobID, kind).
func (s *InMemoryStatusStore) Exists(ctx context.Context, jobID int, kind MarkerKind) (bool, error) {
	if _, err := normalizeContext(ctx); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, ErrStoreClosed
	}
	return s.markers[markerID{jobID: jobID, kind: kind}], nil
}

// Mark records a marker for (jobID, kind).
func (s *InMemoryStatusStore) Mark(ctx context.Context, jobID int, kind MarkerKind) error {
	if _, err := normalizeContext(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.markers[markerID{jobID: jobID, kind: kind}] = true
	return nil
}

// Close closes the store and prevents further operations.
func (s *InMemoryStatusStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
