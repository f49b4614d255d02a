package cutoutsched

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStatusStore implements StatusStore using BadgerDB. It suits setups
// where jobs and scheduler share a host but no shared status folder, or
// where marker writes must survive partial filesystem cleanup.
type BadgerStatusStore struct {
	db     *badger.DB
	logger *slog.Logger
}

// key prefix for markers; the numeric id is zero-padded so keys sort in
// job-id order within a kind.
const keyPrefixMarker = "marker:"

func badgerMarkerKey(jobID int, kind MarkerKind) []byte {
	return []byte(fmt.Sprintf("%s%s:%010d", keyPrefixMarker, kind, jobID))
}

// NewBadgerStatusStore creates a BadgerDB-backed status store.
// The database directory will be created if it doesn't exist.
// Note: BadgerDB uses its own logger interface, so its internal logging is disabled.
func NewBadgerStatusStore(dbPath string, logger *slog.Logger) (*BadgerStatusStore, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Disable BadgerDB's internal logging (uses different logger interface)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	return &BadgerStatusStore{db: db, logger: logger}, nil
}

// Exists reports whether a marker key is present for (jobID, kind).
func (s *BadgerStatusStore) Exists(ctx context.Context, jobID int, kind MarkerKind) (bool, error) {
	if _, err := normalizeContext(ctx); err != nil {
		return false, err
	}
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(badgerMarkerKey(jobID, kind))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("read marker: %w", err)
	}
	return found, nil
}

// Mark writes the marker key for (jobID, kind). The value is a timestamp but
// only key presence matters.
func (s *BadgerStatusStore) Mark(ctx context.Context, jobID int, kind MarkerKind) error {
	if _, err := normalizeContext(ctx); err != nil {
		return err
	}
	value := []byte(time.Now().UTC().Format(time.RFC3339))
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerMarkerKey(jobID, kind), value)
	})
	if err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	s.logger.Debug("marker written", "job_id", jobID, "kind", string(kind))
	return nil
}

// Close closes the database.
func (s *BadgerStatusStore) Close() error {
	return s.db.Close()
}
