package cutoutsched

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileStatusStore implements StatusStore using marker files in a status
// folder, one file per (job, kind): "<root>/<id>.COMPLETED" and
// "<root>/<id>.FAILED". This is the convention the cutout jobs themselves
// follow, so a scheduler pointed at a job's status folder observes it
// directly.
type FileStatusStore struct {
	root string
}

// NewFileStatusStore creates a filesystem-backed status store rooted at the
// given folder. The folder is created if it does not exist.
func NewFileStatusStore(root string) (*FileStatusStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create status folder: %w", err)
	}
	return &FileStatusStore{root: root}, nil
}

// Root returns the status folder the store reads and writes.
func (s *FileStatusStore) Root() string {
	return s.root
}

func (s *FileStatusStore) markerPath(jobID int, kind MarkerKind) string {
	return filepath.Join(s.root, fmt.Sprintf("%d.%s", jobID, kind))
}

// Exists reports whether the marker file for (jobID, kind) is present.
func (s *FileStatusStore) Exists(ctx context.Context, jobID int, kind MarkerKind) (bool, error) {
	if _, err := normalizeContext(ctx); err != nil {
		return false, err
	}
	info, err := os.Stat(s.markerPath(jobID, kind))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat marker: %w", err)
	}
	return !info.IsDir(), nil
}

// Mark writes the marker file for (jobID, kind). The file content is a
// timestamp but nothing reads it; presence is the signal.
func (s *FileStatusStore) Mark(ctx context.Context, jobID int, kind MarkerKind) error {
	if _, err := normalizeContext(ctx); err != nil {
		return err
	}
	content := time.Now().UTC().Format(time.RFC3339) + "\n"
	if err := os.WriteFile(s.markerPath(jobID, kind), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	return nil
}

// Close is a no-op for the filesystem store.
func (s *FileStatusStore) Close() error {
	return nil
}
