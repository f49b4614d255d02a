//go:build sqlite
// +build sqlite

package cutoutsched

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStatusStore implements StatusStore using SQLite. It provides ACID
// marker writes and is suitable when several producers share one database
// file on a single host.
type SQLiteStatusStore struct {
	db *sql.DB
}

// NewSQLiteStatusStore creates a SQLite-backed status store.
// The database file will be created if it doesn't exist.
func NewSQLiteStatusStore(dbPath string) (*SQLiteStatusStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStatusStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStatusStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS markers (
		job_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (job_id, kind)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Exists reports whether a marker row is present for (jobID, kind).
func (s *SQLiteStatusStore) Exists(ctx context.Context, jobID int, kind MarkerKind) (bool, error) {
	ctx, err := normalizeContext(ctx)
	if err != nil {
		return false, err
	}
	var one int
	err = s.db.QueryRowContext(ctx,
		"SELECT 1 FROM markers WHERE job_id = ? AND kind = ?", jobID, string(kind)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read marker: %w", err)
	}
	return true, nil
}

// Mark inserts the marker row for (jobID, kind); re-marking is a no-op.
func (s *SQLiteStatusStore) Mark(ctx context.Context, jobID int, kind MarkerKind) error {
	ctx, err := normalizeContext(ctx)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO markers (job_id, kind, created_at) VALUES (?, ?, ?)",
		jobID, string(kind), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStatusStore) Close() error {
	return s.db.Close()
}
