package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Sentinel errors surfaced by store operations. Callers match with
// errors.Is and report them without retrying.
var (
	ErrDuplicateJob = errors.New("job with this id already exists")
	ErrNotFound     = errors.New("job not found")
	ErrNotDead      = errors.New("job not found in DLQ")
)

// Store wraps the SQLite database holding jobs and config. It is the
// only shared mutable resource between worker processes.
type Store struct {
	DB *sql.DB
}

// DefaultPath returns the queue database location under the user's
// home directory, creating the parent directory if needed.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	dir := filepath.Join(home, ".queuectl")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create state dir: %w", err)
	}
	return filepath.Join(dir, "queue.db"), nil
}

// NewStore opens (and if necessary creates) the queue database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// WAL lets readers proceed while a claim transaction is in flight;
	// busy_timeout bounds how long writers wait on the file lock.
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{DB: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.DB.Close()
}

func runMigrations(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS jobs (
  id TEXT PRIMARY KEY,
  command TEXT NOT NULL,
  state TEXT NOT NULL CHECK (state IN ('pending','processing','completed','dead')),
  attempts INTEGER NOT NULL DEFAULT 0,
  retry_limit INTEGER NOT NULL DEFAULT 3,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  next_run_at TEXT DEFAULT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_pending_next_run
ON jobs (state, next_run_at);

CREATE TABLE IF NOT EXISTS config (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);

INSERT OR IGNORE INTO config(key,value) VALUES ('max_retries','3');
INSERT OR IGNORE INTO config(key,value) VALUES ('backoff_base_seconds','2');
INSERT OR IGNORE INTO config(key,value) VALUES ('backoff_cap_seconds','0');
`
	_, err := db.Exec(schema)
	return err
}

// isBusy reports whether err is transient SQLite lock contention.
// Contention is never an error to callers: the claim protocol treats
// it exactly like "no job available".
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "SQLITE_LOCKED")
}

// isDuplicate reports whether err is a primary key violation on insert.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// timeLayout is fixed-width so the lexicographic comparisons in SQL
// (`next_run_at <= ?`, `ORDER BY created_at`) match chronological
// order. RFC3339Nano trims trailing fractional zeros, and a string
// that is a prefix of another sorts wrong ("...00.5Z" > "...00.51Z").
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
