package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/jsiebert/worklog/internal/repository"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection. Writes from this process are
// serialized through a single writer mutex; a second process opening the
// same store fails fast with repository.ErrLocked instead of risking
// corruption.
type DB struct {
	*sql.DB

	// writeMu serializes all write transactions. Held for the full
	// duration of one resolver commit, which is also the visibility
	// boundary for readers.
	writeMu sync.Mutex

	lockPath string
}

// New opens a SQLite database and acquires the process lock. In-memory
// databases skip the lock.
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 500"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	wrapped := &DB{DB: db}

	if !isEphemeral(dataSourceName) {
		lockPath := dataSourceName + ".lock"
		if err := acquireProcessLock(lockPath); err != nil {
			db.Close()
			return nil, err
		}
		wrapped.lockPath = lockPath
	}

	return wrapped, nil
}

// Close releases the process lock and closes the connection. A lock file
// left behind makes every later open fail with repository.ErrLocked, so
// a failed removal is reported rather than swallowed.
func (db *DB) Close() error {
	var lockErr error
	if db.lockPath != "" {
		if err := os.Remove(db.lockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			lockErr = fmt.Errorf("failed to remove lock file: %w", err)
		}
	}
	return errors.Join(lockErr, db.DB.Close())
}

// WriteTx runs fn inside one write transaction under the writer lock.
// Either every mutation in fn commits or none do.
func (db *DB) WriteTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return mapSQLError(fmt.Errorf("failed to begin transaction: %w", err))
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("rollback failed (%v) after: %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapSQLError(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// RunMigrations creates the schema. Safe to run on every startup.
func (db *DB) RunMigrations() error {
	migration := `
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    name TEXT UNIQUE NOT NULL,
    color TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    last_used INTEGER
);

CREATE TABLE IF NOT EXISTS activities (
    id TEXT PRIMARY KEY,
    start_time INTEGER NOT NULL,
    end_time INTEGER NOT NULL,
    app_name TEXT NOT NULL,
    window_title TEXT NOT NULL DEFAULT '',
    is_idle INTEGER NOT NULL DEFAULT 0,
    project_id TEXT,
    created_at INTEGER NOT NULL,
    CHECK (start_time < end_time),
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE SET NULL
);
CREATE INDEX IF NOT EXISTS idx_activities_start ON activities(start_time);
CREATE INDEX IF NOT EXISTS idx_activities_end ON activities(end_time);
CREATE INDEX IF NOT EXISTS idx_activities_project ON activities(project_id);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

	if _, err := db.Exec(migration); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func isEphemeral(dataSourceName string) bool {
	return dataSourceName == "" ||
		strings.HasPrefix(dataSourceName, ":memory:") ||
		strings.Contains(dataSourceName, "mode=memory")
}

// acquireProcessLock creates a sidecar lock file with O_EXCL. A stale
// file from a crashed process must be removed by the operator; guessing
// liveness here risks two writers on one store.
func acquireProcessLock(lockPath string) error {
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: lock file %s exists", repository.ErrLocked, lockPath)
		}
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	return f.Close()
}
