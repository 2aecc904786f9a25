package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"content-indexer/internal/logging"
	"content-indexer/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Retry policy for operations that can hit SQLite lock contention.
// This is a store-transaction retry, unrelated to the scheduler's
// content-level fixup retry.
const (
	maxRetries   = 5
	retryBackoff = 20 * time.Millisecond
)

// Database manages all storage operations for the content index.
type Database struct {
	db     *sql.DB
	dbPath string
}

// New creates a new Database instance.
// dbPath should be the full path to the database file (e.g.,
// "/database/index.db"); the parent directory must already exist and be
// writable.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	// WAL mode keeps readers unblocked while the indexer writes;
	// busy_timeout helps prevent "database is locked" errors.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Multiple readers; all index mutations funnel through the scheduler's
	// single worker.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) error {
	schema := `
	-- Content entries
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_path TEXT NOT NULL UNIQUE,
		category TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		slug_text TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'scheduled',
		entry_date INTEGER NOT NULL DEFAULT 0,
		uuid TEXT,
		redirect_url TEXT,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_entries_category ON entries(category);
	CREATE INDEX IF NOT EXISTS idx_entries_date ON entries(entry_date);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_uuid ON entries(uuid) WHERE uuid IS NOT NULL;

	-- Category metadata
	CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_path TEXT NOT NULL UNIQUE,
		category TEXT NOT NULL,
		name TEXT,
		sort_name TEXT,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_categories_category ON categories(category);

	-- Image assets
	CREATE TABLE IF NOT EXISTS images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_path TEXT NOT NULL UNIQUE,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		format TEXT,
		file_size INTEGER NOT NULL DEFAULT 0,
		mod_time INTEGER NOT NULL DEFAULT 0
	);

	-- Per-file content fingerprints for change detection
	CREATE TABLE IF NOT EXISTS file_fingerprints (
		file_path TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		file_mtime INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_fingerprints_mtime ON file_fingerprints(file_mtime);
	`

	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// isBusyError reports whether err is a transient SQLite lock-contention
// error worth retrying.
func isBusyError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// withRetry runs fn up to maxRetries times, backing off between attempts,
// retrying only on SQLite busy/locked errors.
func withRetry(operation string, fn func() error) error {
	var err error
	backoff := retryBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		err = fn()
		if err == nil || !isBusyError(err) {
			return err
		}

		metrics.DBRetriesTotal.WithLabelValues(operation).Inc()
		logging.Debug("%s hit lock contention, retrying in %v (attempt %d/%d)",
			operation, backoff, attempt+1, maxRetries)
		time.Sleep(backoff)
		backoff *= 2
	}

	logging.Warn("%s failed after %d attempts: %v", operation, maxRetries, err)
	return err
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}
