package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"os"
	"time"

	"content-indexer/internal/logging"
	"content-indexer/internal/metrics"
)

// GetFingerprint returns the last known fingerprint for a file, or "" if the
// file has never been recorded.
func (d *Database) GetFingerprint(ctx context.Context, path string) (string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_fingerprint", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var fingerprint string
	err = d.db.QueryRowContext(ctx,
		"SELECT fingerprint FROM file_fingerprints WHERE file_path = ?", path,
	).Scan(&fingerprint)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return fingerprint, nil
}

// SetFingerprint records the current fingerprint and mtime for a file,
// writing only when the stored fingerprint differs. If the file disappeared
// between fingerprint computation and this call, any existing record for the
// path is deleted instead of writing stale data.
func (d *Database) SetFingerprint(ctx context.Context, path, fingerprint string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_fingerprint", start, err) }()

	info, statErr := os.Stat(path)
	if statErr != nil {
		if errors.Is(statErr, fs.ErrNotExist) {
			logging.Debug("File vanished before fingerprint write, pruning record: %s", path)
			return d.DeleteFingerprint(ctx, path)
		}
		err = statErr
		return err
	}

	err = withRetry("set_fingerprint", func() error {
		opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		defer cancel()

		_, execErr := d.db.ExecContext(opCtx, `
			INSERT INTO file_fingerprints (file_path, fingerprint, file_mtime)
			VALUES (?, ?, ?)
			ON CONFLICT(file_path) DO UPDATE SET
				fingerprint = excluded.fingerprint,
				file_mtime = excluded.file_mtime
			WHERE file_fingerprints.fingerprint != excluded.fingerprint
		`, path, fingerprint, info.ModTime().Unix())
		return execErr
	})
	return err
}

// DeleteFingerprint removes the fingerprint record for a path, if any.
func (d *Database) DeleteFingerprint(ctx context.Context, path string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_fingerprint", start, err) }()

	err = withRetry("delete_fingerprint", func() error {
		opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		defer cancel()

		_, execErr := d.db.ExecContext(opCtx,
			"DELETE FROM file_fingerprints WHERE file_path = ?", path)
		return execErr
	})
	return err
}

// LastModified returns the most recently modified fingerprint record, used
// by callers as a cache invalidation key. Returns ok=false when the store is
// empty.
func (d *Database) LastModified(ctx context.Context) (FingerprintRecord, bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("last_modified", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var record FingerprintRecord
	var mtime int64
	err = d.db.QueryRowContext(ctx, `
		SELECT file_path, fingerprint, file_mtime
		FROM file_fingerprints
		ORDER BY file_mtime DESC
		LIMIT 1
	`).Scan(&record.FilePath, &record.Fingerprint, &mtime)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return FingerprintRecord{}, false, nil
	}
	if err != nil {
		return FingerprintRecord{}, false, err
	}

	record.FileMtime = time.Unix(mtime, 0)
	return record, true, nil
}

// PruneMissing removes records of the given kind whose backing file no
// longer exists on disk. It runs in two phases: a read phase that collects
// candidate paths without holding a long-lived transaction, and a delete
// phase that re-checks existence before each delete, tolerating files that
// reappear in between. Returns the number of records removed.
func (d *Database) PruneMissing(ctx context.Context, kind RecordKind) (int64, error) {
	table := kind.tableName()
	if table == "" {
		return 0, errors.New("unknown record kind: " + string(kind))
	}

	logging.Debug("Pruning missing %s records", kind)

	// Read phase: collect candidates.
	candidates, err := d.collectMissing(ctx, table)
	if err != nil {
		return 0, err
	}

	// Delete phase: re-check, then delete one at a time.
	var removed int64
	for _, path := range candidates {
		if _, statErr := os.Stat(path); statErr == nil {
			// File came back between phases; leave the record alone.
			continue
		}

		deleteErr := withRetry("prune_"+table, func() error {
			opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
			defer cancel()

			_, execErr := d.db.ExecContext(opCtx,
				"DELETE FROM "+table+" WHERE file_path = ?", path)
			return execErr
		})
		if deleteErr != nil {
			logging.Error("Error pruning %s record for %s: %v", kind, path, deleteErr)
			continue
		}

		logging.Info("%s record disappeared: %s", kind, path)
		removed++
	}

	if removed > 0 {
		metrics.DBPrunedRecords.WithLabelValues(string(kind)).Add(float64(removed))
	}
	return removed, nil
}

// collectMissing returns the file paths in table whose files are gone.
func (d *Database) collectMissing(ctx context.Context, table string) ([]string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("collect_missing", start, err) }()

	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(queryCtx, "SELECT file_path FROM "+table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var missing []string
	for rows.Next() {
		var path string
		if scanErr := rows.Scan(&path); scanErr != nil {
			err = scanErr
			return nil, scanErr
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
			missing = append(missing, path)
		}
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return missing, nil
}
