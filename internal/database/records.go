package database

import (
	"context"
	"time"
)

// UpsertEntry inserts or updates an entry record and returns its id.
// Entries carrying an id from their Entry-ID header are keyed by id so that a
// file move preserves entry identity; entries without one are keyed by path.
func (d *Database) UpsertEntry(ctx context.Context, entry *Entry) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_entry", start, err) }()

	err = withRetry("upsert_entry", func() error {
		opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		defer cancel()

		if entry.ID != 0 {
			_, execErr := d.db.ExecContext(opCtx, `
				INSERT INTO entries (id, file_path, category, title, slug_text, status, entry_date, uuid, redirect_url, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
				ON CONFLICT(id) DO UPDATE SET
					file_path = excluded.file_path,
					category = excluded.category,
					title = excluded.title,
					slug_text = excluded.slug_text,
					status = excluded.status,
					entry_date = excluded.entry_date,
					uuid = COALESCE(excluded.uuid, entries.uuid),
					redirect_url = excluded.redirect_url,
					updated_at = strftime('%s', 'now')
			`, entry.ID, entry.FilePath, entry.Category, entry.Title, entry.SlugText,
				entry.Status, entry.EntryDate.Unix(), nullable(entry.UUID), nullable(entry.RedirectURL))
			return execErr
		}

		_, execErr := d.db.ExecContext(opCtx, `
			INSERT INTO entries (file_path, category, title, slug_text, status, entry_date, uuid, redirect_url, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
			ON CONFLICT(file_path) DO UPDATE SET
				category = excluded.category,
				title = excluded.title,
				slug_text = excluded.slug_text,
				status = excluded.status,
				entry_date = excluded.entry_date,
				uuid = COALESCE(excluded.uuid, entries.uuid),
				redirect_url = excluded.redirect_url,
				updated_at = strftime('%s', 'now')
		`, entry.FilePath, entry.Category, entry.Title, entry.SlugText,
			entry.Status, entry.EntryDate.Unix(), nullable(entry.UUID), nullable(entry.RedirectURL))
		return execErr
	})
	if err != nil {
		return 0, err
	}

	if entry.ID != 0 {
		return entry.ID, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id int64
	err = d.db.QueryRowContext(ctx,
		"SELECT id FROM entries WHERE file_path = ?", entry.FilePath).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetEntryByPath retrieves a single entry by its file path.
func (d *Database) GetEntryByPath(ctx context.Context, path string) (*Entry, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_entry", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var entry Entry
	var entryDate int64
	var uuid, redirect *string
	err = d.db.QueryRowContext(ctx, `
		SELECT id, file_path, category, title, slug_text, status, entry_date, uuid, redirect_url
		FROM entries WHERE file_path = ?
	`, path).Scan(&entry.ID, &entry.FilePath, &entry.Category, &entry.Title,
		&entry.SlugText, &entry.Status, &entryDate, &uuid, &redirect)
	if err != nil {
		return nil, err
	}

	entry.EntryDate = time.Unix(entryDate, 0)
	if uuid != nil {
		entry.UUID = *uuid
	}
	if redirect != nil {
		entry.RedirectURL = *redirect
	}
	return &entry, nil
}

// UpsertCategory inserts or updates a category metadata record.
func (d *Database) UpsertCategory(ctx context.Context, cat *Category) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_category", start, err) }()

	err = withRetry("upsert_category", func() error {
		opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		defer cancel()

		_, execErr := d.db.ExecContext(opCtx, `
			INSERT INTO categories (file_path, category, name, sort_name, updated_at)
			VALUES (?, ?, ?, ?, strftime('%s', 'now'))
			ON CONFLICT(file_path) DO UPDATE SET
				category = excluded.category,
				name = excluded.name,
				sort_name = excluded.sort_name,
				updated_at = strftime('%s', 'now')
		`, cat.FilePath, cat.Category, nullable(cat.Name), nullable(cat.SortName))
		return execErr
	})
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id int64
	err = d.db.QueryRowContext(ctx,
		"SELECT id FROM categories WHERE file_path = ?", cat.FilePath).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpsertImage inserts or updates an image asset record.
func (d *Database) UpsertImage(ctx context.Context, img *Image) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_image", start, err) }()

	err = withRetry("upsert_image", func() error {
		opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		defer cancel()

		_, execErr := d.db.ExecContext(opCtx, `
			INSERT INTO images (file_path, width, height, format, file_size, mod_time)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(file_path) DO UPDATE SET
				width = excluded.width,
				height = excluded.height,
				format = excluded.format,
				file_size = excluded.file_size,
				mod_time = excluded.mod_time
		`, img.FilePath, img.Width, img.Height, nullable(img.Format),
			img.FileSize, img.ModTime.Unix())
		return execErr
	})
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id int64
	err = d.db.QueryRowContext(ctx,
		"SELECT id FROM images WHERE file_path = ?", img.FilePath).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CountRecords returns the number of rows for a record kind, used by the
// status endpoint.
func (d *Database) CountRecords(ctx context.Context, kind RecordKind) (int64, error) {
	table := kind.tableName()
	if table == "" {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int64
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count)
	return count, err
}

// nullable maps "" to NULL so optional headers don't store empty strings.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
