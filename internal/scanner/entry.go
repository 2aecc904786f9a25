package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"content-indexer/internal/database"
	"content-indexer/internal/logging"
)

// errMissingEntryID marks an entry that has no Entry-ID header; the normal
// pass fails with it so the scheduler retries with fixup enabled, which is
// the permission to assign one.
var errMissingEntryID = errors.New("entry has no Entry-ID header")

// Date layouts accepted in entry headers, most specific first.
var entryDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// EntryScanner parses content entry files into entry records.
type EntryScanner struct {
	db *database.Database
}

// NewEntryScanner creates an entry scanner backed by db.
func NewEntryScanner(db *database.Database) *EntryScanner {
	return &EntryScanner{db: db}
}

// ScanFile scans one entry file and upserts its record, returning the entry
// id. With fixup enabled it also normalizes the file in place: a missing
// Entry-ID, Date, or UUID header is injected and the file rewritten
// atomically. Without fixup, a file missing its Entry-ID fails so the
// scheduler can retry once with fixup permission.
func (s *EntryScanner) ScanFile(fullPath, relPath string, fixup bool) (int64, error) {
	hf, err := readHeaderFile(fullPath)
	if err != nil {
		if hf == nil || !fixup {
			return 0, fmt.Errorf("parsing %s: %w", fullPath, err)
		}
		// Malformed header block under fixup: rebuild headers from scratch,
		// keeping the whole original content as the body.
		logging.Warn("Rebuilding malformed header block for %s", fullPath)
	}

	if len(hf.headers) == 0 && hf.body == "" {
		return 0, ErrNotApplicable
	}

	var entryID int64
	if raw := hf.headers.Get("Entry-ID"); raw != "" {
		entryID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid Entry-ID in %s: %w", fullPath, err)
		}
	} else if !fixup {
		return 0, errMissingEntryID
	}

	title := hf.headers.Get("Title")
	if title == "" {
		title = guessTitle(filepath.Base(relPathOr(fullPath, relPath)))
	}

	slugText := hf.headers.Get("Slug-Text")
	if slugText == "" {
		slugText = title
	}

	category := hf.headers.Get("Category")
	if category == "" {
		category = categoryFromRelPath(relPath)
	}

	entryDate, haveDate := parseEntryDate(hf.headers.Get("Date"))
	if !haveDate {
		if info, statErr := os.Stat(fullPath); statErr == nil {
			entryDate = info.ModTime()
		} else {
			entryDate = time.Now()
		}
	}

	entryUUID := hf.headers.Get("UUID")
	if entryUUID == "" && fixup {
		entryUUID = uuid.NewString()
	}

	entry := &database.Entry{
		ID:          entryID,
		FilePath:    fullPath,
		Category:    category,
		Title:       title,
		SlugText:    makeSlug(slugText),
		Status:      parseStatus(hf.headers.Get("Status")),
		EntryDate:   entryDate,
		UUID:        entryUUID,
		RedirectURL: hf.headers.Get("Redirect-To"),
	}

	id, err := s.db.UpsertEntry(context.Background(), entry)
	if err != nil {
		return 0, fmt.Errorf("storing entry %s: %w", fullPath, err)
	}

	if fixup {
		if err := s.fixupFile(fullPath, hf, id, entryUUID, entryDate, haveDate); err != nil {
			return 0, fmt.Errorf("fixing up %s: %w", fullPath, err)
		}
	}

	return id, nil
}

// fixupFile injects whichever of Entry-ID, Date, and UUID is missing from
// the file's header block and rewrites the file. A file already carrying all
// three is left untouched.
func (s *EntryScanner) fixupFile(fullPath string, hf *headerFile, id int64, entryUUID string, entryDate time.Time, haveDate bool) error {
	var extra []string
	if hf.headers.Get("Entry-ID") == "" {
		extra = append(extra, "Entry-ID: "+strconv.FormatInt(id, 10))
	}
	if !haveDate {
		extra = append(extra, "Date: "+entryDate.Format(time.RFC3339))
	}
	if hf.headers.Get("UUID") == "" && entryUUID != "" {
		extra = append(extra, "UUID: "+entryUUID)
	}

	if len(extra) == 0 {
		return nil
	}

	logging.Info("Normalizing %s: adding %d header(s)", fullPath, len(extra))
	return writeHeaderFile(fullPath, hf, extra)
}

// parseEntryDate tries the accepted date layouts in order.
func parseEntryDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range entryDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseStatus maps a Status header onto a publish status, defaulting to
// scheduled like the unset case.
func parseStatus(raw string) database.PublishStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "draft":
		return database.StatusDraft
	case "published":
		return database.StatusPublished
	case "hidden":
		return database.StatusHidden
	case "gone", "deleted":
		return database.StatusGone
	default:
		return database.StatusScheduled
	}
}

// categoryFromRelPath derives the category from the entry's directory within
// the content tree; top-level entries get the root category "".
func categoryFromRelPath(relPath string) string {
	if relPath == "" {
		return ""
	}
	dir := filepath.Dir(relPath)
	if dir == "." {
		return ""
	}
	return filepath.ToSlash(dir)
}

// relPathOr falls back to the full path when the relative path is unknown
// (watch events outside the content root).
func relPathOr(fullPath, relPath string) string {
	if relPath != "" {
		return relPath
	}
	return fullPath
}
