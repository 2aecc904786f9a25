package scanner

import (
	"errors"
	"path/filepath"
	"strings"

	"content-indexer/internal/contenttypes"
	"content-indexer/internal/database"
	"content-indexer/internal/logging"
)

// ErrNotApplicable is returned by a scanner that declines a file: the file
// is indexable by extension but there is nothing to record for it. Not an
// error and never retried.
var ErrNotApplicable = errors.New("nothing to scan")

// Dispatcher routes files to the appropriate scanner by extension and
// normalizes raw scanner results into an Outcome. It is the single place
// that interprets what a scanner returns.
type Dispatcher struct {
	entries    *EntryScanner
	categories *CategoryScanner
	images     *ImageScanner
}

// NewDispatcher creates a dispatcher wired to the given store.
func NewDispatcher(db *database.Database) *Dispatcher {
	return &Dispatcher{
		entries:    NewEntryScanner(db),
		categories: NewCategoryScanner(db),
		images:     NewImageScanner(db),
	}
}

// Scan routes one file to its scanner. Files with unrecognized extensions
// are skipped; everything a scanner raises is normalized to a tri-state
// outcome here so the scheduler never sees a raw scanner error.
func (d *Dispatcher) Scan(fullPath, relPath string, fixup bool) Outcome {
	ext := strings.ToLower(filepath.Ext(fullPath))

	switch contenttypes.GetKind(ext) {
	case contenttypes.KindEntry:
		logging.Info("Scanning entry: %s", fullPath)
		id, err := d.entries.ScanFile(fullPath, relPath, fixup)
		return normalize(fullPath, id, err)

	case contenttypes.KindCategory:
		logging.Info("Scanning meta info: %s", fullPath)
		id, err := d.categories.ScanFile(fullPath, relPath)
		return normalize(fullPath, id, err)

	case contenttypes.KindImage:
		logging.Info("Scanning image: %s", fullPath)
		id, err := d.images.ScanFile(fullPath, relPath)
		return normalize(fullPath, id, err)

	default:
		return OutcomeSkipped
	}
}

// normalize maps a scanner's (record id, error) pair onto the tri-state
// outcome contract.
func normalize(fullPath string, id int64, err error) Outcome {
	if err == nil {
		logging.Debug("Scanned %s -> record %d", fullPath, id)
		return OutcomeSuccess
	}
	if errors.Is(err, ErrNotApplicable) {
		return OutcomeNotApplicable
	}
	logging.Warn("Got error parsing %s: %v", fullPath, err)
	return OutcomeTransientFailure
}
