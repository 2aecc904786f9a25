package scanner

import (
	"context"
	"fmt"
	"path/filepath"

	"content-indexer/internal/database"
)

// CategoryScanner parses category metadata files into category records.
type CategoryScanner struct {
	db *database.Database
}

// NewCategoryScanner creates a category scanner backed by db.
func NewCategoryScanner(db *database.Database) *CategoryScanner {
	return &CategoryScanner{db: db}
}

// ScanFile scans one category metadata file and upserts its record,
// returning the record id. Category files have no fixup mode; they are
// never rewritten.
func (s *CategoryScanner) ScanFile(fullPath, relPath string) (int64, error) {
	hf, err := readHeaderFile(fullPath)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", fullPath, err)
	}

	category := hf.headers.Get("Category")
	if category == "" {
		category = categoryFromRelPath(relPath)
	}

	cat := &database.Category{
		FilePath: fullPath,
		Category: category,
		Name:     hf.headers.Get("Name"),
		SortName: hf.headers.Get("Sort-Name"),
	}
	if cat.Name == "" {
		// An anonymous category file names its own directory.
		cat.Name = filepath.Base(category)
	}

	id, err := s.db.UpsertCategory(context.Background(), cat)
	if err != nil {
		return 0, fmt.Errorf("storing category %s: %w", fullPath, err)
	}
	return id, nil
}
