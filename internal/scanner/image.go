package scanner

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"content-indexer/internal/database"
	"content-indexer/internal/filesystem"
)

// ImageScanner records image asset dimensions for rendition computation.
type ImageScanner struct {
	db *database.Database
}

// NewImageScanner creates an image scanner backed by db.
func NewImageScanner(db *database.Database) *ImageScanner {
	return &ImageScanner{db: db}
}

// ScanFile decodes one image and upserts its record, returning the record
// id. Decode failures are transient from the scheduler's point of view; the
// fixup retry changes nothing here, so a corrupt image ends up terminal.
func (s *ImageScanner) ScanFile(fullPath, relPath string) (int64, error) {
	info, err := filesystem.StatWithRetry(fullPath, filesystem.DefaultRetryConfig())
	if err != nil {
		return 0, err
	}

	img, err := imaging.Open(fullPath)
	if err != nil {
		return 0, fmt.Errorf("decoding %s: %w", fullPath, err)
	}

	bounds := img.Bounds()
	record := &database.Image{
		FilePath: fullPath,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Format:   strings.TrimPrefix(strings.ToLower(filepath.Ext(fullPath)), "."),
		FileSize: info.Size(),
		ModTime:  info.ModTime(),
	}

	id, err := s.db.UpsertImage(context.Background(), record)
	if err != nil {
		return 0, fmt.Errorf("storing image %s: %w", fullPath, err)
	}
	return id, nil
}
