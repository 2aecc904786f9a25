package contenttypes

// Kind classifies a content file by what the indexer should do with it.
type Kind string

const (
	// KindEntry represents a content entry (post) file.
	KindEntry Kind = "entry"
	// KindCategory represents a category metadata file.
	KindCategory Kind = "category"
	// KindImage represents an image asset.
	KindImage Kind = "image"
	// KindOther represents a file the indexer does not handle.
	KindOther Kind = "other"
)

// EntryExtensions maps file extensions to whether they are content entries.
var EntryExtensions = map[string]bool{
	".md":   true,
	".htm":  true,
	".html": true,
}

// CategoryExtensions maps file extensions to whether they are category
// metadata files.
var CategoryExtensions = map[string]bool{
	".cat":  true,
	".meta": true,
}

// ImageExtensions maps file extensions to whether they are indexable images.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
}

// GetKind returns the Kind for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".md").
// Returns KindOther if the extension is not recognized.
func GetKind(ext string) Kind {
	if EntryExtensions[ext] {
		return KindEntry
	}
	if CategoryExtensions[ext] {
		return KindCategory
	}
	if ImageExtensions[ext] {
		return KindImage
	}
	return KindOther
}

// IsScannable returns true if the extension belongs to a file the tree
// scanner should fingerprint and index.
func IsScannable(ext string) bool {
	return GetKind(ext) != KindOther
}
