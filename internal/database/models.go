package database

import "time"

// PublishStatus is the publication state parsed from an entry's Status header.
type PublishStatus string

const (
	StatusDraft     PublishStatus = "draft"
	StatusPublished PublishStatus = "published"
	StatusHidden    PublishStatus = "hidden"
	StatusScheduled PublishStatus = "scheduled"
	StatusGone      PublishStatus = "gone"
)

// Entry is an indexed content entry.
type Entry struct {
	ID          int64         `json:"id"`
	FilePath    string        `json:"filePath"`
	Category    string        `json:"category"`
	Title       string        `json:"title"`
	SlugText    string        `json:"slugText"`
	Status      PublishStatus `json:"status"`
	EntryDate   time.Time     `json:"entryDate"`
	UUID        string        `json:"uuid,omitempty"`
	RedirectURL string        `json:"redirectUrl,omitempty"`
}

// Category is an indexed category metadata record.
type Category struct {
	ID       int64  `json:"id"`
	FilePath string `json:"filePath"`
	Category string `json:"category"`
	Name     string `json:"name,omitempty"`
	SortName string `json:"sortName,omitempty"`
}

// Image is an indexed image asset.
type Image struct {
	ID       int64     `json:"id"`
	FilePath string    `json:"filePath"`
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Format   string    `json:"format"`
	FileSize int64     `json:"fileSize"`
	ModTime  time.Time `json:"modTime"`
}

// FingerprintRecord tracks the last known content fingerprint for a file.
type FingerprintRecord struct {
	FilePath    string    `json:"filePath"`
	Fingerprint string    `json:"fingerprint"`
	FileMtime   time.Time `json:"fileMtime"`
}

// RecordKind identifies a table of file-backed records that can be pruned
// when the underlying file disappears.
type RecordKind string

const (
	KindEntries      RecordKind = "entries"
	KindCategories   RecordKind = "categories"
	KindImages       RecordKind = "images"
	KindFingerprints RecordKind = "fingerprints"
)

// AllRecordKinds lists every prunable record kind, in prune order.
var AllRecordKinds = []RecordKind{KindEntries, KindCategories, KindImages, KindFingerprints}

// tableName maps a RecordKind to its backing table. Every listed table has a
// file_path column holding the absolute path of the originating file.
func (k RecordKind) tableName() string {
	switch k {
	case KindEntries:
		return "entries"
	case KindCategories:
		return "categories"
	case KindImages:
		return "images"
	case KindFingerprints:
		return "file_fingerprints"
	default:
		return ""
	}
}
