package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := New(context.Background(), filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return path
}

func TestFingerprintRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	path := writeTestFile(t, t.TempDir(), "entry.md", "Title: hello\n\nbody")

	got, err := db.GetFingerprint(ctx, path)
	if err != nil {
		t.Fatalf("GetFingerprint failed: %v", err)
	}
	if got != "" {
		t.Errorf("Expected empty fingerprint for unknown path, got %q", got)
	}

	if err := db.SetFingerprint(ctx, path, "abc123"); err != nil {
		t.Fatalf("SetFingerprint failed: %v", err)
	}

	got, err = db.GetFingerprint(ctx, path)
	if err != nil {
		t.Fatalf("GetFingerprint failed: %v", err)
	}
	if got != "abc123" {
		t.Errorf("Expected fingerprint abc123, got %q", got)
	}

	// Overwrite with a new value.
	if err := db.SetFingerprint(ctx, path, "def456"); err != nil {
		t.Fatalf("SetFingerprint update failed: %v", err)
	}
	got, _ = db.GetFingerprint(ctx, path)
	if got != "def456" {
		t.Errorf("Expected updated fingerprint def456, got %q", got)
	}
}

func TestSetFingerprintVanishedFile(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	dir := t.TempDir()
	path := writeTestFile(t, dir, "gone.md", "content")

	if err := db.SetFingerprint(ctx, path, "abc123"); err != nil {
		t.Fatalf("SetFingerprint failed: %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("Failed to remove test file: %v", err)
	}

	// Writing a fingerprint for a vanished file prunes the record instead.
	if err := db.SetFingerprint(ctx, path, "def456"); err != nil {
		t.Fatalf("SetFingerprint for vanished file failed: %v", err)
	}

	got, err := db.GetFingerprint(ctx, path)
	if err != nil {
		t.Fatalf("GetFingerprint failed: %v", err)
	}
	if got != "" {
		t.Errorf("Expected record pruned for vanished file, got fingerprint %q", got)
	}
}

func TestDeleteFingerprint(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	path := writeTestFile(t, t.TempDir(), "entry.md", "content")

	if err := db.SetFingerprint(ctx, path, "abc123"); err != nil {
		t.Fatalf("SetFingerprint failed: %v", err)
	}
	if err := db.DeleteFingerprint(ctx, path); err != nil {
		t.Fatalf("DeleteFingerprint failed: %v", err)
	}
	// Deleting again is a no-op, not an error.
	if err := db.DeleteFingerprint(ctx, path); err != nil {
		t.Fatalf("DeleteFingerprint of absent record failed: %v", err)
	}

	got, _ := db.GetFingerprint(ctx, path)
	if got != "" {
		t.Errorf("Expected no fingerprint after delete, got %q", got)
	}
}

func TestLastModified(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	dir := t.TempDir()

	if _, ok, err := db.LastModified(ctx); err != nil || ok {
		t.Fatalf("Expected empty store to report ok=false, got ok=%v err=%v", ok, err)
	}

	older := writeTestFile(t, dir, "old.md", "old")
	newer := writeTestFile(t, dir, "new.md", "new")

	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatalf("Failed to set mtime: %v", err)
	}

	if err := db.SetFingerprint(ctx, older, "aaa"); err != nil {
		t.Fatalf("SetFingerprint failed: %v", err)
	}
	if err := db.SetFingerprint(ctx, newer, "bbb"); err != nil {
		t.Fatalf("SetFingerprint failed: %v", err)
	}

	record, ok, err := db.LastModified(ctx)
	if err != nil {
		t.Fatalf("LastModified failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected LastModified ok=true with records present")
	}
	if record.FilePath != newer {
		t.Errorf("Expected most recent record %s, got %s", newer, record.FilePath)
	}
	if record.Fingerprint != "bbb" {
		t.Errorf("Expected fingerprint bbb, got %q", record.Fingerprint)
	}
}

func TestPruneMissingFingerprints(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	dir := t.TempDir()

	kept := writeTestFile(t, dir, "kept.md", "stays")
	removed := writeTestFile(t, dir, "removed.md", "goes")

	if err := db.SetFingerprint(ctx, kept, "aaa"); err != nil {
		t.Fatalf("SetFingerprint failed: %v", err)
	}
	if err := db.SetFingerprint(ctx, removed, "bbb"); err != nil {
		t.Fatalf("SetFingerprint failed: %v", err)
	}

	if err := os.Remove(removed); err != nil {
		t.Fatalf("Failed to remove test file: %v", err)
	}

	pruned, err := db.PruneMissing(ctx, KindFingerprints)
	if err != nil {
		t.Fatalf("PruneMissing failed: %v", err)
	}
	if pruned != 1 {
		t.Errorf("Expected 1 pruned record, got %d", pruned)
	}

	if got, _ := db.GetFingerprint(ctx, kept); got != "aaa" {
		t.Errorf("Surviving file lost its fingerprint: got %q", got)
	}
	if got, _ := db.GetFingerprint(ctx, removed); got != "" {
		t.Errorf("Expected removed file pruned, got fingerprint %q", got)
	}
}

func TestPruneMissingEntries(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	dir := t.TempDir()

	kept := writeTestFile(t, dir, "kept.md", "stays")
	removed := filepath.Join(dir, "never-existed.md")

	for _, path := range []string{kept, removed} {
		if _, err := db.UpsertEntry(ctx, &Entry{
			FilePath:  path,
			Category:  "blog",
			Title:     "t",
			Status:    StatusPublished,
			EntryDate: time.Now(),
		}); err != nil {
			t.Fatalf("UpsertEntry failed: %v", err)
		}
	}

	pruned, err := db.PruneMissing(ctx, KindEntries)
	if err != nil {
		t.Fatalf("PruneMissing failed: %v", err)
	}
	if pruned != 1 {
		t.Errorf("Expected 1 pruned entry, got %d", pruned)
	}

	count, err := db.CountRecords(ctx, KindEntries)
	if err != nil {
		t.Fatalf("CountRecords failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 surviving entry, got %d", count)
	}
}

func TestUpsertEntryByPath(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	entry := &Entry{
		FilePath:  "/content/blog/post.md",
		Category:  "blog",
		Title:     "First Post",
		SlugText:  "first-post",
		Status:    StatusPublished,
		EntryDate: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		UUID:      "11111111-2222-3333-4444-555555555555",
	}

	id, err := db.UpsertEntry(ctx, entry)
	if err != nil {
		t.Fatalf("UpsertEntry failed: %v", err)
	}
	if id == 0 {
		t.Fatal("Expected non-zero entry id")
	}

	// Re-upserting the same path updates in place.
	entry.Title = "Revised Post"
	id2, err := db.UpsertEntry(ctx, entry)
	if err != nil {
		t.Fatalf("UpsertEntry update failed: %v", err)
	}
	if id2 != id {
		t.Errorf("Expected stable id %d across upserts, got %d", id, id2)
	}

	got, err := db.GetEntryByPath(ctx, entry.FilePath)
	if err != nil {
		t.Fatalf("GetEntryByPath failed: %v", err)
	}
	if got.Title != "Revised Post" {
		t.Errorf("Expected updated title, got %q", got.Title)
	}
	if got.UUID != entry.UUID {
		t.Errorf("Expected UUID %q, got %q", entry.UUID, got.UUID)
	}
}

func TestUpsertEntryByIDSurvivesMove(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	entry := &Entry{
		ID:        42,
		FilePath:  "/content/blog/old-name.md",
		Category:  "blog",
		Title:     "Movable",
		Status:    StatusPublished,
		EntryDate: time.Now(),
	}
	if _, err := db.UpsertEntry(ctx, entry); err != nil {
		t.Fatalf("UpsertEntry failed: %v", err)
	}

	// Same id, new path: the record follows the id.
	entry.FilePath = "/content/blog/new-name.md"
	id, err := db.UpsertEntry(ctx, entry)
	if err != nil {
		t.Fatalf("UpsertEntry after move failed: %v", err)
	}
	if id != 42 {
		t.Errorf("Expected id 42 preserved across move, got %d", id)
	}

	got, err := db.GetEntryByPath(ctx, "/content/blog/new-name.md")
	if err != nil {
		t.Fatalf("GetEntryByPath failed: %v", err)
	}
	if got.ID != 42 {
		t.Errorf("Expected moved entry to keep id 42, got %d", got.ID)
	}

	count, _ := db.CountRecords(ctx, KindEntries)
	if count != 1 {
		t.Errorf("Expected a move to leave a single record, got %d", count)
	}
}

func TestUpsertEntryPreservesUUIDOnBlank(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	entry := &Entry{
		FilePath:  "/content/blog/post.md",
		Category:  "blog",
		Title:     "Post",
		Status:    StatusPublished,
		EntryDate: time.Now(),
		UUID:      "aaaa-bbbb",
	}
	if _, err := db.UpsertEntry(ctx, entry); err != nil {
		t.Fatalf("UpsertEntry failed: %v", err)
	}

	// A later scan without a UUID must not clobber the stored one.
	entry.UUID = ""
	if _, err := db.UpsertEntry(ctx, entry); err != nil {
		t.Fatalf("UpsertEntry without UUID failed: %v", err)
	}

	got, err := db.GetEntryByPath(ctx, entry.FilePath)
	if err != nil {
		t.Fatalf("GetEntryByPath failed: %v", err)
	}
	if got.UUID != "aaaa-bbbb" {
		t.Errorf("Expected stored UUID preserved, got %q", got.UUID)
	}
}

func TestUpsertCategory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	cat := &Category{
		FilePath: "/content/blog/blog.cat",
		Category: "blog",
		Name:     "The Blog",
	}
	id, err := db.UpsertCategory(ctx, cat)
	if err != nil {
		t.Fatalf("UpsertCategory failed: %v", err)
	}
	if id == 0 {
		t.Fatal("Expected non-zero category id")
	}

	cat.Name = "Renamed Blog"
	id2, err := db.UpsertCategory(ctx, cat)
	if err != nil {
		t.Fatalf("UpsertCategory update failed: %v", err)
	}
	if id2 != id {
		t.Errorf("Expected stable category id %d, got %d", id, id2)
	}

	count, _ := db.CountRecords(ctx, KindCategories)
	if count != 1 {
		t.Errorf("Expected 1 category record, got %d", count)
	}
}

func TestUpsertImage(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	img := &Image{
		FilePath: "/content/images/photo.jpg",
		Width:    800,
		Height:   600,
		Format:   "jpeg",
		FileSize: 12345,
		ModTime:  time.Now(),
	}
	id, err := db.UpsertImage(ctx, img)
	if err != nil {
		t.Fatalf("UpsertImage failed: %v", err)
	}
	if id == 0 {
		t.Fatal("Expected non-zero image id")
	}

	img.Width = 1024
	if _, err := db.UpsertImage(ctx, img); err != nil {
		t.Fatalf("UpsertImage update failed: %v", err)
	}

	count, _ := db.CountRecords(ctx, KindImages)
	if count != 1 {
		t.Errorf("Expected 1 image record, got %d", count)
	}
}

func TestCountRecordsEmpty(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, kind := range AllRecordKinds {
		count, err := db.CountRecords(ctx, kind)
		if err != nil {
			t.Errorf("CountRecords(%s) failed: %v", kind, err)
		}
		if count != 0 {
			t.Errorf("Expected 0 %s records in a fresh database, got %d", kind, count)
		}
	}
}
