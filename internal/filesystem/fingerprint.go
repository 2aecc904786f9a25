package filesystem

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// Fingerprint computes a content-derived digest for a file. Two files with
// identical bytes always produce the same fingerprint regardless of their
// modification times, so touching a file without changing it does not force a
// reindex, while a rewrite that preserves mtime still does.
//
// A missing file is reported through the returned error (os.IsNotExist /
// errors.Is(err, fs.ErrNotExist)), which callers must treat differently from
// a fingerprint mismatch.
func Fingerprint(path string) (string, error) {
	file, err := OpenWithRetry(path, DefaultRetryConfig())
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
