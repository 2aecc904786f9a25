package scanner

import (
	"bufio"
	"errors"
	"io"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"content-indexer/internal/filesystem"
)

// headerFile is a content file in RFC-822 style: a header block, a blank
// line, then the body. rawHeaders preserves the author's original header
// block byte-for-byte so fixups can append to it instead of regenerating it.
type headerFile struct {
	headers    textproto.MIMEHeader
	rawHeaders string
	body       string
}

// readHeaderFile reads and parses a header-block content file.
// A parse failure of the header block is returned as an error with the raw
// content preserved in body, so a fixup pass can normalize the file.
func readHeaderFile(path string) (*headerFile, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	content := string(raw)
	rawHeaders, body := splitHeaderBlock(content)

	reader := textproto.NewReader(bufio.NewReader(strings.NewReader(rawHeaders + "\n\n")))
	headers, err := reader.ReadMIMEHeader()
	if err != nil && !errors.Is(err, io.EOF) {
		// Malformed header block: hand back the whole file as body so a
		// fixup pass can rebuild the headers from scratch.
		return &headerFile{headers: textproto.MIMEHeader{}, body: content}, err
	}

	return &headerFile{headers: headers, rawHeaders: rawHeaders, body: body}, nil
}

// splitHeaderBlock splits content at the first blank line. Content without a
// blank line is all headers, matching message semantics.
func splitHeaderBlock(content string) (headers, body string) {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	if idx := strings.Index(normalized, "\n\n"); idx >= 0 {
		return normalized[:idx], normalized[idx+2:]
	}
	return normalized, ""
}

// writeHeaderFile atomically rewrites a content file with extra header lines
// appended to the original header block.
func writeHeaderFile(path string, hf *headerFile, extraLines []string) error {
	var sb strings.Builder
	if hf.rawHeaders != "" {
		sb.WriteString(strings.TrimRight(hf.rawHeaders, "\n"))
		sb.WriteString("\n")
	}
	for _, line := range extraLines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(hf.body)

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(sb.String()), mode); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// guessTitle derives a human-readable title from a file name, e.g.
// "my-first_post.md" -> "My First Post".
func guessTitle(basename string) string {
	name := strings.TrimSuffix(basename, filepath.Ext(basename))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// makeSlug converts arbitrary text into a URL-safe slug.
func makeSlug(text string) string {
	var sb strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				sb.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(sb.String(), "-")
}
