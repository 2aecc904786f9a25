package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSplitHeaderBlock(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantHeaders string
		wantBody    string
	}{
		{
			name:        "headers and body",
			content:     "Title: Hello\nDate: 2026-01-01\n\nThe body.\n",
			wantHeaders: "Title: Hello\nDate: 2026-01-01",
			wantBody:    "The body.\n",
		},
		{
			name:        "no blank line is all headers",
			content:     "Title: Hello\nDate: 2026-01-01\n",
			wantHeaders: "Title: Hello\nDate: 2026-01-01\n",
			wantBody:    "",
		},
		{
			name:        "crlf normalized",
			content:     "Title: Hello\r\n\r\nbody\r\n",
			wantHeaders: "Title: Hello",
			wantBody:    "body\n",
		},
		{
			name:        "empty content",
			content:     "",
			wantHeaders: "",
			wantBody:    "",
		},
		{
			name:        "body with blank lines",
			content:     "Title: X\n\npara one\n\npara two\n",
			wantHeaders: "Title: X",
			wantBody:    "para one\n\npara two\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers, body := splitHeaderBlock(tt.content)
			if headers != tt.wantHeaders {
				t.Errorf("headers = %q, want %q", headers, tt.wantHeaders)
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestReadHeaderFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "post.md")
	content := "Title: My Post\nStatus: published\n\nHello, world.\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	hf, err := readHeaderFile(path)
	if err != nil {
		t.Fatalf("readHeaderFile failed: %v", err)
	}
	if got := hf.headers.Get("Title"); got != "My Post" {
		t.Errorf("Title = %q, want %q", got, "My Post")
	}
	if got := hf.headers.Get("Status"); got != "published" {
		t.Errorf("Status = %q, want %q", got, "published")
	}
	if hf.body != "Hello, world.\n" {
		t.Errorf("body = %q", hf.body)
	}
}

func TestReadHeaderFileMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.md")
	content := "this line has no colon\n\nbody\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	hf, err := readHeaderFile(path)
	if err == nil {
		t.Fatal("Expected parse error for malformed header block")
	}
	if hf == nil {
		t.Fatal("Expected partial result alongside the parse error")
	}
	// The whole content survives in body so a fixup can rebuild the file.
	if hf.body != strings.ReplaceAll(content, "\r\n", "\n") {
		t.Errorf("body = %q, want full content", hf.body)
	}
}

func TestWriteHeaderFilePreservesOriginalHeaders(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "post.md")
	content := "Title: Exactly  As   Typed\nX-Custom: kept\n\nbody text\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	hf, err := readHeaderFile(path)
	if err != nil {
		t.Fatalf("readHeaderFile failed: %v", err)
	}

	if err := writeHeaderFile(path, hf, []string{"Entry-ID: 7"}); err != nil {
		t.Fatalf("writeHeaderFile failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read rewritten file: %v", err)
	}
	want := "Title: Exactly  As   Typed\nX-Custom: kept\nEntry-ID: 7\n\nbody text\n"
	if string(got) != want {
		t.Errorf("rewritten file = %q, want %q", string(got), want)
	}
}

func TestGuessTitle(t *testing.T) {
	tests := []struct {
		basename string
		want     string
	}{
		{"my-first_post.md", "My First Post"},
		{"hello.md", "Hello"},
		{"already Titled.htm", "Already Titled"},
		{"2026-review.md", "2026 Review"},
	}
	for _, tt := range tests {
		if got := guessTitle(tt.basename); got != tt.want {
			t.Errorf("guessTitle(%q) = %q, want %q", tt.basename, got, tt.want)
		}
	}
}

func TestMakeSlug(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Hello, World!", "hello-world"},
		{"  spaces   everywhere  ", "spaces-everywhere"},
		{"UPPER lower 123", "upper-lower-123"},
		{"---dashes---", "dashes"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := makeSlug(tt.text); got != tt.want {
			t.Errorf("makeSlug(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func BenchmarkMakeSlug(b *testing.B) {
	for i := 0; i < b.N; i++ {
		makeSlug("A Reasonably Long Entry Title, With Punctuation!")
	}
}
