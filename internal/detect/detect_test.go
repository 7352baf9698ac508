package detect

import (
	"io"
	"testing"

	"github.com/docpipe/docpipe/internal/streamio"
)

func TestDetect_HintWins(t *testing.T) {
	s, _ := streamio.OpenBytes([]byte("<html></html>"), streamio.Config{})
	defer s.Dispose()

	d := New()
	ct, err := d.Detect(s, "Application/PDF; charset=utf-8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct != "application/pdf" {
		t.Errorf("expected hint to win (normalized), got %q", ct)
	}
}

func TestDetect_SniffsAndRewinds(t *testing.T) {
	content := []byte("<!DOCTYPE html><html><body>hi</body></html>")
	s, _ := streamio.OpenBytes(content, streamio.Config{})
	defer s.Dispose()

	d := New()
	ct, err := d.Detect(s, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct != "text/html" {
		t.Errorf("expected text/html, got %q", ct)
	}

	// The stream must be fully readable afterwards.
	got, err := io.ReadAll(s)
	if err != nil {
		t.Fatalf("read after detect: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("detection must leave the stream rewound")
	}
}

func TestByExtension(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"report.PDF", "application/pdf"},
		{"notes.md", "text/markdown"},
		{"data.csv", "text/csv"},
		{"index.htm", "text/html"},
		{"unknown.xyz", ""},
	}
	for _, tt := range tests {
		if got := ByExtension(tt.file); got != tt.want {
			t.Errorf("ByExtension(%q) = %q, want %q", tt.file, got, tt.want)
		}
	}
}
