package handler

import (
	"testing"

	"github.com/docpipe/docpipe/internal/document"
)

func TestFieldRestriction_Matches(t *testing.T) {
	meta := document.NewMetadata()
	meta.Add(document.FieldContentType, "application/pdf")
	meta.Add("lang", "en", "fr")

	tests := []struct {
		name    string
		field   string
		pattern string
		want    bool
	}{
		{"exact match", document.FieldContentType, "application/pdf", true},
		{"regex match", document.FieldContentType, "application/.*", true},
		{"no match", document.FieldContentType, "text/.*", false},
		{"any value matches", "lang", "fr", true},
		{"missing field", "absent", ".*", false},
		{"empty pattern presence check", "lang", "", true},
		{"empty pattern missing field", "absent", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewFieldRestriction(tt.field, tt.pattern)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := r.Matches(meta); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewFieldRestriction_BadPattern(t *testing.T) {
	if _, err := NewFieldRestriction("f", "("); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestAnyMatches(t *testing.T) {
	meta := document.NewMetadata()
	meta.Add("a", "1")

	hit, _ := NewFieldRestriction("a", "1")
	miss, _ := NewFieldRestriction("a", "2")

	if !AnyMatches(nil, meta) {
		t.Errorf("no restrictions must match everything")
	}
	if !AnyMatches([]Restriction{miss, hit}, meta) {
		t.Errorf("expected OR semantics across restrictions")
	}
	if AnyMatches([]Restriction{miss}, meta) {
		t.Errorf("expected no match")
	}
}
