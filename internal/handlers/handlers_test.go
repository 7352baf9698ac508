package handlers

import (
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/docpipe/docpipe/internal/document"
	"github.com/docpipe/docpipe/internal/handler"
	"github.com/docpipe/docpipe/internal/importer"
	"github.com/docpipe/docpipe/internal/streamio"
)

func TestConstantTagger(t *testing.T) {
	meta := document.NewMetadata()
	meta.Add("source", "existing")

	add := &ConstantTagger{Field: "source", Values: []string{"upload"}}
	if err := add.Tag("ref", meta, strings.NewReader(""), handler.PreParse); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := meta.Get("source"); !reflect.DeepEqual(got, []string{"existing", "upload"}) {
		t.Errorf("expected append, got %v", got)
	}

	ow := &ConstantTagger{Field: "source", Values: []string{"final"}, Overwrite: true}
	ow.Tag("ref", meta, strings.NewReader(""), handler.PreParse)
	if got := meta.Get("source"); !reflect.DeepEqual(got, []string{"final"}) {
		t.Errorf("expected overwrite, got %v", got)
	}
}

func TestRenameAndDeleteTaggers(t *testing.T) {
	meta := document.NewMetadata()
	meta.Add("a", "1")
	meta.Add("b", "2")

	rn := &RenameTagger{From: "a", To: "x"}
	rn.Tag("ref", meta, strings.NewReader(""), handler.PreParse)
	if meta.Has("a") || meta.GetFirst("x") != "1" {
		t.Errorf("rename failed: %v", meta.Map())
	}

	del := &DeleteTagger{Fields: []string{"b", "missing"}}
	del.Tag("ref", meta, strings.NewReader(""), handler.PreParse)
	if meta.Has("b") {
		t.Errorf("delete failed")
	}
}

func TestTextPatternTagger(t *testing.T) {
	tagger, err := NewTextPatternTagger("invoice", `Invoice\s+#(\d+)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	meta := document.NewMetadata()
	content := "Header\nInvoice #12345 issued.\nInvoice #678 too.\n"
	if err := tagger.Tag("ref", meta, strings.NewReader(content), handler.PostParse); err != nil {
		t.Fatalf("tag: %v", err)
	}
	if got := meta.Get("invoice"); !reflect.DeepEqual(got, []string{"12345", "678"}) {
		t.Errorf("expected captured groups, got %v", got)
	}
}

func TestReplaceTransformer(t *testing.T) {
	tr, err := NewReplaceTransformer(`\d{3}-\d{2}-\d{4}`, "[REDACTED]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out strings.Builder
	in := strings.NewReader("SSN: 123-45-6789 end")
	if err := tr.Transform("ref", document.NewMetadata(), in, &out, handler.PostParse); err != nil {
		t.Fatalf("transform: %v", err)
	}
	if out.String() != "SSN: [REDACTED] end" {
		t.Errorf("expected redacted output, got %q", out.String())
	}
}

func TestReplaceTransformer_EmptyInputWritesNothing(t *testing.T) {
	tr, _ := NewReplaceTransformer("x", "y")
	var out strings.Builder
	tr.Transform("ref", document.NewMetadata(), strings.NewReader(""), &out, handler.PreParse)
	if out.Len() != 0 {
		t.Errorf("empty input must produce no output (keeps original)")
	}
}

func TestFieldFilter_Modes(t *testing.T) {
	meta := document.NewMetadata()
	meta.Add(document.FieldContentType, "application/pdf")

	tests := []struct {
		name    string
		pattern string
		mode    handler.OnMatch
		want    bool
	}{
		{"exclude match rejects", "application/pdf", handler.OnMatchExclude, false},
		{"exclude miss accepts", "text/.*", handler.OnMatchExclude, true},
		{"include match accepts", "application/.*", handler.OnMatchInclude, true},
		{"include miss declines", "text/.*", handler.OnMatchInclude, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFieldFilter(document.FieldContentType, tt.pattern, tt.mode)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, err := f.Accept("ref", meta, strings.NewReader(""), handler.PreParse)
			if err != nil {
				t.Fatalf("accept: %v", err)
			}
			if got != tt.want {
				t.Errorf("Accept() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContentFilter(t *testing.T) {
	f, err := NewContentFilter("confidential", handler.OnMatchExclude)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok, _ := f.Accept("ref", document.NewMetadata(), strings.NewReader("strictly confidential report"), handler.PostParse)
	if ok {
		t.Errorf("expected rejection for matching content")
	}
	ok, _ = f.Accept("ref", document.NewMetadata(), strings.NewReader("public summary"), handler.PostParse)
	if !ok {
		t.Errorf("expected acceptance for clean content")
	}
}

func TestCSVSplitter(t *testing.T) {
	s := &CSVSplitter{}
	in := strings.NewReader("name,city\nalice,berlin\nbob,lyon\n")
	children, err := s.Split("people.csv", document.NewMetadata(), in, io.Discard, handler.PostParse)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(children))
	}
	defer disposeDocs(children)

	first := children[0]
	if first.Reference() != "people.csv#row1" {
		t.Errorf("expected row reference, got %q", first.Reference())
	}
	if first.Meta.GetFirst("csv.name") != "alice" || first.Meta.GetFirst("csv.city") != "berlin" {
		t.Errorf("expected column metadata, got %v", first.Meta.Map())
	}
	b, _ := io.ReadAll(first.Content())
	if string(b) != "name: alice, city: berlin" {
		t.Errorf("unexpected child content %q", b)
	}
}

func TestCSVSplitter_HeaderOnlyProducesNoChildren(t *testing.T) {
	s := &CSVSplitter{}
	children, err := s.Split("empty.csv", document.NewMetadata(), strings.NewReader("a,b\n"), io.Discard, handler.PostParse)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(children) != 0 {
		t.Errorf("expected no children, got %d", len(children))
	}
}

func TestChunkSplitter_SmallContentStaysWhole(t *testing.T) {
	s := &ChunkSplitter{ChunkSize: 500}
	children, err := s.Split("doc", document.NewMetadata(), strings.NewReader("short text"), io.Discard, handler.PostParse)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(children) != 0 {
		t.Errorf("expected no children for sub-chunk content, got %d", len(children))
	}
}

func TestChunkSplitter_LargeContentSplits(t *testing.T) {
	para := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 30)
	text := para + "\n\n" + para + "\n\n" + para

	s := &ChunkSplitter{ChunkSize: 300, ChunkOverlap: 30, MinChunk: 10}
	children, err := s.Split("big.txt", document.NewMetadata(), strings.NewReader(text), io.Discard, handler.PostParse)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(children) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(children))
	}
	defer disposeDocs(children)

	for i, c := range children {
		wantRef := fmt.Sprintf("big.txt#chunk%d", i+1)
		if c.Reference() != wantRef {
			t.Errorf("chunk %d: expected reference %q, got %q", i, wantRef, c.Reference())
		}
		if c.Meta.GetFirst("chunk.index") != strconv.Itoa(i) {
			t.Errorf("chunk %d: missing chunk.index metadata", i)
		}
		tokens := estimateTokens(chunkText(t, c))
		if tokens > 600 {
			t.Errorf("chunk %d: %d tokens exceeds 2x target", i, tokens)
		}
	}
}

func chunkText(t *testing.T, d *document.Doc) string {
	t.Helper()
	d.Content().Rewind()
	b, err := io.ReadAll(d.Content())
	if err != nil {
		t.Fatalf("read chunk: %v", err)
	}
	return string(b)
}

func TestEstimateTokens(t *testing.T) {
	if estimateTokens("") != 0 {
		t.Errorf("empty text has 0 tokens")
	}
	if estimateTokens("word") < 1 {
		t.Errorf("non-empty text has at least 1 token")
	}
	long := strings.Repeat("word ", 100)
	if got := estimateTokens(long); got < 100 || got > 150 {
		t.Errorf("expected ~133 tokens for 100 words, got %d", got)
	}
}

func TestChunkSplitter_UnpunctuatedTextSplitsByWords(t *testing.T) {
	// 400 words with no sentence boundary and no blank line.
	words := make([]string, 400)
	for i := range words {
		words[i] = fmt.Sprintf("tok%03d", i)
	}
	text := strings.Join(words, " ")

	s := &ChunkSplitter{ChunkSize: 50, ChunkOverlap: 10, MinChunk: 1}
	children, err := s.Split("blob.txt", document.NewMetadata(), strings.NewReader(text), io.Discard, handler.PostParse)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	defer disposeDocs(children)

	if len(children) < 2 {
		t.Fatalf("expected multiple chunks for oversized unbroken text, got %d", len(children))
	}
	var all strings.Builder
	for i, c := range children {
		content := chunkText(t, c)
		if content == text {
			t.Fatalf("chunk %d is identical to its input", i)
		}
		all.WriteString(content)
		all.WriteString(" ")
	}
	if !strings.Contains(all.String(), "tok399") {
		t.Error("expected final word to land in a chunk")
	}
}

func TestChunkSplitter_NeverEmitsItsOwnInput(t *testing.T) {
	// A low target with a high minimum leaves exactly one packable
	// chunk; it must not come back as a child.
	text := strings.Repeat("alpha beta gamma delta ", 20)

	s := &ChunkSplitter{ChunkSize: 5, ChunkOverlap: 1, MinChunk: 1}
	children, err := s.Split("loop.txt", document.NewMetadata(), strings.NewReader(text), io.Discard, handler.PostParse)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	defer disposeDocs(children)
	for i, c := range children {
		if chunkText(t, c) == text {
			t.Fatalf("chunk %d is identical to its input", i)
		}
	}
}

func TestChunkSplitter_ImportOfUnbrokenTextTerminates(t *testing.T) {
	words := make([]string, 400)
	for i := range words {
		words[i] = fmt.Sprintf("tok%03d", i)
	}
	text := strings.Join(words, " ")

	imp := importer.New(importer.Config{
		Stream: streamio.DefaultConfig(),
		PostParse: []importer.HandlerEntry{
			importer.Split(&ChunkSplitter{ChunkSize: 50, ChunkOverlap: 10, MinChunk: 1, Stream: streamio.DefaultConfig()}),
		},
	}, nil)

	done := make(chan *importer.Response, 1)
	go func() {
		done <- imp.ImportDocument(importer.ImportRequest{
			Reference: "blob.txt",
			Input:     strings.NewReader(text),
		})
	}()

	select {
	case resp := <-done:
		defer resp.Dispose()
		if !resp.Success() {
			t.Fatalf("expected success, got %+v", resp.Status)
		}
		if len(resp.Nested()) < 2 {
			t.Fatalf("expected multiple chunk children, got %d", len(resp.Nested()))
		}
	case <-time.After(10 * time.Second):
		t.Fatal("import of unbroken text did not finish")
	}
}
