package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/docpipe/docpipe/internal/document"
	"github.com/docpipe/docpipe/internal/handler"
	"github.com/docpipe/docpipe/internal/streamio"
)

// CSVSplitter derives one child document per data row. Column values
// land in the child's metadata keyed by header name; the child content
// is the labeled row text.
type CSVSplitter struct {
	Stream streamio.Config
}

func (s *CSVSplitter) Name() string { return "csvSplitter" }

func (s *CSVSplitter) Split(ref string, meta *document.Metadata, in io.Reader, out io.Writer, state handler.ParseState) ([]*document.Doc, error) {
	reader := csv.NewReader(in)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("split csv: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	headers := records[0]
	var children []*document.Doc
	for i, row := range records[1:] {
		childRef := fmt.Sprintf("%s#row%d", ref, i+1)

		childMeta := document.NewMetadata()
		var text strings.Builder
		for j, cell := range row {
			name := "column" + strconv.Itoa(j+1)
			if j < len(headers) && headers[j] != "" {
				name = headers[j]
			}
			childMeta.Add("csv."+name, cell)
			if j > 0 {
				text.WriteString(", ")
			}
			text.WriteString(name + ": " + cell)
		}

		stream, err := streamio.OpenBytes([]byte(text.String()), s.Stream)
		if err != nil {
			disposeDocs(children)
			return nil, err
		}
		info := document.NewDocInfo(childRef)
		info.ContentType = "text/plain"
		children = append(children, document.New(info, childMeta, stream))
	}
	return children, nil
}

// ChunkSplitter cuts long text content into overlapping chunks, one
// child document per chunk. Chunk boundaries follow paragraphs, then
// sentences, sized by a rough token estimate.
type ChunkSplitter struct {
	ChunkSize    int // Target chunk size in tokens.
	ChunkOverlap int // Overlap between consecutive chunks in tokens.
	MinChunk     int // Minimum chunk size to emit.
	Stream       streamio.Config
}

func (s *ChunkSplitter) Name() string { return "chunkSplitter" }

func (s *ChunkSplitter) Split(ref string, meta *document.Metadata, in io.Reader, out io.Writer, state handler.ParseState) ([]*document.Doc, error) {
	size := s.ChunkSize
	if size <= 0 {
		size = 1500
	}
	overlap := s.ChunkOverlap
	if overlap <= 0 {
		overlap = 200
	}
	minChunk := s.MinChunk
	if minChunk <= 0 {
		minChunk = 100
	}

	b, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}
	text := string(b)

	// Content already below one chunk stays whole.
	if estimateTokens(text) <= size {
		return nil, nil
	}

	parts := splitText(text, size, overlap)
	if len(parts) == 1 && parts[0] == text {
		// A child identical to its input would re-enter this splitter
		// with the same content on every pass.
		return nil, nil
	}

	var children []*document.Doc
	for _, part := range parts {
		if estimateTokens(part) < minChunk {
			continue
		}
		idx := len(children)
		childRef := fmt.Sprintf("%s#chunk%d", ref, idx+1)

		childMeta := document.NewMetadata()
		childMeta.Set("chunk.index", strconv.Itoa(idx))

		stream, err := streamio.OpenBytes([]byte(part), s.Stream)
		if err != nil {
			disposeDocs(children)
			return nil, err
		}
		info := document.NewDocInfo(childRef)
		info.ContentType = "text/plain"
		children = append(children, document.New(info, childMeta, stream))
	}
	return children, nil
}

func disposeDocs(docs []*document.Doc) {
	for _, d := range docs {
		d.Dispose()
	}
}

var (
	_ handler.Splitter = (*CSVSplitter)(nil)
	_ handler.Splitter = (*ChunkSplitter)(nil)
)
