package jobs

import (
	"io"

	"github.com/docpipe/docpipe/internal/importer"
	"github.com/docpipe/docpipe/internal/sink"
)

// BuildRecord converts a finished response tree into the sink record
// shape. When includeContent is set the remaining document content is
// read out of each stream; the response tree must not be reused for
// content access afterwards.
func BuildRecord(resp *importer.Response, includeContent bool) sink.Record {
	rec := sink.Record{
		Reference:   resp.Reference,
		Status:      resp.Status.Code.String(),
		Filter:      resp.Status.Filter,
		Description: resp.Status.Description,
	}
	if resp.Status.Err != nil && rec.Description == "" {
		rec.Description = resp.Status.Err.Error()
	}
	if doc := resp.Doc(); doc != nil {
		rec.Metadata = doc.Meta.Map()
		if includeContent {
			if s := doc.Content(); s != nil {
				s.Rewind()
				if data, err := io.ReadAll(s); err == nil {
					rec.Content = string(data)
					rec.ContentHash = ContentHashHex(data)
				}
			}
		}
	}
	for _, child := range resp.Nested() {
		rec.Children = append(rec.Children, BuildRecord(child, includeContent))
	}
	return rec
}
