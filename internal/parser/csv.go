package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/docpipe/docpipe/internal/doctree"
)

// CSVParser renders tabular data as labeled text, one section per
// batch of rows so very wide files stay navigable.
type CSVParser struct{}

const csvBatchSize = 20

func (p *CSVParser) Parse(r io.Reader, ref string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{Title: baseTitle(ref)}
	if len(records) == 0 {
		return tree, nil
	}

	headers := records[0]
	rows := records[1:]

	for i := 0; i < len(rows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(rows))

		var text strings.Builder
		text.WriteString("Headers: " + strings.Join(headers, ", ") + "\n\n")
		for _, row := range rows[i:end] {
			text.WriteString(labelRow(headers, row))
			text.WriteString("\n")
		}

		tree.Children = append(tree.Children, &doctree.DocNode{
			Title: fmt.Sprintf("Rows %d-%d", i+2, end+1), // 1-indexed, skip header
			Text:  text.String(),
		})
	}

	return tree, nil
}

// labelRow renders one record as "header: value" pairs.
func labelRow(headers, row []string) string {
	var sb strings.Builder
	for j, cell := range row {
		if j > 0 {
			sb.WriteString(", ")
		}
		if j < len(headers) {
			sb.WriteString(headers[j] + ": " + cell)
		} else {
			sb.WriteString(cell)
		}
	}
	return sb.String()
}
