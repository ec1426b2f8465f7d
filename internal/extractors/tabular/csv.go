// Package tabular extracts text from row-oriented data files: delimited
// text, dBASE tables, SQLite databases and Access databases. Every
// extractor stops after the configured number of rows.
package tabular

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driven"
	"github.com/trita-a/ricerca/internal/extractors/textutil"
)

// Ensure CSV implements the interface.
var _ driven.Extractor = (*CSV)(nil)

func rowCap(limits domain.ExtractLimits) int {
	if limits.MaxRows <= 0 {
		return domain.DefaultMaxRows
	}
	return limits.MaxRows
}

// CSV handles comma- and tab-separated files.
type CSV struct {
	maxRows int
}

// NewCSV creates a delimited-text extractor.
func NewCSV(limits domain.ExtractLimits) *CSV {
	return &CSV{maxRows: rowCap(limits)}
}

// Name identifies the extractor.
func (c *CSV) Name() string {
	return "csv"
}

// Extensions returns the extensions this extractor handles.
func (c *CSV) Extensions() []string {
	return []string{".csv", ".tsv", ".tab"}
}

// Extract writes one line per row with cells separated by spaces.
func (c *CSV) Extract(ctx context.Context, raw *domain.RawFile) (*domain.Extraction, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	r := csv.NewReader(strings.NewReader(textutil.DecodeText(raw.Content)))
	if ext := textutil.Ext(raw.Name); ext == ".tsv" || ext == ".tab" {
		r.Comma = '\t'
	}
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	text, _, err := readRows(ctx, r.Read, c.maxRows)
	return &domain.Extraction{Text: text}, err
}

// readRows joins rows from next until EOF or the row cap and returns
// the text and the number of rows read.
func readRows(ctx context.Context, next func() ([]string, error), maxRows int) (string, int, error) {
	var out strings.Builder
	rows := 0
	for ; rows < maxRows; rows++ {
		if err := ctx.Err(); err != nil {
			return strings.TrimSpace(out.String()), rows, err
		}
		record, err := next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return strings.TrimSpace(out.String()), rows, fmt.Errorf("%w: row %d: %v", domain.ErrExtractionFailed, rows+1, err)
		}
		writeRow(&out, record)
	}
	return strings.TrimSpace(out.String()), rows, nil
}

func writeRow(out *strings.Builder, cells []string) {
	first := true
	for _, cell := range cells {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		if !first {
			out.WriteByte(' ')
		}
		out.WriteString(cell)
		first = false
	}
	if !first {
		out.WriteByte('\n')
	}
}
