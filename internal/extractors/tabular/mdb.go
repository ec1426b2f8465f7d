package tabular

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driven"
	"github.com/trita-a/ricerca/internal/extractors/textutil"
)

// Ensure MDB implements the interface.
var _ driven.Extractor = (*MDB)(nil)

const (
	mdbTables = "mdb-tables"
	mdbExport = "mdb-export"
)

// MDB handles Microsoft Access databases through mdbtools.
type MDB struct {
	runner  driven.CommandRunner
	maxRows int
}

// NewMDB creates an Access extractor.
func NewMDB(runner driven.CommandRunner, limits domain.ExtractLimits) *MDB {
	return &MDB{runner: runner, maxRows: rowCap(limits)}
}

// Name identifies the extractor.
func (m *MDB) Name() string {
	return "mdb"
}

// Extensions returns the extensions this extractor handles.
func (m *MDB) Extensions() []string {
	return []string{".mdb", ".accdb"}
}

// Available checks that mdbtools is installed.
func (m *MDB) Available() error {
	for _, tool := range []string{mdbTables, mdbExport} {
		if _, err := m.runner.LookPath(tool); err != nil {
			return fmt.Errorf("%w: %s not found (brew install mdbtools / apt install mdbtools)", domain.ErrExtractorUnavailable, tool)
		}
	}
	return nil
}

// Extract exports each table as CSV until the row cap is reached.
func (m *MDB) Extract(ctx context.Context, raw *domain.RawFile) (*domain.Extraction, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	path, cleanup, err := textutil.Materialise(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}
	defer cleanup()

	list, err := m.runner.Run(ctx, mdbTables, "-1", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, mdbTables, err)
	}

	var out strings.Builder
	remaining := m.maxRows
	for _, table := range strings.Split(string(list), "\n") {
		table = strings.TrimSpace(table)
		if table == "" {
			continue
		}
		if remaining <= 0 || ctx.Err() != nil {
			break
		}

		data, err := m.runner.Run(ctx, mdbExport, path, table)
		if err != nil {
			return &domain.Extraction{Text: strings.TrimSpace(out.String())}, fmt.Errorf("%w: %s %s: %v", domain.ErrExtractionFailed, mdbExport, table, err)
		}

		out.WriteString(table)
		out.WriteByte('\n')
		r := csv.NewReader(bytes.NewReader(data))
		r.LazyQuotes = true
		r.FieldsPerRecord = -1
		// The header row counts against the cap like any other row.
		text, n, err := readRows(ctx, r.Read, remaining)
		remaining -= n
		out.WriteString(text)
		out.WriteByte('\n')
		if err != nil {
			return &domain.Extraction{Text: strings.TrimSpace(out.String())}, err
		}
	}

	return &domain.Extraction{Text: strings.TrimSpace(out.String())}, ctx.Err()
}
