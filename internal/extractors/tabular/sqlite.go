package tabular

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driven"
	"github.com/trita-a/ricerca/internal/extractors/textutil"
)

// Ensure SQLite implements the interface.
var _ driven.Extractor = (*SQLite)(nil)

var sqliteMagic = []byte("SQLite format 3\x00")

// SQLite samples rows from every table of a SQLite database.
type SQLite struct {
	maxRows int
}

// NewSQLite creates a SQLite extractor.
func NewSQLite(limits domain.ExtractLimits) *SQLite {
	return &SQLite{maxRows: rowCap(limits)}
}

// Name identifies the extractor.
func (s *SQLite) Name() string {
	return "sqlite"
}

// Extensions returns the extensions this extractor handles.
func (s *SQLite) Extensions() []string {
	return []string{".sqlite", ".sqlite3", ".db", ".db3"}
}

// Extract opens the database read-only and writes table names, column
// names and up to maxRows rows in total.
func (s *SQLite) Extract(ctx context.Context, raw *domain.RawFile) (*domain.Extraction, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	// .db is shared with other formats; only real SQLite files are opened.
	if len(raw.Content) < len(sqliteMagic) || string(raw.Content[:len(sqliteMagic)]) != string(sqliteMagic) {
		return &domain.Extraction{}, nil
	}

	path, cleanup, err := textutil.Materialise(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}
	defer cleanup()

	dsn := (&url.URL{Scheme: "file", Path: path, RawQuery: "mode=ro&_pragma=busy_timeout(1000)"}).String()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", domain.ErrExtractionFailed, err)
	}
	defer db.Close()

	tables, err := listTables(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("%w: listing tables: %v", domain.ErrExtractionFailed, err)
	}

	var out strings.Builder
	remaining := s.maxRows
	for _, table := range tables {
		if remaining <= 0 {
			break
		}
		n, err := sampleTable(ctx, db, &out, table, remaining)
		remaining -= n
		if err != nil {
			return &domain.Extraction{Text: strings.TrimSpace(out.String())}, fmt.Errorf("%w: table %s: %v", domain.ErrExtractionFailed, table, err)
		}
	}

	return &domain.Extraction{Text: strings.TrimSpace(out.String())}, nil
}

func listTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// sampleTable writes the table name, its columns and up to limit rows.
func sampleTable(ctx context.Context, db *sql.DB, out *strings.Builder, table string, limit int) (int, error) {
	query := fmt.Sprintf(`SELECT * FROM "%s" LIMIT %d`, strings.ReplaceAll(table, `"`, `""`), limit)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}
	out.WriteString(table)
	out.WriteByte('\n')
	writeRow(out, cols)

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	cells := make([]string, len(cols))

	n := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return n, err
		}
		for i, v := range values {
			cells[i] = formatValue(v)
		}
		writeRow(out, cells)
		n++
	}
	return n, rows.Err()
}

// formatValue renders a column value; binary blobs are dropped.
func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		if utf8.Valid(t) {
			return string(t)
		}
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
