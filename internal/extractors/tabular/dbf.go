package tabular

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driven"
)

// Ensure DBF implements the interface.
var _ driven.Extractor = (*DBF)(nil)

const (
	dbfHeaderSize     = 32
	dbfFieldSize      = 32
	dbfFieldEnd       = 0x0D
	dbfDeleted        = '*'
	dbfLanguageOffset = 29
)

// dbfCodePages maps the language driver byte to a code page.
var dbfCodePages = map[byte]encoding.Encoding{
	0x01: charmap.CodePage437,
	0x02: charmap.CodePage850,
	0x03: charmap.Windows1252,
	0x57: charmap.Windows1252,
	0x64: charmap.CodePage852,
	0x65: charmap.CodePage866,
	0xC8: charmap.Windows1250,
	0xC9: charmap.Windows1251,
}

type dbfField struct {
	name   string
	kind   byte
	length int
}

// DBF handles dBASE III/IV and FoxPro tables.
type DBF struct {
	maxRows int
}

// NewDBF creates a dBASE extractor.
func NewDBF(limits domain.ExtractLimits) *DBF {
	return &DBF{maxRows: rowCap(limits)}
}

// Name identifies the extractor.
func (d *DBF) Name() string {
	return "dbf"
}

// Extensions returns the extensions this extractor handles.
func (d *DBF) Extensions() []string {
	return []string{".dbf"}
}

// Extract writes the field names, then one line per live record.
// Memo fields live in a separate file and are skipped.
func (d *DBF) Extract(ctx context.Context, raw *domain.RawFile) (*domain.Extraction, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	data := raw.Content
	if len(data) < dbfHeaderSize {
		return nil, fmt.Errorf("%w: dbf header truncated", domain.ErrExtractionFailed)
	}

	records := int(binary.LittleEndian.Uint32(data[4:8]))
	headerLen := int(binary.LittleEndian.Uint16(data[8:10]))
	recordLen := int(binary.LittleEndian.Uint16(data[10:12]))
	if headerLen < dbfHeaderSize || recordLen < 1 || headerLen > len(data) {
		return nil, fmt.Errorf("%w: dbf header invalid", domain.ErrExtractionFailed)
	}

	fields := parseDBFFields(data[dbfHeaderSize:headerLen])
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: dbf has no fields", domain.ErrExtractionFailed)
	}
	dec := dbfDecoder(data[dbfLanguageOffset])

	var out strings.Builder
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.name
	}
	writeRow(&out, names)

	cells := make([]string, 0, len(fields))
	written := 0
	for i := 0; i < records && written < d.maxRows; i++ {
		if err := ctx.Err(); err != nil {
			return &domain.Extraction{Text: strings.TrimSpace(out.String())}, err
		}
		start := headerLen + i*recordLen
		if start+recordLen > len(data) {
			break
		}
		record := data[start : start+recordLen]
		if record[0] == dbfDeleted {
			continue
		}

		cells = cells[:0]
		pos := 1
		for _, f := range fields {
			if pos+f.length > len(record) {
				break
			}
			value := record[pos : pos+f.length]
			pos += f.length
			switch f.kind {
			case 'C', 'N', 'F', 'D', 'L':
				cells = append(cells, dec(value))
			}
		}
		writeRow(&out, cells)
		written++
	}

	return &domain.Extraction{Text: strings.TrimSpace(out.String())}, nil
}

func parseDBFFields(desc []byte) []dbfField {
	var fields []dbfField
	for off := 0; off+dbfFieldSize <= len(desc); off += dbfFieldSize {
		if desc[off] == dbfFieldEnd {
			break
		}
		d := desc[off : off+dbfFieldSize]
		name := d[:11]
		if i := strings.IndexByte(string(name), 0); i >= 0 {
			name = name[:i]
		}
		fields = append(fields, dbfField{
			name:   strings.TrimSpace(string(name)),
			kind:   d[11],
			length: int(d[16]),
		})
	}
	return fields
}

// dbfDecoder returns a decoder for the table's code page. Tables without
// a language driver are read as UTF-8 when valid, else Windows-1252.
func dbfDecoder(language byte) func([]byte) string {
	enc, ok := dbfCodePages[language]
	return func(b []byte) string {
		if !ok && utf8.Valid(b) {
			return strings.TrimSpace(string(b))
		}
		e := enc
		if e == nil {
			e = charmap.Windows1252
		}
		s, err := e.NewDecoder().Bytes(b)
		if err != nil {
			return strings.TrimSpace(string(b))
		}
		return strings.TrimSpace(string(s))
	}
}
