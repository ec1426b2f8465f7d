// Package textutil holds helpers shared by the format extractors:
// charset decoding, markup stripping, XML text walking, zip access
// and printable-run scanning for undocumented binary formats.
package textutil

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/trita-a/ricerca/internal/core/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText returns data as a string, decoding UTF-16 (with BOM) and
// falling back to Latin-1 when data is not valid UTF-8.
func DecodeText(data []byte) string {
	switch {
	case bytes.HasPrefix(data, utf8BOM):
		data = data[len(utf8BOM):]
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE:
		return decodeUTF16(data[2:], false)
	case len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF:
		return decodeUTF16(data[2:], true)
	}
	if utf8.Valid(data) {
		return string(data)
	}
	return DecodeLatin1(data)
}

// DecodeLatin1 decodes ISO-8859-1 bytes.
func DecodeLatin1(data []byte) string {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return string(bytes.ToValidUTF8(data, nil))
	}
	return string(out)
}

func decodeUTF16(data []byte, bigEndian bool) string {
	units := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		if bigEndian {
			units = append(units, uint16(data[i])<<8|uint16(data[i+1]))
		} else {
			units = append(units, uint16(data[i+1])<<8|uint16(data[i]))
		}
	}
	return string(utf16.Decode(units))
}

// StripTags removes markup tags and unescapes entities, keeping one
// non-blank line per text line.
func StripTags(markup string) string {
	var result strings.Builder
	inTag := false

	for _, r := range markup {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			result.WriteRune(' ')
		case !inTag:
			result.WriteRune(r)
		}
	}

	return CollapseLines(html.UnescapeString(result.String()))
}

// CollapseLines trims every line and drops blank ones.
func CollapseLines(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}

// XMLLayout says which elements separate text.
type XMLLayout struct {
	// Breaks are local element names followed by a newline (paragraphs, rows).
	Breaks []string

	// Spaces are local element names followed by a space (cells, tabs).
	Spaces []string

	// Unit and Limit stop the walk after Limit Unit elements have closed
	// (rows, slides). A zero Limit walks the whole document.
	Unit  string
	Limit int
}

// XMLText walks an XML document and returns its character data laid out
// per layout. Text of other elements is concatenated so that formatting
// runs inside a word stay joined. The walk checks ctx between tokens.
func XMLText(ctx context.Context, r io.Reader, layout XMLLayout) (string, error) {
	sep := make(map[string]byte, len(layout.Breaks)+len(layout.Spaces))
	for _, name := range layout.Spaces {
		sep[name] = ' '
	}
	for _, name := range layout.Breaks {
		sep[name] = '\n'
	}

	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	var out strings.Builder
	units := 0
	for {
		if err := ctx.Err(); err != nil {
			return CollapseLines(out.String()), err
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return CollapseLines(out.String()), fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			out.Write(t)
		case xml.EndElement:
			if b, ok := sep[t.Name.Local]; ok {
				out.WriteByte(b)
			}
			if layout.Limit > 0 && t.Name.Local == layout.Unit {
				if units++; units >= layout.Limit {
					return CollapseLines(out.String()), nil
				}
			}
		}
	}
	return CollapseLines(out.String()), nil
}

// OpenZip opens raw content as a zip archive.
func OpenZip(raw *domain.RawFile) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a zip archive: %v", domain.ErrExtractionFailed, err)
	}
	return zr, nil
}

// ReadZipFile returns the decompressed bytes of one archive member.
func ReadZipFile(f *zip.File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, f.Name, err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if limit > 0 {
		r = io.LimitReader(rc, limit)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, f.Name, err)
	}
	return data, nil
}

// FindZipFile returns the member called name, or nil.
func FindZipFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// PrintableRuns scans undocumented binary content for readable text:
// runs of at least minRun printable ASCII bytes and of UTF-16LE code units.
func PrintableRuns(data []byte, minRun int) string {
	var out strings.Builder
	flush := func(run []rune) {
		if len(run) >= minRun {
			out.WriteString(string(run))
			out.WriteByte('\n')
		}
	}

	run := make([]rune, 0, 64)
	for _, b := range data {
		if b >= 0x20 && b < 0x7F || b == '\t' {
			run = append(run, rune(b))
			continue
		}
		flush(run)
		run = run[:0]
	}
	flush(run)

	run = run[:0]
	for i := 0; i+1 < len(data); i += 2 {
		u := uint16(data[i+1])<<8 | uint16(data[i])
		if u >= 0x20 && u != 0x7F && u < 0x0500 {
			run = append(run, rune(u))
			continue
		}
		flush(run)
		run = run[:0]
	}
	flush(run)

	return strings.TrimSpace(out.String())
}

// Materialise returns an on-disk path for raw. Files already on disk are
// returned as-is; in-memory content is written to a temp file that the
// returned cleanup removes.
func Materialise(raw *domain.RawFile) (string, func(), error) {
	if raw.Path != "" {
		return raw.Path, func() {}, nil
	}
	f, err := os.CreateTemp("", "ricerca-*"+strings.ToLower(filepath.Ext(raw.Name)))
	if err != nil {
		return "", nil, fmt.Errorf("creating temp file: %w", err)
	}
	name := f.Name()
	cleanup := func() { os.Remove(name) }
	if _, err := f.Write(raw.Content); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("closing temp file: %w", err)
	}
	return name, cleanup, nil
}

// Ext returns the lower-case extension of name.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// LooksText reports whether the first bytes of data look like text:
// no NUL bytes and mostly printable characters.
func LooksText(data []byte) bool {
	if len(data) > 8192 {
		data = data[:8192]
	}
	if len(data) == 0 {
		return false
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return false
	}
	control := 0
	for _, b := range data {
		if b < 0x20 && b != '\n' && b != '\r' && b != '\t' && b != '\f' {
			control++
		}
	}
	return control*20 < len(data)
}
