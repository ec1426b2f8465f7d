// Package office extracts text from Office Open XML (docx, xlsx, pptx)
// and OpenDocument (odt, ods, odp) files through their public zip/XML
// structure. No office suite is required.
package office

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driven"
	"github.com/trita-a/ricerca/internal/extractors/textutil"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// memberLimit bounds the decompressed size of a single archive member.
const memberLimit = 64 << 20

var slideName = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Extractor handles OOXML and ODF documents.
type Extractor struct {
	maxRows   int
	maxSlides int
}

// New creates an office extractor with row and slide caps.
func New(limits domain.ExtractLimits) *Extractor {
	e := &Extractor{maxRows: limits.MaxRows, maxSlides: limits.MaxSlides}
	if e.maxRows <= 0 {
		e.maxRows = domain.DefaultMaxRows
	}
	if e.maxSlides <= 0 {
		e.maxSlides = domain.DefaultMaxSlides
	}
	return e
}

// Name identifies the extractor.
func (e *Extractor) Name() string {
	return "office"
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{
		".docx", ".docm", ".dotx",
		".xlsx", ".xlsm",
		".pptx", ".pptm",
		".odt", ".ods", ".odp", ".ott",
	}
}

// Extract dispatches on the extension.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawFile) (*domain.Extraction, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := textutil.OpenZip(raw)
	if err != nil {
		return nil, err
	}

	var text string
	switch textutil.Ext(raw.Name) {
	case ".docx", ".docm", ".dotx":
		text, err = e.extractDocx(ctx, reader)
	case ".xlsx", ".xlsm":
		text, err = e.extractXlsx(ctx, reader)
	case ".pptx", ".pptm":
		text, err = e.extractPptx(ctx, reader)
	case ".odt", ".ott":
		text, err = e.extractODF(ctx, reader, textutil.XMLLayout{
			Breaks: []string{"p", "h"},
			Spaces: []string{"s", "tab", "line-break"},
		})
	case ".ods":
		text, err = e.extractODF(ctx, reader, textutil.XMLLayout{
			Breaks: []string{"table-row"},
			Spaces: []string{"table-cell", "s", "tab"},
			Unit:   "table-row",
			Limit:  e.maxRows,
		})
	case ".odp":
		text, err = e.extractODF(ctx, reader, textutil.XMLLayout{
			Breaks: []string{"p", "h"},
			Spaces: []string{"s", "tab"},
			Unit:   "page",
			Limit:  e.maxSlides,
		})
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, raw.Name)
	}

	if title := extractTitle(reader); title != "" {
		text = title + "\n" + text
	}
	return &domain.Extraction{Text: strings.TrimSpace(text)}, err
}

// extractDocx extracts text from word/document.xml, headers and footers.
func (e *Extractor) extractDocx(ctx context.Context, reader *zip.Reader) (string, error) {
	layout := textutil.XMLLayout{
		Breaks: []string{"p", "tr"},
		Spaces: []string{"tab", "tc", "br"},
	}

	var parts []string
	for _, file := range reader.File {
		if file.Name != "word/document.xml" &&
			!strings.HasPrefix(file.Name, "word/header") &&
			!strings.HasPrefix(file.Name, "word/footer") {
			continue
		}
		text, err := xmlMember(ctx, file, layout)
		if text != "" {
			parts = append(parts, text)
		}
		if err != nil {
			return strings.Join(parts, "\n"), err
		}
	}
	return strings.Join(parts, "\n"), nil
}

// extractPptx extracts slide text in slide order, up to the slide cap.
func (e *Extractor) extractPptx(ctx context.Context, reader *zip.Reader) (string, error) {
	type slide struct {
		n    int
		file *zip.File
	}
	var slides []slide
	for _, file := range reader.File {
		if m := slideName.FindStringSubmatch(file.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slides = append(slides, slide{n: n, file: file})
		}
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })
	if len(slides) > e.maxSlides {
		slides = slides[:e.maxSlides]
	}

	layout := textutil.XMLLayout{Breaks: []string{"p"}, Spaces: []string{"tab", "br"}}
	var parts []string
	for _, s := range slides {
		text, err := xmlMember(ctx, s.file, layout)
		if text != "" {
			parts = append(parts, text)
		}
		if err != nil {
			return strings.Join(parts, "\n"), err
		}
	}
	return strings.Join(parts, "\n"), nil
}

// extractXlsx resolves shared strings and walks worksheets up to the row cap.
func (e *Extractor) extractXlsx(ctx context.Context, reader *zip.Reader) (string, error) {
	var shared []string
	if f := textutil.FindZipFile(reader, "xl/sharedStrings.xml"); f != nil {
		data, err := textutil.ReadZipFile(f, memberLimit)
		if err != nil {
			return "", err
		}
		shared = parseSharedStrings(data)
	}

	var sheets []*zip.File
	for _, file := range reader.File {
		if strings.HasPrefix(file.Name, "xl/worksheets/") && strings.HasSuffix(file.Name, ".xml") {
			sheets = append(sheets, file)
		}
	}
	sort.Slice(sheets, func(i, j int) bool { return sheets[i].Name < sheets[j].Name })

	var out strings.Builder
	rows := 0
	for _, sheet := range sheets {
		if rows >= e.maxRows {
			break
		}
		data, err := textutil.ReadZipFile(sheet, memberLimit)
		if err != nil {
			return out.String(), err
		}
		n, err := writeSheet(ctx, &out, data, shared, e.maxRows-rows)
		rows += n
		if err != nil {
			return out.String(), err
		}
	}
	return textutil.CollapseLines(out.String()), nil
}

// sharedStringsXML represents xl/sharedStrings.xml.
type sharedStringsXML struct {
	Items []struct {
		Text string `xml:"t"`
		Runs []struct {
			Text string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

func parseSharedStrings(data []byte) []string {
	var sst sharedStringsXML
	if err := xml.Unmarshal(data, &sst); err != nil {
		return nil
	}
	out := make([]string, len(sst.Items))
	for i, item := range sst.Items {
		if item.Text != "" {
			out[i] = item.Text
			continue
		}
		var b strings.Builder
		for _, r := range item.Runs {
			b.WriteString(r.Text)
		}
		out[i] = b.String()
	}
	return out
}

// writeSheet writes one line per row, resolving shared string indices.
// It returns the number of rows written.
func writeSheet(ctx context.Context, out *strings.Builder, data []byte, shared []string, maxRows int) (int, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	rows := 0
	cellType := ""
	inValue := false

	for {
		if err := ctx.Err(); err != nil {
			return rows, err
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return rows, fmt.Errorf("%w: worksheet: %v", domain.ErrExtractionFailed, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "c":
				cellType = ""
				for _, a := range t.Attr {
					if a.Name.Local == "t" {
						cellType = a.Value
					}
				}
			case "v", "t":
				inValue = true
			}
		case xml.CharData:
			if !inValue {
				continue
			}
			value := string(t)
			if cellType == "s" {
				if idx, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && idx >= 0 && idx < len(shared) {
					value = shared[idx]
				}
			}
			out.WriteString(value)
			out.WriteByte(' ')
		case xml.EndElement:
			switch t.Name.Local {
			case "v", "t":
				inValue = false
			case "row":
				out.WriteByte('\n')
				if rows++; rows >= maxRows {
					return rows, nil
				}
			}
		}
	}
}

// extractODF walks content.xml of an OpenDocument file.
func (e *Extractor) extractODF(ctx context.Context, reader *zip.Reader, layout textutil.XMLLayout) (string, error) {
	f := textutil.FindZipFile(reader, "content.xml")
	if f == nil {
		return "", fmt.Errorf("%w: content.xml missing", domain.ErrExtractionFailed)
	}
	return xmlMember(ctx, f, layout)
}

// xmlMember walks one archive member as XML.
func xmlMember(ctx context.Context, f *zip.File, layout textutil.XMLLayout) (string, error) {
	data, err := textutil.ReadZipFile(f, memberLimit)
	if err != nil {
		return "", err
	}
	return textutil.XMLText(ctx, bytes.NewReader(data), layout)
}

// coreXML represents the title fields of docProps/core.xml and meta.xml.
type coreXML struct {
	Title   string `xml:"title"`
	Subject string `xml:"subject"`
	Meta    struct {
		Title   string `xml:"title"`
		Subject string `xml:"subject"`
	} `xml:"meta"`
}

// extractTitle returns the document title and subject, if any.
func extractTitle(reader *zip.Reader) string {
	for _, name := range []string{"docProps/core.xml", "meta.xml"} {
		f := textutil.FindZipFile(reader, name)
		if f == nil {
			continue
		}
		data, err := textutil.ReadZipFile(f, memberLimit)
		if err != nil {
			return ""
		}
		var core coreXML
		if err := xml.Unmarshal(data, &core); err != nil {
			return ""
		}
		fields := []string{core.Title, core.Subject, core.Meta.Title, core.Meta.Subject}
		var out []string
		for _, field := range fields {
			if field = strings.TrimSpace(field); field != "" {
				out = append(out, field)
			}
		}
		return strings.Join(out, "\n")
	}
	return ""
}
