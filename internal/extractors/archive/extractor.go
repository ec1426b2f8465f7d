// Package archive extracts text from zip-based document containers that
// are not office documents: EPUB books, OpenOffice Base databases and
// Apple Keynote presentations.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driven"
	"github.com/trita-a/ricerca/internal/extractors/textutil"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// memberLimit bounds the decompressed size of a single archive member.
const memberLimit = 32 << 20

// Extractor handles zip containers.
type Extractor struct {
	maxParts int
}

// New creates an archive extractor. Chapters and slides are capped at
// limits.MaxSlides parts.
func New(limits domain.ExtractLimits) *Extractor {
	n := limits.MaxSlides
	if n <= 0 {
		n = domain.DefaultMaxSlides
	}
	return &Extractor{maxParts: n}
}

// Name identifies the extractor.
func (e *Extractor) Name() string {
	return "archive"
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".epub", ".odb", ".key"}
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
	case ".epub":
		text, err = e.extractEPUB(ctx, reader)
	case ".odb":
		text, err = e.extractODB(ctx, reader)
	case ".key":
		text, err = e.extractKeynote(ctx, reader)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, raw.Name)
	}
	return &domain.Extraction{Text: text}, err
}

// container represents META-INF/container.xml.
type container struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

// packageDoc represents the parts of an OPF package document we read.
type packageDoc struct {
	Title    []string `xml:"metadata>title"`
	Creator  []string `xml:"metadata>creator"`
	Manifest []struct {
		ID   string `xml:"id,attr"`
		Href string `xml:"href,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef string `xml:"idref,attr"`
	} `xml:"spine>itemref"`
}

// extractEPUB reads chapters in spine order. Books without a readable
// package document fall back to their HTML members in name order.
func (e *Extractor) extractEPUB(ctx context.Context, reader *zip.Reader) (string, error) {
	var header []string
	chapters := e.spine(reader, &header)
	if len(chapters) == 0 {
		for _, f := range reader.File {
			switch strings.ToLower(path.Ext(f.Name)) {
			case ".xhtml", ".html", ".htm":
				chapters = append(chapters, f)
			}
		}
		sort.Slice(chapters, func(i, j int) bool { return chapters[i].Name < chapters[j].Name })
	}
	if len(chapters) > e.maxParts {
		chapters = chapters[:e.maxParts]
	}

	parts := header
	for _, f := range chapters {
		if err := ctx.Err(); err != nil {
			return strings.Join(parts, "\n"), err
		}
		data, err := textutil.ReadZipFile(f, memberLimit)
		if err != nil {
			return strings.Join(parts, "\n"), err
		}
		if text := textutil.StripTags(textutil.DecodeText(data)); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// spine resolves the reading order from the OPF package and appends the
// title and creators to header.
func (e *Extractor) spine(reader *zip.Reader, header *[]string) []*zip.File {
	cf := textutil.FindZipFile(reader, "META-INF/container.xml")
	if cf == nil {
		return nil
	}
	data, err := textutil.ReadZipFile(cf, memberLimit)
	if err != nil {
		return nil
	}
	var c container
	if err := xml.Unmarshal(data, &c); err != nil || len(c.Rootfiles) == 0 {
		return nil
	}

	opfPath := c.Rootfiles[0].FullPath
	of := textutil.FindZipFile(reader, opfPath)
	if of == nil {
		return nil
	}
	data, err = textutil.ReadZipFile(of, memberLimit)
	if err != nil {
		return nil
	}
	var pkg packageDoc
	if err := xml.Unmarshal(data, &pkg); err != nil {
		return nil
	}

	for _, s := range append(pkg.Title, pkg.Creator...) {
		if s = strings.TrimSpace(s); s != "" {
			*header = append(*header, s)
		}
	}

	hrefs := make(map[string]string, len(pkg.Manifest))
	for _, item := range pkg.Manifest {
		hrefs[item.ID] = item.Href
	}
	base := path.Dir(opfPath)
	var files []*zip.File
	for _, ref := range pkg.Spine {
		href, ok := hrefs[ref.IDRef]
		if !ok {
			continue
		}
		if f := textutil.FindZipFile(reader, path.Join(base, href)); f != nil {
			files = append(files, f)
		}
	}
	return files
}

// extractODB reads the form and query definitions in content.xml and the
// embedded HSQLDB script, which holds table data as SQL statements.
func (e *Extractor) extractODB(ctx context.Context, reader *zip.Reader) (string, error) {
	var parts []string
	if f := textutil.FindZipFile(reader, "content.xml"); f != nil {
		data, err := textutil.ReadZipFile(f, memberLimit)
		if err != nil {
			return "", err
		}
		text, err := textutil.XMLText(ctx, bytes.NewReader(data), textutil.XMLLayout{
			Breaks: []string{"table", "query", "component", "column"},
		})
		if text != "" {
			parts = append(parts, text)
		}
		if err != nil {
			return strings.Join(parts, "\n"), err
		}
		parts = append(parts, odbNames(data)...)
	}

	if f := textutil.FindZipFile(reader, "database/script"); f != nil {
		data, err := textutil.ReadZipFile(f, memberLimit)
		if err != nil {
			return strings.Join(parts, "\n"), err
		}
		parts = append(parts, textutil.CollapseLines(textutil.DecodeText(data)))
	}
	return strings.Join(parts, "\n"), ctx.Err()
}

// odbNames collects the name and command attributes of an ODB content.xml,
// where table, query and form definitions keep their text.
func odbNames(data []byte) []string {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	var out []string
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		for _, a := range start.Attr {
			if a.Name.Local == "name" || a.Name.Local == "command" {
				if v := strings.TrimSpace(a.Value); v != "" {
					out = append(out, v)
				}
			}
		}
	}
}

// extractKeynote reads the XML of Keynote '09 files. Newer files store
// slides as compressed protobuf (.iwa); readable runs are recovered from
// those instead.
func (e *Extractor) extractKeynote(ctx context.Context, reader *zip.Reader) (string, error) {
	if f := textutil.FindZipFile(reader, "index.apxl"); f != nil {
		data, err := textutil.ReadZipFile(f, memberLimit)
		if err != nil {
			return "", err
		}
		return textutil.XMLText(ctx, bytes.NewReader(data), textutil.XMLLayout{
			Breaks: []string{"p", "slide"},
			Spaces: []string{"span", "tab"},
			Unit:   "slide",
			Limit:  e.maxParts,
		})
	}

	var iwa []*zip.File
	for _, f := range reader.File {
		if strings.HasSuffix(f.Name, ".iwa") && strings.HasPrefix(path.Base(f.Name), "Slide") {
			iwa = append(iwa, f)
		}
	}
	sort.Slice(iwa, func(i, j int) bool { return iwa[i].Name < iwa[j].Name })
	if len(iwa) > e.maxParts {
		iwa = iwa[:e.maxParts]
	}

	var parts []string
	for _, f := range iwa {
		if err := ctx.Err(); err != nil {
			return strings.Join(parts, "\n"), err
		}
		data, err := textutil.ReadZipFile(f, memberLimit)
		if err != nil {
			return strings.Join(parts, "\n"), err
		}
		if text := textutil.PrintableRuns(data, 4); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}
