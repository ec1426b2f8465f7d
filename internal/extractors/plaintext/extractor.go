// Package plaintext extracts text from plain text, source code, HTML and RTF.
package plaintext

import (
	"context"
	"regexp"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driven"
	"github.com/trita-a/ricerca/internal/extractors/textutil"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

var markupExtensions = map[string]bool{
	".html":  true,
	".htm":   true,
	".xhtml": true,
	".svg":   true,
}

var (
	rtfControl = regexp.MustCompile(`\\[a-zA-Z]+-?\d* ?|\\[^a-zA-Z]|[{}]`)
	rtfHex     = regexp.MustCompile(`\\'[0-9a-fA-F]{2}`)
	rtfPar     = regexp.MustCompile(`\\par\b ?`)
)

// Extractor handles text-like files.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name identifies the extractor.
func (e *Extractor) Name() string {
	return "plaintext"
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{
		".txt", ".text", ".md", ".markdown", ".rst", ".log", ".nfo", ".me",
		".go", ".py", ".rs", ".java", ".c", ".h", ".cpp", ".hpp", ".cs",
		".rb", ".php", ".js", ".jsx", ".ts", ".tsx", ".css", ".scss",
		".sh", ".bat", ".ps1", ".sql", ".lua", ".pl", ".kt", ".swift",
		".tex", ".bib", ".srt", ".vtt",
		".html", ".htm", ".xhtml", ".svg",
		".rtf",
	}
}

// Extract decodes the content as UTF-8 (Latin-1 fallback). Markup is
// stripped to its text and RTF control words are removed.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawFile) (*domain.Extraction, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text := textutil.DecodeText(raw.Content)
	ext := textutil.Ext(raw.Name)

	switch {
	case markupExtensions[ext]:
		text = textutil.StripTags(text)
	case ext == ".rtf":
		text = stripRTF(text)
	}

	return &domain.Extraction{Text: text}, nil
}

// stripRTF removes control words, hex escapes and group braces.
func stripRTF(text string) string {
	text = rtfHex.ReplaceAllStringFunc(text, func(m string) string {
		b := hexByte(m[2:])
		return textutil.DecodeLatin1([]byte{b})
	})
	text = rtfPar.ReplaceAllString(text, "\n")
	text = rtfControl.ReplaceAllString(text, "")
	return textutil.CollapseLines(text)
}

func hexByte(s string) byte {
	var b byte
	for _, c := range []byte(s) {
		b <<= 4
		switch {
		case c >= '0' && c <= '9':
			b |= c - '0'
		case c >= 'a' && c <= 'f':
			b |= c - 'a' + 10
		case c >= 'A' && c <= 'F':
			b |= c - 'A' + 10
		}
	}
	return b
}
