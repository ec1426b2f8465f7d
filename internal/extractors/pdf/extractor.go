// Package pdf extracts text from PDF documents with pdftotext from
// poppler-utils. The tool is optional: without it the format is absent.
package pdf

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driven"
	"github.com/trita-a/ricerca/internal/extractors/textutil"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const tool = "pdftotext"

// Extractor converts PDFs to text up to a page cap.
type Extractor struct {
	runner   driven.CommandRunner
	maxPages int
}

// New creates a PDF extractor.
func New(runner driven.CommandRunner, limits domain.ExtractLimits) *Extractor {
	pages := limits.MaxPages
	if pages <= 0 {
		pages = domain.DefaultMaxPages
	}
	return &Extractor{runner: runner, maxPages: pages}
}

// Name identifies the extractor.
func (e *Extractor) Name() string {
	return "pdf"
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".pdf"}
}

// Available checks that pdftotext is installed.
func (e *Extractor) Available() error {
	if _, err := e.runner.LookPath(tool); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrExtractorUnavailable, InstallInstructions())
	}
	return nil
}

// InstallInstructions returns how to install pdftotext.
func InstallInstructions() string {
	return "pdftotext not found. Install poppler:\n" +
		"  macOS:  brew install poppler\n" +
		"  Debian: apt install poppler-utils\n" +
		"  Fedora: dnf install poppler-utils"
}

// Extract runs pdftotext on the first pages of the document.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawFile) (*domain.Extraction, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	path, cleanup, err := textutil.Materialise(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}
	defer cleanup()

	out, err := e.runner.Run(ctx, tool, "-l", strconv.Itoa(e.maxPages), "-q", "-enc", "UTF-8", path, "-")
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, tool, err)
	}

	// pdftotext separates pages with form feeds.
	text := strings.ReplaceAll(string(out), "\f", "\n")
	return &domain.Extraction{Text: textutil.CollapseLines(text)}, nil
}
