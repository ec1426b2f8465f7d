// Package legacy extracts text from binary Office 97-2003 documents
// (doc, xls, ppt) through optional command-line decoders. When none of a
// format's decoders is installed the extractor reports itself unavailable
// and the registry records the format as absent.
package legacy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driven"
	"github.com/trita-a/ricerca/internal/extractors/textutil"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Tool is one external decoder. Args builds its command line for a file.
type Tool struct {
	Bin  string
	Args func(path string) []string
}

// Extractor runs the first installed tool of its list.
type Extractor struct {
	name    string
	exts    []string
	tools   []Tool
	install string
	runner  driven.CommandRunner
}

// NewDoc creates the Word 97-2003 extractor (antiword, then catdoc).
func NewDoc(runner driven.CommandRunner) *Extractor {
	return &Extractor{
		name: "doc",
		exts: []string{".doc", ".dot"},
		tools: []Tool{
			{Bin: "antiword", Args: func(p string) []string { return []string{"-w", "0", p} }},
			{Bin: "catdoc", Args: func(p string) []string { return []string{"-w", p} }},
		},
		install: "antiword or catdoc (brew install antiword / apt install antiword catdoc)",
		runner:  runner,
	}
}

// NewXLS creates the Excel 97-2003 extractor.
func NewXLS(runner driven.CommandRunner) *Extractor {
	return &Extractor{
		name: "xls",
		exts: []string{".xls", ".xlt"},
		tools: []Tool{
			{Bin: "xls2csv", Args: func(p string) []string { return []string{"-q0", p} }},
		},
		install: "xls2csv (apt install catdoc)",
		runner:  runner,
	}
}

// NewPPT creates the PowerPoint 97-2003 extractor.
func NewPPT(runner driven.CommandRunner) *Extractor {
	return &Extractor{
		name: "ppt",
		exts: []string{".ppt", ".pps"},
		tools: []Tool{
			{Bin: "catppt", Args: func(p string) []string { return []string{p} }},
		},
		install: "catppt (apt install catdoc)",
		runner:  runner,
	}
}

// Name identifies the extractor.
func (e *Extractor) Name() string {
	return e.name
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return e.exts
}

// Available reports whether at least one decoder is installed.
func (e *Extractor) Available() error {
	if len(e.installed()) > 0 {
		return nil
	}
	return fmt.Errorf("%w: %s requires %s", domain.ErrExtractorUnavailable, e.name, e.install)
}

func (e *Extractor) installed() []Tool {
	var out []Tool
	for _, t := range e.tools {
		if _, err := e.runner.LookPath(t.Bin); err == nil {
			out = append(out, t)
		}
	}
	return out
}

// Extract runs the installed decoders in order until one yields text.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawFile) (*domain.Extraction, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	tools := e.installed()
	if len(tools) == 0 {
		return nil, e.Available()
	}

	path, cleanup, err := textutil.Materialise(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}
	defer cleanup()

	var errs []error
	for _, tool := range tools {
		out, err := e.runner.Run(ctx, tool.Bin, tool.Args(path)...)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tool.Bin, err))
			continue
		}
		text := textutil.CollapseLines(strings.ReplaceAll(textutil.DecodeText(out), "\f", "\n"))
		if text != "" {
			return &domain.Extraction{Text: text}, nil
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, errors.Join(errs...))
	}
	return &domain.Extraction{}, nil
}
