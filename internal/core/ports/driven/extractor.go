package driven

import (
	"context"

	"github.com/trita-a/ricerca/internal/core/domain"
)

// Extractor pulls searchable text out of one document format.
// Each extractor handles a fixed set of file extensions.
type Extractor interface {
	// Name identifies the extractor in logs.
	Name() string

	// Extensions returns the lower-case extensions (".docx") handled.
	Extensions() []string

	// Extract returns the text of raw. Implementations respect ctx
	// between rows, entries and parts, and wrap failures with
	// domain.ErrExtractionFailed.
	Extract(ctx context.Context, raw *domain.RawFile) (*domain.Extraction, error)
}

// ContentExtractor dispatches extraction by extension.
// It never fails: errors become an empty Extraction plus a log entry.
type ContentExtractor interface {
	// Extract reads at most maxBytes of the file at path and returns its
	// text. Zero means the extractor's own default bound.
	Extract(ctx context.Context, path string, maxBytes int64) domain.Extraction

	// ExtractBytes routes in-memory content (an attachment) through the
	// same dispatch. depth is the attachment nesting level.
	ExtractBytes(ctx context.Context, name string, data []byte, depth int) domain.Extraction

	// Supports reports whether an extractor is registered and present for ext.
	Supports(ext string) bool
}

// CommandRunner runs an external program and returns its stdout.
// Optional decoders (pdftotext, antiword, ...) use it so tests can stub them.
type CommandRunner interface {
	// Run executes name with args and returns its standard output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)

	// LookPath resolves name on PATH.
	LookPath(name string) (string, error)
}
