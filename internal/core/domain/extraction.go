package domain

// Default caps applied by content extractors.
const (
	DefaultMaxRows       = 1000
	DefaultMaxSlides     = 200
	DefaultMaxPages      = 50
	DefaultMaxRecords    = 1000
	DefaultMaxEmailDepth = 2
)

// Extraction is the text pulled out of one document.
type Extraction struct {
	// Text is the document's own content.
	Text string

	// AttachmentText is content found in email attachments.
	AttachmentText string
}

// Empty reports whether nothing was extracted.
func (e Extraction) Empty() bool {
	return e.Text == "" && e.AttachmentText == ""
}

// RawFile is the input handed to an extractor.
type RawFile struct {
	// Name is the file name; its extension selects the extractor.
	Name string

	// Path is the on-disk path. Empty for in-memory content such as attachments.
	Path string

	// Content holds the bytes, bounded by ExtractLimits.MaxBytes.
	Content []byte

	// Depth is the attachment nesting level. Files on disk are depth 0.
	Depth int
}

// ExtractLimits caps the work done by a single extraction.
type ExtractLimits struct {
	// MaxBytes bounds the bytes read from one file.
	MaxBytes int64

	// MaxRows bounds spreadsheet and table rows.
	MaxRows int

	// MaxSlides bounds presentation slides.
	MaxSlides int

	// MaxPages bounds PDF pages.
	MaxPages int

	// MaxRecords bounds database records and mailbox messages.
	MaxRecords int

	// MaxEmailDepth bounds attachment recursion.
	MaxEmailDepth int
}

// DefaultExtractLimits returns the standard caps.
func DefaultExtractLimits() ExtractLimits {
	return ExtractLimits{
		MaxBytes:      DefaultMaxFileSize,
		MaxRows:       DefaultMaxRows,
		MaxSlides:     DefaultMaxSlides,
		MaxPages:      DefaultMaxPages,
		MaxRecords:    DefaultMaxRecords,
		MaxEmailDepth: DefaultMaxEmailDepth,
	}
}
