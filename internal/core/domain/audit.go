package domain

import "time"

// SkipCategory classifies why a file or directory was not analysed.
type SkipCategory string

// Skip categories written to the audit log.
const (
	SkipSystem      SkipCategory = "system"
	SkipProtected   SkipCategory = "protected"
	SkipProblematic SkipCategory = "problematic"
	SkipHidden      SkipCategory = "hidden"
	SkipExcluded    SkipCategory = "excluded"
	SkipFilter      SkipCategory = "filter"
	SkipSize        SkipCategory = "size"
	SkipPermission  SkipCategory = "permission"
	SkipTimeout     SkipCategory = "timeout"
	SkipExtraction  SkipCategory = "extraction"
	SkipUnsupported SkipCategory = "unsupported"
)

// SkipEntry is one line of the audit log.
type SkipEntry struct {
	// At is when the skip happened.
	At time.Time

	// Category classifies the skip.
	Category SkipCategory

	// Name is the base name of the skipped entry.
	Name string

	// Path is the full path of the skipped entry.
	Path string

	// Reason is a short human-readable explanation.
	Reason string
}
