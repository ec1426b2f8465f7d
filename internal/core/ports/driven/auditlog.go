package driven

import "github.com/trita-a/ricerca/internal/core/domain"

// AuditLog is the append-only record of skipped files.
// The engine writes to it but never reads it back.
type AuditLog interface {
	// Record appends one entry. Implementations must be safe for
	// concurrent use and must not block on slow storage for long.
	Record(entry domain.SkipEntry)

	// Close flushes and releases the underlying storage.
	Close() error
}
