package audit

import (
	"sync"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driven"
)

var (
	_ driven.AuditLog = (*MemoryLog)(nil)
	_ driven.AuditLog = Discard{}
)

// MemoryLog keeps entries in memory.
type MemoryLog struct {
	mu      sync.Mutex
	entries []domain.SkipEntry
}

// NewMemoryLog creates an empty in-memory audit log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Record appends entry.
func (l *MemoryLog) Record(entry domain.SkipEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

// Close is a no-op.
func (l *MemoryLog) Close() error {
	return nil
}

// Entries returns a copy of the recorded entries.
func (l *MemoryLog) Entries() []domain.SkipEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.SkipEntry(nil), l.entries...)
}

// Counts returns the number of entries per category.
func (l *MemoryLog) Counts() map[domain.SkipCategory]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	counts := make(map[domain.SkipCategory]int)
	for _, e := range l.entries {
		counts[e.Category]++
	}
	return counts
}

// Discard drops every entry.
type Discard struct{}

// Record does nothing.
func (Discard) Record(domain.SkipEntry) {}

// Close does nothing.
func (Discard) Close() error { return nil }
