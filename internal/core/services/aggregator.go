package services

import (
	"sort"
	"sync"

	"github.com/trita-a/ricerca/internal/core/domain"
)

// ResultAggregator collects records from concurrent workers.
type ResultAggregator struct {
	mu      sync.Mutex
	records []domain.FileRecord
	sorted  bool
}

// NewResultAggregator creates an empty aggregator.
func NewResultAggregator() *ResultAggregator {
	return &ResultAggregator{}
}

// Append adds a record and returns the new total. Records appended after
// Sort are ignored.
func (a *ResultAggregator) Append(r domain.FileRecord) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sorted {
		return len(a.records)
	}
	a.records = append(a.records, r)
	return len(a.records)
}

// AppendWithin adds a record unless limit records are already held.
// A limit of zero means unbounded. It returns the new total and whether
// the record was added.
func (a *ResultAggregator) AppendWithin(r domain.FileRecord, limit int) (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sorted || (limit > 0 && len(a.records) >= limit) {
		return len(a.records), false
	}
	a.records = append(a.records, r)
	return len(a.records), true
}

// Len returns the number of records.
func (a *ResultAggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

// Sort orders the records by kind, name and path and freezes the set.
// Only the first call sorts.
func (a *ResultAggregator) Sort() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sorted {
		return
	}
	sort.SliceStable(a.records, func(i, j int) bool {
		return a.records[i].Less(a.records[j])
	})
	a.sorted = true
}

// Snapshot returns a copy of the records.
func (a *ResultAggregator) Snapshot() []domain.FileRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.FileRecord, len(a.records))
	copy(out, a.records)
	return out
}
