package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driven"
)

// --- Mock implementations for engine testing ---

// mockAuditLog implements driven.AuditLog for testing.
type mockAuditLog struct {
	mu      sync.Mutex
	entries []domain.SkipEntry
}

func (m *mockAuditLog) Record(entry domain.SkipEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
}

func (m *mockAuditLog) Close() error {
	return nil
}

func (m *mockAuditLog) byCategory(category domain.SkipCategory) []domain.SkipEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SkipEntry
	for _, e := range m.entries {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// mockExtractor implements driven.ContentExtractor for testing.
// Files listed in texts return that extraction; files listed in hang block
// until release is closed.
type mockExtractor struct {
	mu      sync.Mutex
	texts   map[string]domain.Extraction
	hang    map[string]bool
	release chan struct{}
	once    sync.Once
	calls   atomic.Int64
	delay   time.Duration
}

func newMockExtractor() *mockExtractor {
	return &mockExtractor{
		texts:   make(map[string]domain.Extraction),
		hang:    make(map[string]bool),
		release: make(chan struct{}),
	}
}

// hangOn makes extraction of name block until the test ends.
func (m *mockExtractor) hangOn(t *testing.T, name string) {
	t.Helper()
	m.mu.Lock()
	m.hang[name] = true
	m.mu.Unlock()
	t.Cleanup(func() { m.once.Do(func() { close(m.release) }) })
}

func (m *mockExtractor) set(name string, ex domain.Extraction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts[name] = ex
}

func (m *mockExtractor) Extract(_ context.Context, path string, _ int64) domain.Extraction {
	m.calls.Add(1)
	name := filepath.Base(path)

	m.mu.Lock()
	hang := m.hang[name]
	ex, ok := m.texts[name]
	m.mu.Unlock()

	if hang {
		<-m.release
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if ok {
		return ex
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Extraction{}
	}
	return domain.Extraction{Text: string(data)}
}

func (m *mockExtractor) ExtractBytes(_ context.Context, _ string, _ []byte, _ int) domain.Extraction {
	return domain.Extraction{}
}

func (m *mockExtractor) Supports(string) bool {
	return true
}

var (
	_ driven.AuditLog         = (*mockAuditLog)(nil)
	_ driven.ContentExtractor = (*mockExtractor)(nil)
)

// writeTree creates files under root. Keys are slash-separated relative
// paths, values the file contents.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}
