package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trita-a/ricerca/internal/core/domain"
)

func sampleEntry() domain.SkipEntry {
	return domain.SkipEntry{
		At:       time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
		Category: domain.SkipSystem,
		Name:     "setup.exe",
		Path:     "/data/setup.exe",
		Reason:   "system extension",
	}
}

func TestFormatEntry(t *testing.T) {
	line := FormatEntry(sampleEntry())
	assert.Equal(t, "2024-05-01T12:30:00Z\tsystem\tsetup.exe\t/data/setup.exe\tsystem extension\n", line)
}

func TestFormatEntry_SanitisesFields(t *testing.T) {
	entry := sampleEntry()
	entry.Name = "odd\tname"
	entry.Reason = "line one\nline two"

	fields := strings.Split(strings.TrimSuffix(FormatEntry(entry), "\n"), "\t")

	require.Len(t, fields, 5)
	assert.Equal(t, "odd name", fields[2])
	assert.Equal(t, "line one line two", fields[4])
}

func TestFormatEntry_ZeroTime(t *testing.T) {
	entry := sampleEntry()
	entry.At = time.Time{}

	ts := strings.SplitN(FormatEntry(entry), "\t", 2)[0]
	parsed, err := time.Parse(time.RFC3339, ts)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), parsed, time.Minute)
}

func TestFileLog_AppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "skipped.log")

	log, err := OpenFileLog(path)
	require.NoError(t, err)
	assert.Equal(t, path, log.Path())
	for i := 0; i < 100; i++ {
		entry := sampleEntry()
		entry.Name = fmt.Sprintf("file-%d", i)
		log.Record(entry)
	}
	require.NoError(t, log.Close())
	require.NoError(t, log.Close())

	// A second log appends to the same file.
	log2, err := OpenFileLog(path)
	require.NoError(t, err)
	log2.Record(sampleEntry())
	require.NoError(t, log2.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 101)
	assert.Contains(t, lines[0], "\tfile-0\t")
}

func TestFileLog_RecordAfterCloseIsIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skipped.log")
	log, err := OpenFileLog(path)
	require.NoError(t, err)
	require.NoError(t, log.Close())

	log.Record(sampleEntry())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestFileLog_Concurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skipped.log")
	log, err := OpenFileLog(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				log.Record(sampleEntry())
			}
		}()
	}
	wg.Wait()
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 400, strings.Count(string(data), "\n"))
}

func TestOpenFileLog_Error(t *testing.T) {
	_, err := OpenFileLog("/dev/null/cannot/skipped.log")
	assert.Error(t, err)
}

func TestMemoryLog(t *testing.T) {
	log := NewMemoryLog()
	log.Record(sampleEntry())
	log.Record(domain.SkipEntry{Category: domain.SkipHidden, Name: ".git"})
	log.Record(domain.SkipEntry{Category: domain.SkipHidden, Name: ".cache"})

	entries := log.Entries()
	require.Len(t, entries, 3)
	entries[0].Name = "changed"
	assert.Equal(t, "setup.exe", log.Entries()[0].Name)

	assert.Equal(t, map[domain.SkipCategory]int{domain.SkipSystem: 1, domain.SkipHidden: 2}, log.Counts())
	assert.NoError(t, log.Close())
}

func TestDiscard(t *testing.T) {
	var log Discard
	log.Record(sampleEntry())
	assert.NoError(t, log.Close())
}
