package audit

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driven"
	"github.com/trita-a/ricerca/internal/logger"
)

// Ensure FileLog implements the interface.
var _ driven.AuditLog = (*FileLog)(nil)

// flushEvery bounds how many lines sit in the buffer before a write.
const flushEvery = 64

// FileLog appends skip entries to a text file, one per line:
//
//	timestamp<TAB>category<TAB>name<TAB>path<TAB>reason
type FileLog struct {
	mu      sync.Mutex
	file    *os.File
	w       *bufio.Writer
	pending int
	failed  bool
	closed  bool
}

// OpenFileLog opens path for appending, creating it and its directory.
func OpenFileLog(path string) (*FileLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &FileLog{file: f, w: bufio.NewWriter(f)}, nil
}

// Record appends entry. Write failures are logged once and then ignored.
func (l *FileLog) Record(entry domain.SkipEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.failed {
		return
	}

	if _, err := l.w.WriteString(FormatEntry(entry)); err != nil {
		l.fail(err)
		return
	}
	l.pending++
	if l.pending >= flushEvery {
		l.pending = 0
		if err := l.w.Flush(); err != nil {
			l.fail(err)
		}
	}
}

func (l *FileLog) fail(err error) {
	l.failed = true
	logger.Warn("Audit log %s disabled: %v", l.file.Name(), err)
}

// Close flushes buffered lines and closes the file.
func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true

	flushErr := l.w.Flush()
	closeErr := l.file.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// Path returns the file being written.
func (l *FileLog) Path() string {
	return l.file.Name()
}

// FormatEntry renders entry as one audit line including the newline.
// Tabs and line breaks inside fields are replaced by spaces.
func FormatEntry(entry domain.SkipEntry) string {
	at := entry.At
	if at.IsZero() {
		at = time.Now()
	}
	fields := []string{
		at.Format(time.RFC3339),
		string(entry.Category),
		entry.Name,
		entry.Path,
		entry.Reason,
	}
	for i, f := range fields {
		fields[i] = fieldReplacer.Replace(f)
	}
	return strings.Join(fields, "\t") + "\n"
}

var fieldReplacer = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ")
