package services

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/trita-a/ricerca/internal/logger"
)

// Listing budgets for one directory.
const (
	defaultListTimeout = 30 * time.Second
	networkListTimeout = 10 * time.Second
	minBudget          = 500 * time.Millisecond
)

// slowExtensions are decoded by external tools or binary parsers that are
// prone to hanging on damaged input.
var slowExtensions = setOf(
	".doc", ".xls", ".ppt", ".pdf", ".msg", ".mdb", ".accdb", ".dbf",
	".sqlite", ".sqlite3", ".db", ".key", ".odb", ".mbox",
)

// networkPrefixes are mount points that usually hold remote filesystems.
var networkPrefixes = []string{"/mnt/", "/media/", "/volumes/", "/net/", "/smb/", "/afp/"}

// TimeoutGuard sizes the budget of isolated work units.
type TimeoutGuard struct {
	base time.Duration
	list time.Duration
}

// NewTimeoutGuard creates a guard around the per-file base budget.
func NewTimeoutGuard(base time.Duration) *TimeoutGuard {
	if base < minBudget {
		base = minBudget
	}
	return &TimeoutGuard{base: base, list: defaultListTimeout}
}

// Budget returns the extraction budget for a file. Local plain text gets
// the full base budget; slow formats and network paths get a fraction.
func (g *TimeoutGuard) Budget(path, ext string) time.Duration {
	budget := g.base
	if slowExtensions[strings.ToLower(ext)] {
		budget /= 2
	}
	if IsNetworkPath(path) {
		budget /= 2
	}
	if budget < minBudget {
		budget = minBudget
	}
	return budget
}

// ListBudget returns the budget for listing one directory.
func (g *TimeoutGuard) ListBudget(path string) time.Duration {
	if IsNetworkPath(path) && g.list > networkListTimeout {
		return networkListTimeout
	}
	return g.list
}

// IsNetworkPath reports whether path looks like a UNC share or a
// conventional network mount point.
func IsNetworkPath(path string) bool {
	if strings.HasPrefix(path, `\\`) || strings.HasPrefix(path, "//") {
		return true
	}
	if runtime.GOOS == "windows" {
		return false
	}
	p := strings.ToLower(filepath.ToSlash(path)) + "/"
	for _, prefix := range networkPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// RunWithTimeout executes fn in its own goroutine and waits at most budget
// for it. On expiry or when ctx ends it returns the zero value and false at
// once. The goroutine receives a cancelled context but is never waited for;
// it writes only into its own buffered slot.
func RunWithTimeout[T any](ctx context.Context, fn func(context.Context) T, budget time.Duration) (T, bool) {
	var zero T
	if ctx.Err() != nil {
		return zero, false
	}

	unitCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	type outcome struct {
		v  T
		ok bool
	}
	slot := make(chan outcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("Guarded unit panicked: %v", rec)
				slot <- outcome{}
			}
		}()
		slot <- outcome{v: fn(unitCtx), ok: true}
	}()

	select {
	case out := <-slot:
		return out.v, out.ok
	case <-unitCtx.Done():
		return zero, false
	}
}
