package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driven"
	"github.com/trita-a/ricerca/internal/logger"
)

// listedEntry is one directory child as seen by the listing unit.
// Symlinks are resolved there so the orchestrator never touches the disk.
type listedEntry struct {
	name  string
	path  string
	isDir bool

	// Set for directories only.
	canonical string
	info      fs.FileInfo
}

type listing struct {
	canonical string
	entries   []listedEntry
	err       error
}

// BlockScheduler walks the tree block by block in priority order and
// feeds eligible files to the worker pool.
type BlockScheduler struct {
	req        domain.SearchRequest
	classifier *Classifier
	matcher    *Matcher
	guard      *TimeoutGuard
	queue      *BlockQueue
	visited    *VisitedSet
	adaptive   *AdaptiveCap
	pool       *WorkerPool
	counters   *runCounters
	results    *ResultAggregator
	events     *ProgressChannel
	audit      driven.AuditLog
	extractor  driven.ContentExtractor
	account    string

	limitHit atomic.Bool
}

func newBlockScheduler(
	req domain.SearchRequest,
	pool *WorkerPool,
	counters *runCounters,
	results *ResultAggregator,
	events *ProgressChannel,
	extractor driven.ContentExtractor,
	audit driven.AuditLog,
) *BlockScheduler {
	return &BlockScheduler{
		req:        req,
		classifier: NewClassifier(req),
		matcher:    NewMatcher(req.Keywords, req.Flags.WholeWord),
		guard:      NewTimeoutGuard(req.Limits.ExtractTimeout),
		queue:      NewBlockQueue(),
		visited:    NewVisitedSet(),
		adaptive:   NewAdaptiveCap(time.Now()),
		pool:       pool,
		counters:   counters,
		results:    results,
		events:     events,
		audit:      audit,
		extractor:  extractor,
		account:    currentAccount(),
	}
}

// LimitReached reports whether a file or result ceiling stopped intake.
func (s *BlockScheduler) LimitReached() bool {
	return s.limitHit.Load()
}

// Pending returns the number of queued blocks.
func (s *BlockScheduler) Pending() int {
	return s.queue.Len()
}

// Seed expands the root block, which enqueues its child directories.
func (s *BlockScheduler) Seed(ctx context.Context, root string) {
	s.Expand(ctx, domain.Block{Path: root, Depth: 0, Priority: s.classifier.Priority(root)})
}

// Next dequeues the lowest-priority block within the depth limit.
func (s *BlockScheduler) Next() (domain.Block, bool) {
	for {
		b, ok := s.queue.Pop()
		if !ok {
			return domain.Block{}, false
		}
		if s.withinDepth(b.Depth) {
			return b, true
		}
	}
}

func (s *BlockScheduler) withinDepth(depth int) bool {
	return s.req.MaxDepth <= 0 || depth <= s.req.MaxDepth
}

// Expand lists one block, enqueues its unvisited subdirectories and submits
// its eligible files to the pool.
func (s *BlockScheduler) Expand(ctx context.Context, block domain.Block) {
	if s.stopped(ctx) {
		return
	}
	s.counters.dirsChecked.Add(1)
	s.counters.beat(time.Now())

	res, ok := RunWithTimeout(ctx, func(context.Context) listing {
		return list(block.Path)
	}, s.guard.ListBudget(block.Path))
	if !ok {
		if ctx.Err() == nil {
			logger.Warn("Listing %s timed out", block.Path)
			s.skip(domain.SkipTimeout, block.Path, "directory listing timed out")
		}
		return
	}
	if res.err != nil {
		if errors.Is(res.err, fs.ErrPermission) {
			s.permissionDenied(block.Path, res.err)
		} else {
			logger.Debug("Failed to list %s: %v", block.Path, res.err)
		}
		if len(res.entries) == 0 {
			return
		}
	}
	// Marks the root; every other block was added when it was enqueued.
	s.visited.Add(res.canonical)

	var files []listedEntry
	for _, entry := range res.entries {
		if s.classifier.IsHidden(entry.name) {
			s.skip(domain.SkipHidden, entry.path, "hidden entry")
			continue
		}
		if s.classifier.IsExcluded(entry.path) {
			s.skip(domain.SkipExcluded, entry.path, "matches excluded path")
			continue
		}
		if entry.isDir {
			s.enqueueChild(block, entry)
			continue
		}
		if category, reason, skip := s.classifier.SkipFile(entry.path); skip {
			s.skip(category, entry.path, reason)
			continue
		}
		files = append(files, entry)
	}

	s.submitFiles(ctx, block, files)
	s.counters.beat(time.Now())
}

// enqueueChild handles one subdirectory of block.
func (s *BlockScheduler) enqueueChild(parent domain.Block, entry listedEntry) {
	if s.classifier.IsProblematicDir(entry.name) {
		s.skip(domain.SkipProblematic, entry.path, "system managed directory")
		return
	}
	child := parent.Child(entry.path, s.classifier.Priority(entry.path))
	if !s.withinDepth(child.Depth) {
		return
	}
	if !s.visited.Add(entry.canonical) {
		logger.Debug("Already visited %s", entry.path)
		return
	}

	if s.req.Flags.SearchFolders && entry.info != nil && s.matcher.Match(entry.name) {
		s.record(s.pool.Generation(), newRecord(entry.path, entry.info, domain.KindDirectory, domain.OriginDirect))
	}
	s.queue.Push(child)
}

// submitFiles hands files to the pool in chunks of the adaptive cap,
// checking the stop conditions between chunks.
func (s *BlockScheduler) submitFiles(ctx context.Context, block domain.Block, files []listedEntry) {
	if !s.req.Flags.SearchFiles && !s.req.Flags.SearchContent {
		return
	}
	for start := 0; start < len(files); {
		if s.stopped(ctx) {
			return
		}
		end := start + s.adaptive.Value()
		if end > len(files) {
			end = len(files)
		}
		for _, entry := range files[start:end] {
			if !s.admit() {
				return
			}
			path, depth := entry.path, block.Depth
			if _, err := s.pool.Submit(func(taskCtx context.Context, gen uint64) {
				s.analyse(taskCtx, gen, path, depth)
			}); err != nil {
				logger.Debug("Failed to submit %s: %v", path, err)
				return
			}
		}
		start = end
		s.emitProgress()
	}
}

// admit counts one file against MaxFiles. Once the count exceeds the
// ceiling, intake stops for the rest of the run.
func (s *BlockScheduler) admit() bool {
	if s.limitHit.Load() {
		return false
	}
	n := s.counters.filesChecked.Add(1)
	if ceiling := s.req.Limits.MaxFiles; ceiling > 0 && n > ceiling {
		s.counters.filesChecked.Add(-1)
		s.reachLimit(fmt.Sprintf("file limit of %d reached", ceiling))
		return false
	}
	return true
}

func (s *BlockScheduler) reachLimit(reason string) {
	if s.limitHit.CompareAndSwap(false, true) {
		logger.Info("Stopping intake: %s", reason)
	}
}

func (s *BlockScheduler) stopped(ctx context.Context) bool {
	return ctx.Err() != nil || s.limitHit.Load()
}

// emitProgress publishes a completion estimate and the bytes examined.
func (s *BlockScheduler) emitProgress() {
	done := s.counters.dirsChecked.Load()
	total := done + int64(s.Pending())
	if total > 0 {
		s.events.Emit(domain.ProgressPercentEvent(int(done * 100 / total)))
	}
	s.events.Emit(domain.SizeEvent(s.counters.bytesChecked.Load()))
}

// skip writes an audit entry.
func (s *BlockScheduler) skip(category domain.SkipCategory, path, reason string) {
	s.audit.Record(domain.SkipEntry{
		At:       time.Now(),
		Category: category,
		Name:     filepath.Base(path),
		Path:     path,
		Reason:   reason,
	})
}

// permissionDenied absorbs an unreadable directory. It is always audited
// and reported as a Status event only when requested.
func (s *BlockScheduler) permissionDenied(path string, err error) {
	logger.Debug("Permission denied: %s: %v", path, err)
	owner, foreign := foreignUserFolder(path, s.account)
	reason := "permission denied"
	if foreign {
		reason = "folder of another user (" + owner + ")"
	}
	s.skip(domain.SkipPermission, path, reason)

	if !s.req.Flags.ReportPermissionErrors {
		return
	}
	if foreign {
		s.events.Emit(domain.StatusEvent(fmt.Sprintf("Skipped %s: belongs to user %s", path, owner)))
		return
	}
	s.events.Emit(domain.StatusEvent(fmt.Sprintf("Skipped %s: access denied", path)))
}

// list reads a directory, resolves symlinked entries and canonicalises
// and stats subdirectories. It runs inside a guarded unit.
func list(dir string) listing {
	dirEntries, err := os.ReadDir(dir)
	out := listing{
		canonical: Canonical(dir),
		err:       err,
		entries:   make([]listedEntry, 0, len(dirEntries)),
	}
	for _, de := range dirEntries {
		entry := listedEntry{
			name:  de.Name(),
			path:  filepath.Join(dir, de.Name()),
			isDir: de.IsDir(),
		}
		if de.Type()&fs.ModeSymlink != 0 {
			info, statErr := os.Stat(entry.path)
			if statErr != nil {
				logger.Debug("Dangling symlink %s: %v", entry.path, statErr)
				continue
			}
			entry.isDir = info.IsDir()
			entry.info = info
		}
		if entry.isDir {
			entry.canonical = Canonical(entry.path)
			if entry.info == nil {
				if info, infoErr := de.Info(); infoErr == nil {
					entry.info = info
				}
			}
		}
		out.entries = append(out.entries, entry)
	}
	return out
}
