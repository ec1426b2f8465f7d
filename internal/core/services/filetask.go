package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/logger"
)

// analyse runs inside a worker. It stats the file, applies the filters,
// matches the name and, failing that, the extracted content.
func (s *BlockScheduler) analyse(ctx context.Context, gen uint64, path string, depth int) {
	defer func() {
		s.adaptive.Observe(1)
		s.counters.beat(time.Now())
	}()
	if ctx.Err() != nil {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			s.skip(domain.SkipPermission, path, "permission denied")
		} else {
			logger.Debug("Failed to stat %s: %v", path, err)
		}
		return
	}
	s.counters.bytesChecked.Add(info.Size())

	if category, reason, ok := s.classifier.PassesFilters(info, depth); !ok {
		s.skip(category, path, reason)
		return
	}

	name := filepath.Base(path)
	if s.req.Flags.SearchFiles && s.matcher.Match(name) {
		s.record(gen, newRecord(path, info, domain.KindFile, domain.OriginDirect))
		return
	}
	if !s.req.Flags.SearchContent {
		return
	}
	if info.Size() > s.req.Limits.MaxFileSize {
		s.skip(domain.SkipSize, path, fmt.Sprintf("%d bytes exceeds content limit", info.Size()))
		return
	}

	ext := strings.ToLower(filepath.Ext(name))
	found, ok := RunWithTimeout(ctx, func(unitCtx context.Context) domain.Extraction {
		return s.extractor.Extract(unitCtx, path, s.req.Limits.MaxFileSize)
	}, s.guard.Budget(path, ext))
	if !ok {
		if ctx.Err() == nil {
			logger.Warn("Extraction of %s timed out", path)
			s.skip(domain.SkipTimeout, path, "content extraction timed out")
		}
		return
	}

	switch {
	case s.matcher.Match(found.Text):
		s.record(gen, newRecord(path, info, domain.KindFile, domain.OriginDirect))
	case s.matcher.Match(found.AttachmentText):
		s.record(gen, newRecord(path, info, domain.KindFile, domain.OriginEmailAttachment))
	case found.Empty() && info.Size() > 0:
		// Only the name was searched.
		if s.extractor.Supports(ext) {
			s.skip(domain.SkipExtraction, path, "no text could be extracted")
		} else {
			s.skip(domain.SkipUnsupported, path, fmt.Sprintf("no extractor for %q", ext))
		}
	}
}

// record stores a hit unless it comes from an abandoned pool generation
// or the result ceiling is already reached.
func (s *BlockScheduler) record(gen uint64, rec domain.FileRecord) {
	if !s.pool.IsCurrent(gen) {
		logger.Warn("Dropping result %s from abandoned worker generation %d", rec.Path, gen)
		return
	}
	limit := s.req.Limits.MaxResults
	n, added := s.results.AppendWithin(rec, limit)
	if !added {
		return
	}
	logger.Debug("Match: %s", rec.Path)
	if limit > 0 && n >= limit {
		s.reachLimit(fmt.Sprintf("result limit of %d reached", limit))
	}
}

func newRecord(path string, info fs.FileInfo, kind domain.RecordKind, origin domain.Origin) domain.FileRecord {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	rec := domain.FileRecord{
		Kind:     kind,
		Name:     info.Name(),
		Modified: info.ModTime(),
		Created:  birthTime(path, info),
		Path:     path,
		Origin:   origin,
	}
	if kind == domain.KindFile {
		rec.Size = info.Size()
	}
	return rec
}

// currentAccount returns the login name of the running user.
func currentAccount() string {
	if u, err := user.Current(); err == nil {
		name := u.Username
		// Windows reports DOMAIN\user.
		if i := strings.LastIndex(name, `\`); i >= 0 {
			name = name[i+1:]
		}
		return strings.ToLower(name)
	}
	for _, key := range []string{"USER", "USERNAME"} {
		if v := os.Getenv(key); v != "" {
			return strings.ToLower(v)
		}
	}
	return ""
}

// foreignUserFolder reports whether path lies in the home folder of an
// account other than the current one and returns that account.
func foreignUserFolder(path, account string) (string, bool) {
	parts := strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")
	for i := 0; i+1 < len(parts); i++ {
		switch strings.ToLower(parts[i]) {
		case "home", "users":
			owner := parts[i+1]
			lower := strings.ToLower(owner)
			if owner == "" || lower == account || lower == "public" || lower == "shared" {
				return "", false
			}
			return owner, true
		}
	}
	return "", false
}
