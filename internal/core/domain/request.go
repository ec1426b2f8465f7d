package domain

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Worker and size defaults applied by WithDefaults.
const (
	// MaxWorkers is the hard cap on concurrent workers.
	MaxWorkers = 32

	// DefaultMaxFileSize bounds content extraction per file (50 MiB).
	DefaultMaxFileSize int64 = 50 << 20

	// DefaultExtractTimeout is the base per-file extraction budget.
	DefaultExtractTimeout = 20 * time.Second
)

// SearchRequest describes one search run.
// The engine copies it at Start; later changes by the caller have no effect.
type SearchRequest struct {
	// Root is the directory the search starts from.
	Root string

	// Keywords are OR-ed together when matching.
	Keywords []string

	// Flags toggle what is searched and how.
	Flags SearchFlags

	// Filters are the advanced filters applied before content analysis.
	Filters Filters

	// ExcludedPaths are case-insensitive path prefixes or doublestar globs.
	ExcludedPaths []string

	// MaxDepth limits traversal below Root. Zero means unlimited.
	MaxDepth int

	// Limits are the resource ceilings of the run.
	Limits Limits
}

// SearchFlags toggle search behaviour.
type SearchFlags struct {
	// SearchFiles matches keywords against file names.
	SearchFiles bool

	// SearchFolders matches keywords against directory names.
	SearchFolders bool

	// SearchContent matches keywords against extracted file content.
	SearchContent bool

	// WholeWord requires keyword occurrences to be delimited by non-alphanumerics.
	WholeWord bool

	// IgnoreHidden skips dot-files and dot-directories.
	IgnoreHidden bool

	// ExcludeSystemExtensions skips executables, libraries and similar system files.
	ExcludeSystemExtensions bool

	// ReportPermissionErrors emits a Status event for every unreadable directory.
	ReportPermissionErrors bool
}

// Filters are user-defined constraints on candidate files.
type Filters struct {
	// MinSize is the smallest accepted file size in bytes.
	MinSize int64

	// MaxSize is the largest accepted file size in bytes. Zero means unbounded.
	MaxSize int64

	// ModifiedAfter excludes files modified before this instant when set.
	ModifiedAfter time.Time

	// ModifiedBefore excludes files modified after this instant when set.
	ModifiedBefore time.Time

	// Extensions is an allow-list of extensions (".txt"). Empty allows all.
	// Entries here also override the skip policy.
	Extensions []string

	// DepthExtensions overrides Extensions for specific depths.
	DepthExtensions map[int][]string
}

// Limits are the resource ceilings of a run.
type Limits struct {
	// MaxFiles stops intake once this many files were checked. Zero means unlimited.
	MaxFiles int64

	// MaxResults stops intake once this many records were found. Zero means unlimited.
	MaxResults int

	// MaxFileSize bounds content extraction per file.
	MaxFileSize int64

	// Workers is the worker pool size (capped at MaxWorkers).
	Workers int

	// Timeout is the optional wall-clock budget of the whole run.
	Timeout time.Duration

	// ExtractTimeout is the base per-file extraction budget.
	ExtractTimeout time.Duration
}

// DefaultWorkers returns min(NumCPU, MaxWorkers).
func DefaultWorkers() int {
	n := runtime.NumCPU()
	if n > MaxWorkers {
		n = MaxWorkers
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Validate checks the fields that make a request unusable.
// It does not touch the filesystem.
func (r SearchRequest) Validate() error {
	if strings.TrimSpace(r.Root) == "" {
		return fmt.Errorf("%w: empty root path", ErrInvalidInput)
	}
	if len(r.CleanKeywords()) == 0 {
		return ErrNoKeywords
	}
	if r.MaxDepth < 0 {
		return fmt.Errorf("%w: negative max depth", ErrInvalidInput)
	}
	if r.Filters.MaxSize > 0 && r.Filters.MinSize > r.Filters.MaxSize {
		return fmt.Errorf("%w: min size exceeds max size", ErrInvalidInput)
	}
	return nil
}

// CleanKeywords returns the non-blank keywords, trimmed.
func (r SearchRequest) CleanKeywords() []string {
	out := make([]string, 0, len(r.Keywords))
	for _, k := range r.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// WithDefaults returns a normalised deep copy of the request.
func (r SearchRequest) WithDefaults() SearchRequest {
	out := r
	out.Root = filepath.Clean(r.Root)
	out.Keywords = r.CleanKeywords()
	out.ExcludedPaths = append([]string(nil), r.ExcludedPaths...)
	out.Filters.Extensions = NormaliseExtensions(r.Filters.Extensions)
	if r.Filters.DepthExtensions != nil {
		out.Filters.DepthExtensions = make(map[int][]string, len(r.Filters.DepthExtensions))
		for depth, exts := range r.Filters.DepthExtensions {
			out.Filters.DepthExtensions[depth] = NormaliseExtensions(exts)
		}
	}

	if !out.Flags.SearchFiles && !out.Flags.SearchFolders && !out.Flags.SearchContent {
		out.Flags.SearchFiles = true
	}
	if out.Limits.Workers <= 0 {
		out.Limits.Workers = DefaultWorkers()
	}
	if out.Limits.Workers > MaxWorkers {
		out.Limits.Workers = MaxWorkers
	}
	if out.Limits.MaxFileSize <= 0 {
		out.Limits.MaxFileSize = DefaultMaxFileSize
	}
	if out.Limits.ExtractTimeout <= 0 {
		out.Limits.ExtractTimeout = DefaultExtractTimeout
	}
	return out
}

// AllowedExtensions returns the allow-list in force at depth.
func (f Filters) AllowedExtensions(depth int) []string {
	if exts, ok := f.DepthExtensions[depth]; ok {
		return exts
	}
	return f.Extensions
}

// NormaliseExtensions lower-cases extensions and ensures a leading dot.
func NormaliseExtensions(exts []string) []string {
	if len(exts) == 0 {
		return nil
	}
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
