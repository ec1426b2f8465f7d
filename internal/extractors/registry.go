package extractors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/edsrzf/mmap-go"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driven"
	"github.com/trita-a/ricerca/internal/extractors/textutil"
	"github.com/trita-a/ricerca/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ContentExtractor = (*Registry)(nil)

// mmapThreshold is the size from which files are memory-mapped instead of read.
const mmapThreshold = 1 << 20

// Availability is implemented by extractors that depend on optional
// external tools. A non-nil error registers the extractor as absent.
type Availability interface {
	Available() error
}

// Registry maps file extensions to extractors.
// It is safe for concurrent use once populated.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]driven.Extractor
	absent     map[string]string
	fallback   driven.Extractor
	limits     domain.ExtractLimits
}

// NewRegistry creates an empty registry with the given caps.
// Zero caps take their defaults.
func NewRegistry(limits domain.ExtractLimits) *Registry {
	def := domain.DefaultExtractLimits()
	if limits.MaxBytes <= 0 {
		limits.MaxBytes = def.MaxBytes
	}
	if limits.MaxRows <= 0 {
		limits.MaxRows = def.MaxRows
	}
	if limits.MaxSlides <= 0 {
		limits.MaxSlides = def.MaxSlides
	}
	if limits.MaxPages <= 0 {
		limits.MaxPages = def.MaxPages
	}
	if limits.MaxRecords <= 0 {
		limits.MaxRecords = def.MaxRecords
	}
	if limits.MaxEmailDepth <= 0 {
		limits.MaxEmailDepth = def.MaxEmailDepth
	}
	return &Registry{
		extractors: make(map[string]driven.Extractor),
		absent:     make(map[string]string),
		limits:     limits,
	}
}

// Register adds an extractor for all of its extensions. Extractors whose
// Available check fails are recorded as absent instead.
// Later registrations replace earlier ones for the same extension.
func (r *Registry) Register(e driven.Extractor) {
	if a, ok := e.(Availability); ok {
		if err := a.Available(); err != nil {
			r.RegisterAbsent(err.Error(), e.Extensions()...)
			logger.Debug("Extractor %s unavailable: %v", e.Name(), err)
			return
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range e.Extensions() {
		r.extractors[ext] = e
		delete(r.absent, ext)
	}
}

// RegisterAbsent records extensions whose decoder is not available.
func (r *Registry) RegisterAbsent(reason string, exts ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range exts {
		if _, present := r.extractors[ext]; present {
			continue
		}
		r.absent[ext] = reason
	}
}

// SetFallback sets the extractor used for unknown extensions whose
// content sniffs as text.
func (r *Registry) SetFallback(e driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = e
}

// Lookup returns the extractor registered for ext.
func (r *Registry) Lookup(ext string) (driven.Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.extractors[ext]
	return e, ok
}

// Absent returns the reason an extension's decoder is unavailable.
func (r *Registry) Absent(ext string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reason, ok := r.absent[ext]
	return reason, ok
}

// Supports reports whether an extractor is registered and present for ext.
func (r *Registry) Supports(ext string) bool {
	_, ok := r.Lookup(ext)
	return ok
}

// Extensions returns all supported extensions, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Limits returns the extraction caps.
func (r *Registry) Limits() domain.ExtractLimits {
	return r.limits
}

// Extract reads at most maxBytes of the file at path and returns its text.
// A maxBytes of zero uses the registry's MaxBytes.
// Failures are logged and yield an empty Extraction.
func (r *Registry) Extract(ctx context.Context, path string, maxBytes int64) domain.Extraction {
	name := filepath.Base(path)
	ext := textutil.Ext(name)

	e, ok := r.Lookup(ext)
	if !ok {
		if reason, absent := r.Absent(ext); absent {
			logger.Debug("No decoder for %s: %s", path, reason)
			return domain.Extraction{}
		}
		r.mu.RLock()
		e = r.fallback
		r.mu.RUnlock()
		if e == nil {
			return domain.Extraction{}
		}
	}

	if maxBytes <= 0 {
		maxBytes = r.limits.MaxBytes
	}
	content, release, err := r.load(path, maxBytes)
	if err != nil {
		logger.Debug("Failed to read %s: %v", path, err)
		return domain.Extraction{}
	}
	defer release()

	if !ok && !textutil.LooksText(content) {
		return domain.Extraction{}
	}

	return r.run(ctx, e, &domain.RawFile{Name: name, Path: path, Content: content})
}

// ExtractBytes routes in-memory content through the registry.
// Content nested deeper than MaxEmailDepth is ignored.
func (r *Registry) ExtractBytes(ctx context.Context, name string, data []byte, depth int) domain.Extraction {
	if depth > r.limits.MaxEmailDepth {
		logger.Debug("Skipping nested attachment %s at depth %d", name, depth)
		return domain.Extraction{}
	}
	if int64(len(data)) > r.limits.MaxBytes {
		data = data[:r.limits.MaxBytes]
	}

	e, ok := r.Lookup(textutil.Ext(name))
	if !ok {
		r.mu.RLock()
		e = r.fallback
		r.mu.RUnlock()
		if e == nil || !textutil.LooksText(data) {
			return domain.Extraction{}
		}
	}
	return r.run(ctx, e, &domain.RawFile{Name: name, Content: data, Depth: depth})
}

// run invokes one extractor, converting errors and panics into an empty result.
func (r *Registry) run(ctx context.Context, e driven.Extractor, raw *domain.RawFile) (out domain.Extraction) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Extractor %s panicked on %s: %v", e.Name(), raw.Name, rec)
			out = domain.Extraction{}
		}
	}()

	if err := ctx.Err(); err != nil {
		return domain.Extraction{}
	}

	res, err := e.Extract(ctx, raw)
	switch {
	case err == nil && res != nil:
		return *res
	case err == nil:
		return domain.Extraction{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Debug("Extraction of %s cancelled", raw.Name)
	case errors.Is(err, domain.ErrExtractorUnavailable):
		logger.Debug("Extractor %s unavailable for %s: %v", e.Name(), raw.Name, err)
	default:
		logger.Warn("Extractor %s failed on %s: %v", e.Name(), raw.Name, err)
	}
	// Partial text is still useful for matching.
	if res != nil {
		return *res
	}
	return domain.Extraction{}
}

// load reads up to maxBytes of path. Large files are memory-mapped;
// the returned release unmaps them.
func (r *Registry) load(path string, maxBytes int64) ([]byte, func(), error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrPermission) {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrPermissionDenied, err)
	}
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	if info.Size() > maxBytes {
		return nil, nil, fmt.Errorf("%w: %d bytes exceeds %d", domain.ErrResourceLimit, info.Size(), maxBytes)
	}

	if info.Size() >= mmapThreshold {
		m, err := mmap.Map(f, mmap.RDONLY, 0)
		if err == nil {
			return m, func() {
				if err := m.Unmap(); err != nil {
					logger.Debug("Failed to unmap %s: %v", path, err)
				}
			}, nil
		}
		logger.Debug("mmap failed for %s, reading instead: %v", path, err)
	}

	data, err := io.ReadAll(io.LimitReader(f, maxBytes))
	if err != nil {
		return nil, nil, err
	}
	return data, func() {}, nil
}
