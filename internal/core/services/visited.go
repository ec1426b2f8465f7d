package services

import (
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

const visitedShards = 32

// VisitedSet records canonical directory paths that were already expanded.
// It is sharded by path hash to keep lock contention low.
type VisitedSet struct {
	shards [visitedShards]visitedShard
}

type visitedShard struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

// NewVisitedSet creates an empty set.
func NewVisitedSet() *VisitedSet {
	v := &VisitedSet{}
	for i := range v.shards {
		v.shards[i].paths = make(map[string]struct{})
	}
	return v
}

// Canonical resolves symlinks and cleans path. If resolution fails the
// cleaned path is used as is.
func Canonical(path string) string {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}
	if abs, err := filepath.Abs(resolved); err == nil {
		resolved = abs
	}
	resolved = filepath.Clean(resolved)
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		resolved = strings.ToLower(resolved)
	}
	return resolved
}

// Add inserts a canonical path. It returns false if the path was already present.
func (v *VisitedSet) Add(canonical string) bool {
	s := v.shard(canonical)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.paths[canonical]; seen {
		return false
	}
	s.paths[canonical] = struct{}{}
	return true
}

// Len returns the number of paths in the set.
func (v *VisitedSet) Len() int {
	n := 0
	for i := range v.shards {
		s := &v.shards[i]
		s.mu.Lock()
		n += len(s.paths)
		s.mu.Unlock()
	}
	return n
}

func (v *VisitedSet) shard(path string) *visitedShard {
	return &v.shards[xxhash.Sum64String(path)%visitedShards]
}
