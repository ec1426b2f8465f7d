package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.True(t, s.Search.IgnoreHidden)
	assert.True(t, s.Search.ExcludeSystemExtensions)
	assert.False(t, s.Search.SearchContent)
	assert.Equal(t, DefaultMaxFileSize, s.Limits.MaxFileSize)
	assert.Equal(t, DefaultExtractTimeout, s.Limits.ExtractTimeout)
	assert.Equal(t, DefaultWorkers(), s.Limits.Workers)
}

func TestSettings_Apply_FillsUnsetFields(t *testing.T) {
	after := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := Settings{
		Search: SearchSettings{WholeWord: true, MaxDepth: 4},
		Limits: LimitSettings{MaxFiles: 100, MaxResults: 10, Workers: 2, Timeout: time.Minute},
		Filters: FilterSettings{
			MinSize:       10,
			ModifiedAfter: after,
			Extensions:    []string{".txt"},
		},
		ExcludedPaths:   []string{"/proc"},
		DepthExtensions: map[int][]string{0: {".doc"}},
	}

	req := s.Apply(SearchRequest{Root: "/data", Keywords: []string{"x"}})

	assert.True(t, req.Flags.WholeWord)
	assert.Equal(t, 4, req.MaxDepth)
	assert.Equal(t, int64(100), req.Limits.MaxFiles)
	assert.Equal(t, 10, req.Limits.MaxResults)
	assert.Equal(t, 2, req.Limits.Workers)
	assert.Equal(t, time.Minute, req.Limits.Timeout)
	assert.Equal(t, int64(10), req.Filters.MinSize)
	assert.Equal(t, after, req.Filters.ModifiedAfter)
	assert.Equal(t, []string{".txt"}, req.Filters.Extensions)
	assert.Equal(t, []string{"/proc"}, req.ExcludedPaths)
	assert.Equal(t, map[int][]string{0: {".doc"}}, req.Filters.DepthExtensions)

	// The settings must not share slices with the request.
	req.Filters.DepthExtensions[0][0] = ".changed"
	assert.Equal(t, ".doc", s.DepthExtensions[0][0])
}

func TestSettings_Apply_RequestWins(t *testing.T) {
	s := Settings{
		Search:        SearchSettings{MaxDepth: 4},
		Limits:        LimitSettings{MaxResults: 10},
		Filters:       FilterSettings{Extensions: []string{".txt"}},
		ExcludedPaths: []string{"/proc"},
	}
	req := SearchRequest{
		Root:          "/data",
		Keywords:      []string{"x"},
		MaxDepth:      1,
		Limits:        Limits{MaxResults: 3},
		Filters:       Filters{Extensions: []string{".md"}},
		ExcludedPaths: []string{"/tmp"},
	}

	out := s.Apply(req)

	assert.Equal(t, 1, out.MaxDepth)
	assert.Equal(t, 3, out.Limits.MaxResults)
	assert.Equal(t, []string{".md"}, out.Filters.Extensions)
	assert.Equal(t, []string{"/tmp", "/proc"}, out.ExcludedPaths)
	assert.Equal(t, []string{"/tmp"}, req.ExcludedPaths)
}
