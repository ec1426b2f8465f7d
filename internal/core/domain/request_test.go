package domain

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSearchRequest_Validate(t *testing.T) {
	tests := []struct {
		name string
		req  SearchRequest
		want error
	}{
		{"valid", SearchRequest{Root: "/data", Keywords: []string{"x"}}, nil},
		{"empty root", SearchRequest{Root: "  ", Keywords: []string{"x"}}, ErrInvalidInput},
		{"no keywords", SearchRequest{Root: "/data"}, ErrNoKeywords},
		{"blank keywords", SearchRequest{Root: "/data", Keywords: []string{" ", ""}}, ErrNoKeywords},
		{"negative depth", SearchRequest{Root: "/data", Keywords: []string{"x"}, MaxDepth: -1}, ErrInvalidInput},
		{"min above max", SearchRequest{
			Root: "/data", Keywords: []string{"x"},
			Filters: Filters{MinSize: 10, MaxSize: 5},
		}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSearchRequest_WithDefaults(t *testing.T) {
	req := SearchRequest{
		Root:     "/data/../data/",
		Keywords: []string{" invoice ", ""},
		Filters: Filters{
			Extensions:      []string{"TXT", ".Md", " "},
			DepthExtensions: map[int][]string{1: {"PDF"}},
		},
		Limits: Limits{Workers: 1000},
	}

	out := req.WithDefaults()

	assert.Equal(t, filepath.Clean("/data"), out.Root)
	assert.Equal(t, []string{"invoice"}, out.Keywords)
	assert.True(t, out.Flags.SearchFiles)
	assert.Equal(t, MaxWorkers, out.Limits.Workers)
	assert.Equal(t, DefaultMaxFileSize, out.Limits.MaxFileSize)
	assert.Equal(t, DefaultExtractTimeout, out.Limits.ExtractTimeout)
	assert.Equal(t, []string{".txt", ".md"}, out.Filters.Extensions)
	assert.Equal(t, []string{".pdf"}, out.Filters.DepthExtensions[1])

	// The original is untouched.
	assert.Equal(t, []string{"TXT", ".Md", " "}, req.Filters.Extensions)
	assert.Equal(t, []string{"PDF"}, req.Filters.DepthExtensions[1])
}

func TestSearchRequest_WithDefaultsKeepsExplicitFlags(t *testing.T) {
	out := SearchRequest{
		Root:     "/data",
		Keywords: []string{"x"},
		Flags:    SearchFlags{SearchContent: true},
		Limits:   Limits{Workers: 3, ExtractTimeout: time.Second},
	}.WithDefaults()

	assert.False(t, out.Flags.SearchFiles)
	assert.Equal(t, 3, out.Limits.Workers)
	assert.Equal(t, time.Second, out.Limits.ExtractTimeout)
}

func TestFilters_AllowedExtensions(t *testing.T) {
	f := Filters{
		Extensions:      []string{".txt"},
		DepthExtensions: map[int][]string{2: {".pdf"}},
	}

	assert.Equal(t, []string{".txt"}, f.AllowedExtensions(0))
	assert.Equal(t, []string{".pdf"}, f.AllowedExtensions(2))
	assert.Nil(t, Filters{}.AllowedExtensions(1))
}

func TestDefaultWorkers(t *testing.T) {
	n := DefaultWorkers()
	assert.GreaterOrEqual(t, n, 1)
	assert.LessOrEqual(t, n, MaxWorkers)
}
