package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trita-a/ricerca/internal/adapters/driven/config/memory"
	"github.com/trita-a/ricerca/internal/core/domain"
)

func TestNewSettingsService(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	require.NotNil(t, service)
	assert.Equal(t, ":memory:", service.Path())
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultSettings()
	assert.Equal(t, defaults.Search, settings.Search)
	assert.Equal(t, defaults.Limits, settings.Limits)
	assert.Nil(t, settings.DepthExtensions)
	assert.Equal(t, defaults, service.GetDefaults())
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("search.whole_word", true)
	_ = store.Set("search.ignore_hidden", false)
	_ = store.Set("search.max_depth", 3)
	_ = store.Set("limits.max_files", int64(10000))
	_ = store.Set("limits.workers", 4)
	_ = store.Set("limits.timeout", "5m")
	_ = store.Set("filters.min_size", int64(1024))
	_ = store.Set("filters.modified_after", "2024-01-15")
	_ = store.Set("filters.extensions", []any{"TXT", ".md"})
	_ = store.Set("exclusions.paths", []string{"/proc"})
	_ = store.Set("extensions.depth.0", []string{"docx"})

	service := NewSettingsService(store)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.True(t, settings.Search.WholeWord)
	assert.False(t, settings.Search.IgnoreHidden)
	assert.True(t, settings.Search.ExcludeSystemExtensions)
	assert.Equal(t, 3, settings.Search.MaxDepth)
	assert.Equal(t, int64(10000), settings.Limits.MaxFiles)
	assert.Equal(t, 4, settings.Limits.Workers)
	assert.Equal(t, 5*time.Minute, settings.Limits.Timeout)
	assert.Equal(t, domain.DefaultExtractTimeout, settings.Limits.ExtractTimeout)
	assert.Equal(t, int64(1024), settings.Filters.MinSize)
	assert.Equal(t, 2024, settings.Filters.ModifiedAfter.Year())
	assert.Equal(t, []string{".txt", ".md"}, settings.Filters.Extensions)
	assert.Equal(t, []string{"/proc"}, settings.ExcludedPaths)
	assert.Equal(t, map[int][]string{0: {".docx"}}, settings.DepthExtensions)
}

func TestSettingsService_Get_InvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
	}{
		{"bad depth key", map[string]any{"extensions.depth.deep": []string{".txt"}}},
		{"negative depth key", map[string]any{"extensions.depth.-1": []string{".txt"}}},
		{"min above max", map[string]any{"filters.min_size": int64(10), "filters.max_size": int64(5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			for k, v := range tt.values {
				_ = store.Set(k, v)
			}

			_, err := NewSettingsService(store).Get()

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	settings := domain.DefaultSettings()
	settings.Search.WholeWord = true
	settings.Search.ReportPermissionErrors = true
	settings.Limits.MaxResults = 250
	settings.Limits.Timeout = 90 * time.Second
	settings.Filters.MaxSize = 1 << 20
	settings.Filters.ModifiedBefore = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	settings.Filters.Extensions = []string{".txt"}
	settings.ExcludedPaths = []string{"/tmp/cache"}
	settings.DepthExtensions = map[int][]string{2: {".pdf"}}

	require.NoError(t, service.Save(settings))

	assert.Equal(t, "1m30s", store.GetString("limits.timeout"))
	assert.Equal(t, "2024-06-01T00:00:00Z", store.GetString("filters.modified_before"))
	_, hasAfter := store.Get("filters.modified_after")
	assert.False(t, hasAfter)

	loaded, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings.Search, loaded.Search)
	assert.Equal(t, settings.Limits, loaded.Limits)
	assert.True(t, settings.Filters.ModifiedBefore.Equal(loaded.Filters.ModifiedBefore))
	assert.Equal(t, settings.Filters.Extensions, loaded.Filters.Extensions)
	assert.Equal(t, settings.ExcludedPaths, loaded.ExcludedPaths)
	assert.Equal(t, settings.DepthExtensions, loaded.DepthExtensions)
}

func TestSettingsService_SaveEmptyLists(t *testing.T) {
	store := memory.NewConfigStore()

	require.NoError(t, NewSettingsService(store).Save(domain.DefaultSettings()))

	val, ok := store.Get("exclusions.paths")
	require.True(t, ok)
	assert.Equal(t, []string{}, val)
}
