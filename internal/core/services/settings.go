package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driven"
	"github.com/trita-a/ricerca/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyWholeWord        = "search.whole_word"
	keyIgnoreHidden     = "search.ignore_hidden"
	keyExcludeSystem    = "search.exclude_system_extensions"
	keyReportPermission = "search.report_permission_errors"
	keySearchContent    = "search.content"
	keyMaxDepth         = "search.max_depth"

	keyMaxFiles       = "limits.max_files"
	keyMaxResults     = "limits.max_results"
	keyMaxFileSize    = "limits.max_file_size"
	keyWorkers        = "limits.workers"
	keyTimeout        = "limits.timeout"
	keyExtractTimeout = "limits.extract_timeout"

	keyMinSize        = "filters.min_size"
	keyMaxSize        = "filters.max_size"
	keyModifiedAfter  = "filters.modified_after"
	keyModifiedBefore = "filters.modified_before"
	keyExtensions     = "filters.extensions"

	keyExcludedPaths   = "exclusions.paths"
	keyDepthExtensions = "extensions.depth"
)

// SettingsService maps persisted configuration onto domain.Settings.
// The engine never reads configuration; the CLI merges the settings into
// each request.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get reads the settings, falling back to defaults for absent keys.
func (s *SettingsService) Get() (domain.Settings, error) {
	defaults := domain.DefaultSettings()

	settings := domain.Settings{
		Search: domain.SearchSettings{
			WholeWord:               s.getBool(keyWholeWord, defaults.Search.WholeWord),
			IgnoreHidden:            s.getBool(keyIgnoreHidden, defaults.Search.IgnoreHidden),
			ExcludeSystemExtensions: s.getBool(keyExcludeSystem, defaults.Search.ExcludeSystemExtensions),
			ReportPermissionErrors:  s.getBool(keyReportPermission, defaults.Search.ReportPermissionErrors),
			SearchContent:           s.getBool(keySearchContent, defaults.Search.SearchContent),
			MaxDepth:                s.getInt(keyMaxDepth, defaults.Search.MaxDepth),
		},
		Limits: domain.LimitSettings{
			MaxFiles:       s.getInt64(keyMaxFiles, defaults.Limits.MaxFiles),
			MaxResults:     s.getInt(keyMaxResults, defaults.Limits.MaxResults),
			MaxFileSize:    s.getInt64(keyMaxFileSize, defaults.Limits.MaxFileSize),
			Workers:        s.getInt(keyWorkers, defaults.Limits.Workers),
			Timeout:        s.getDuration(keyTimeout, defaults.Limits.Timeout),
			ExtractTimeout: s.getDuration(keyExtractTimeout, defaults.Limits.ExtractTimeout),
		},
		Filters: domain.FilterSettings{
			MinSize:        s.configStore.GetInt64(keyMinSize),
			MaxSize:        s.configStore.GetInt64(keyMaxSize),
			ModifiedAfter:  s.configStore.GetTime(keyModifiedAfter),
			ModifiedBefore: s.configStore.GetTime(keyModifiedBefore),
			Extensions:     domain.NormaliseExtensions(s.configStore.GetStringSlice(keyExtensions)),
		},
		ExcludedPaths: s.configStore.GetStringSlice(keyExcludedPaths),
	}

	depthExts, err := s.depthExtensions()
	if err != nil {
		return domain.Settings{}, err
	}
	settings.DepthExtensions = depthExts

	if settings.Filters.MaxSize > 0 && settings.Filters.MinSize > settings.Filters.MaxSize {
		return domain.Settings{}, fmt.Errorf("%w: %s exceeds %s", domain.ErrInvalidInput, keyMinSize, keyMaxSize)
	}
	return settings, nil
}

// depthExtensions reads extensions.depth.<n> = [".txt", ...] entries.
func (s *SettingsService) depthExtensions() (map[int][]string, error) {
	keys := s.configStore.Keys(keyDepthExtensions + ".")
	if len(keys) == 0 {
		return nil, nil
	}
	out := make(map[int][]string, len(keys))
	for _, key := range keys {
		depth, err := strconv.Atoi(strings.TrimPrefix(key, keyDepthExtensions+"."))
		if err != nil || depth < 0 {
			return nil, fmt.Errorf("%w: bad depth key %q", domain.ErrInvalidInput, key)
		}
		out[depth] = domain.NormaliseExtensions(s.configStore.GetStringSlice(key))
	}
	return out, nil
}

// Save persists settings.
func (s *SettingsService) Save(settings domain.Settings) error {
	values := map[string]any{
		keyWholeWord:        settings.Search.WholeWord,
		keyIgnoreHidden:     settings.Search.IgnoreHidden,
		keyExcludeSystem:    settings.Search.ExcludeSystemExtensions,
		keyReportPermission: settings.Search.ReportPermissionErrors,
		keySearchContent:    settings.Search.SearchContent,
		keyMaxDepth:         settings.Search.MaxDepth,
		keyMaxFiles:         settings.Limits.MaxFiles,
		keyMaxResults:       settings.Limits.MaxResults,
		keyMaxFileSize:      settings.Limits.MaxFileSize,
		keyWorkers:          settings.Limits.Workers,
		keyTimeout:          settings.Limits.Timeout.String(),
		keyExtractTimeout:   settings.Limits.ExtractTimeout.String(),
		keyMinSize:          settings.Filters.MinSize,
		keyMaxSize:          settings.Filters.MaxSize,
		keyExtensions:       nonNil(settings.Filters.Extensions),
		keyExcludedPaths:    nonNil(settings.ExcludedPaths),
	}
	if !settings.Filters.ModifiedAfter.IsZero() {
		values[keyModifiedAfter] = settings.Filters.ModifiedAfter.Format(time.RFC3339)
	}
	if !settings.Filters.ModifiedBefore.IsZero() {
		values[keyModifiedBefore] = settings.Filters.ModifiedBefore.Format(time.RFC3339)
	}
	for depth, exts := range settings.DepthExtensions {
		values[fmt.Sprintf("%s.%d", keyDepthExtensions, depth)] = nonNil(exts)
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := s.configStore.Set(key, values[key]); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// Path returns where settings are stored.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getInt64(key string, defaultVal int64) int64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt64(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetDuration(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
