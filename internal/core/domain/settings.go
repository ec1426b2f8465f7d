package domain

import "time"

// Settings holds persisted search configuration.
// It is loaded by the settings collaborator and merged into a request;
// the engine itself never reads it.
type Settings struct {
	// Search holds default search flags.
	Search SearchSettings

	// Limits holds performance knobs.
	Limits LimitSettings

	// Filters holds default advanced filters.
	Filters FilterSettings

	// ExcludedPaths are always excluded from traversal.
	ExcludedPaths []string

	// DepthExtensions are per-depth extension allow-lists.
	DepthExtensions map[int][]string
}

// SearchSettings holds search behaviour configuration.
type SearchSettings struct {
	WholeWord               bool
	IgnoreHidden            bool
	ExcludeSystemExtensions bool
	ReportPermissionErrors  bool
	SearchContent           bool
	MaxDepth                int
}

// LimitSettings holds performance configuration.
type LimitSettings struct {
	MaxFiles       int64
	MaxResults     int
	MaxFileSize    int64
	Workers        int
	Timeout        time.Duration
	ExtractTimeout time.Duration
}

// FilterSettings holds default filter configuration.
type FilterSettings struct {
	MinSize        int64
	MaxSize        int64
	ModifiedAfter  time.Time
	ModifiedBefore time.Time
	Extensions     []string
}

// DefaultSettings returns the settings used when no configuration exists.
func DefaultSettings() Settings {
	return Settings{
		Search: SearchSettings{
			IgnoreHidden:            true,
			ExcludeSystemExtensions: true,
		},
		Limits: LimitSettings{
			MaxFileSize:    DefaultMaxFileSize,
			Workers:        DefaultWorkers(),
			ExtractTimeout: DefaultExtractTimeout,
		},
	}
}

// Apply fills unset fields of req from the settings.
// Fields already set on the request win; boolean flags are OR-ed.
func (s Settings) Apply(req SearchRequest) SearchRequest {
	out := req

	out.Flags.WholeWord = out.Flags.WholeWord || s.Search.WholeWord
	out.Flags.IgnoreHidden = out.Flags.IgnoreHidden || s.Search.IgnoreHidden
	out.Flags.ExcludeSystemExtensions = out.Flags.ExcludeSystemExtensions || s.Search.ExcludeSystemExtensions
	out.Flags.ReportPermissionErrors = out.Flags.ReportPermissionErrors || s.Search.ReportPermissionErrors
	out.Flags.SearchContent = out.Flags.SearchContent || s.Search.SearchContent
	if out.MaxDepth == 0 {
		out.MaxDepth = s.Search.MaxDepth
	}

	if out.Limits.MaxFiles == 0 {
		out.Limits.MaxFiles = s.Limits.MaxFiles
	}
	if out.Limits.MaxResults == 0 {
		out.Limits.MaxResults = s.Limits.MaxResults
	}
	if out.Limits.MaxFileSize == 0 {
		out.Limits.MaxFileSize = s.Limits.MaxFileSize
	}
	if out.Limits.Workers == 0 {
		out.Limits.Workers = s.Limits.Workers
	}
	if out.Limits.Timeout == 0 {
		out.Limits.Timeout = s.Limits.Timeout
	}
	if out.Limits.ExtractTimeout == 0 {
		out.Limits.ExtractTimeout = s.Limits.ExtractTimeout
	}

	if out.Filters.MinSize == 0 {
		out.Filters.MinSize = s.Filters.MinSize
	}
	if out.Filters.MaxSize == 0 {
		out.Filters.MaxSize = s.Filters.MaxSize
	}
	if out.Filters.ModifiedAfter.IsZero() {
		out.Filters.ModifiedAfter = s.Filters.ModifiedAfter
	}
	if out.Filters.ModifiedBefore.IsZero() {
		out.Filters.ModifiedBefore = s.Filters.ModifiedBefore
	}
	if len(out.Filters.Extensions) == 0 {
		out.Filters.Extensions = append([]string(nil), s.Filters.Extensions...)
	}
	if out.Filters.DepthExtensions == nil && len(s.DepthExtensions) > 0 {
		out.Filters.DepthExtensions = make(map[int][]string, len(s.DepthExtensions))
		for depth, exts := range s.DepthExtensions {
			out.Filters.DepthExtensions[depth] = append([]string(nil), exts...)
		}
	}

	out.ExcludedPaths = append(append([]string(nil), req.ExcludedPaths...), s.ExcludedPaths...)
	return out
}
