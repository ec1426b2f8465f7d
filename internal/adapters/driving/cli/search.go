package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/araddon/dateparse"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driving"
	"github.com/trita-a/ricerca/internal/logger"
)

// eventPoll is the fallback interval between drains of the progress stream.
const eventPoll = 250 * time.Millisecond

// searchOptions holds the search flags. Every default is the zero value,
// so resetting the struct resets the command.
type searchOptions struct {
	files         bool
	folders       bool
	content       bool
	wholeWord     bool
	ignoreHidden  bool
	excludeSystem bool
	reportDenied  bool

	maxDepth       int
	maxFiles       int64
	maxResults     int
	maxFileSize    int64
	workers        int
	timeout        time.Duration
	extractTimeout time.Duration

	minSize    int64
	maxSize    int64
	after      string
	before     string
	extensions []string
	exclude    []string

	noSettings bool
	noProgress bool
	jsonOut    bool
}

var searchFlags searchOptions

var searchCmd = &cobra.Command{
	Use:   "search <root> <keyword>...",
	Short: "Search a directory tree",
	Long: `Searches the tree below root for files and folders matching any keyword.

File names are matched by default. Use --content to also look inside
documents, spreadsheets, presentations, mail and archives, and --folders
to match directory names. Settings from the config file fill in any
option not given on the command line.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.BoolVar(&searchFlags.files, "files", false, "match file names (default when nothing else is selected)")
	f.BoolVar(&searchFlags.folders, "folders", false, "match folder names")
	f.BoolVarP(&searchFlags.content, "content", "c", false, "match file contents")
	f.BoolVarP(&searchFlags.wholeWord, "whole-word", "w", false, "match whole words only")
	f.BoolVar(&searchFlags.ignoreHidden, "ignore-hidden", false, "skip hidden files and folders")
	f.BoolVar(&searchFlags.excludeSystem, "exclude-system", false, "skip executables, libraries and other system files")
	f.BoolVar(&searchFlags.reportDenied, "report-denied", false, "report every folder that could not be read")

	f.IntVarP(&searchFlags.maxDepth, "max-depth", "d", 0, "maximum folder depth below root (0 = unlimited)")
	f.Int64Var(&searchFlags.maxFiles, "max-files", 0, "stop after checking this many files (0 = unlimited)")
	f.IntVarP(&searchFlags.maxResults, "max-results", "n", 0, "stop after this many results (0 = unlimited)")
	f.Int64Var(&searchFlags.maxFileSize, "max-file-size", 0, "largest file whose content is read, in bytes")
	f.IntVar(&searchFlags.workers, "workers", 0, "number of worker goroutines (default: CPU count)")
	f.DurationVarP(&searchFlags.timeout, "timeout", "t", 0, "wall-clock limit for the whole search")
	f.DurationVar(&searchFlags.extractTimeout, "extract-timeout", 0, "base time limit for reading one file")

	f.Int64Var(&searchFlags.minSize, "min-size", 0, "smallest file size in bytes")
	f.Int64Var(&searchFlags.maxSize, "max-size", 0, "largest file size in bytes (0 = unlimited)")
	f.StringVar(&searchFlags.after, "after", "", "only files modified after this date")
	f.StringVar(&searchFlags.before, "before", "", "only files modified before this date")
	f.StringSliceVarP(&searchFlags.extensions, "ext", "e", nil, "only these extensions (repeatable)")
	f.StringSliceVarP(&searchFlags.exclude, "exclude", "x", nil, "path prefix or glob to skip (repeatable)")

	f.BoolVar(&searchFlags.noSettings, "no-settings", false, "ignore the settings file")
	f.BoolVar(&searchFlags.noProgress, "no-progress", false, "do not draw a progress bar")
	f.BoolVar(&searchFlags.jsonOut, "json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchEngine == nil {
		return errors.New("search engine not configured")
	}

	req, err := buildRequest(args)
	if err != nil {
		return err
	}
	if settingsService != nil && !searchFlags.noSettings {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		req = settings.Apply(req)
	}

	if err := searchEngine.Start(req); err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	defer func() { _ = searchEngine.Reset() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	view := newProgressView(cmd, !searchFlags.noProgress && !searchFlags.jsonOut)
	terminal := watch(ctx, searchEngine, view)
	view.finish()

	report := searchReport{
		RunID:    searchEngine.RunID(),
		Outcome:  terminal.Outcome,
		Message:  terminal.Text,
		Counters: searchEngine.Counters(),
		Results:  searchEngine.Results(),
	}
	if searchFlags.jsonOut {
		if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	} else {
		writeTable(cmd.OutOrStdout(), report)
	}

	if terminal.Outcome == domain.OutcomeFailed {
		return errors.New(terminal.Text)
	}
	return nil
}

// buildRequest maps positional arguments and flags onto a request.
func buildRequest(args []string) (domain.SearchRequest, error) {
	req := domain.SearchRequest{
		Root:     args[0],
		Keywords: args[1:],
		Flags: domain.SearchFlags{
			SearchFiles:             searchFlags.files,
			SearchFolders:           searchFlags.folders,
			SearchContent:           searchFlags.content,
			WholeWord:               searchFlags.wholeWord,
			IgnoreHidden:            searchFlags.ignoreHidden,
			ExcludeSystemExtensions: searchFlags.excludeSystem,
			ReportPermissionErrors:  searchFlags.reportDenied,
		},
		Filters: domain.Filters{
			MinSize:    searchFlags.minSize,
			MaxSize:    searchFlags.maxSize,
			Extensions: searchFlags.extensions,
		},
		ExcludedPaths: searchFlags.exclude,
		MaxDepth:      searchFlags.maxDepth,
		Limits: domain.Limits{
			MaxFiles:       searchFlags.maxFiles,
			MaxResults:     searchFlags.maxResults,
			MaxFileSize:    searchFlags.maxFileSize,
			Workers:        searchFlags.workers,
			Timeout:        searchFlags.timeout,
			ExtractTimeout: searchFlags.extractTimeout,
		},
	}

	var err error
	if req.Filters.ModifiedAfter, err = parseDate("after", searchFlags.after); err != nil {
		return req, err
	}
	if req.Filters.ModifiedBefore, err = parseDate("before", searchFlags.before); err != nil {
		return req, err
	}
	return req, nil
}

func parseDate(flag, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	t, err := dateparse.ParseLocal(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --%s %q is not a date", domain.ErrInvalidInput, flag, value)
	}
	return t, nil
}

// watch renders events until the terminal event arrives. Cancelling ctx
// asks the engine to stop; the terminal event still follows.
func watch(ctx context.Context, engine driving.SearchEngine, view *progressView) domain.ProgressEvent {
	stream := engine.Events()
	done := ctx.Done()
	ticker := time.NewTicker(eventPoll)
	defer ticker.Stop()

	for {
		for _, ev := range stream.Drain() {
			if ev.IsTerminal() {
				return ev
			}
			view.render(ev)
		}

		select {
		case <-done:
			logger.Info("Interrupted, stopping search")
			engine.Stop()
			done = nil
		case <-stream.Notify():
		case <-ticker.C:
		}
	}
}

// progressView draws a progress bar on terminals and plain status lines
// otherwise.
type progressView struct {
	bar    *progressbar.ProgressBar
	status io.Writer
}

func newProgressView(cmd *cobra.Command, allowBar bool) *progressView {
	v := &progressView{status: cmd.ErrOrStderr()}
	if allowBar && isTerminal(cmd.OutOrStdout()) {
		v.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("Searching"),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
	}
	return v
}

func (v *progressView) render(ev domain.ProgressEvent) {
	switch ev.Kind {
	case domain.EventProgress:
		if v.bar != nil {
			_ = v.bar.Set(ev.Percent)
		}
	case domain.EventStatus, domain.EventError:
		if v.bar != nil {
			v.bar.Describe(shorten(ev.Text, 48))
			return
		}
		fmt.Fprintln(v.status, ev.Text)
	case domain.EventSizeUpdate:
		logger.Debug("%s read", formatSize(ev.Bytes))
	}
}

func (v *progressView) finish() {
	if v.bar != nil {
		_ = v.bar.Finish()
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// shorten keeps the tail of s, which for paths is the informative part.
func shorten(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return "..." + string(r[len(r)-limit+3:])
}
