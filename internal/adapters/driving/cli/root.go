// Package cli provides the ricerca command line, built on cobra.
// Commands reach the core only through the driving ports set with
// SetServices.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/trita-a/ricerca/internal/core/ports/driving"
	"github.com/trita-a/ricerca/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Services used by the commands.
var (
	searchEngine    driving.SearchEngine
	settingsService driving.SettingsService
)

var (
	verbose    bool
	timestamps bool
)

var rootCmd = &cobra.Command{
	Use:   "ricerca",
	Short: "Search files by name and content",
	Long: `ricerca walks a directory tree and matches keywords against file names,
folder names and the text inside documents, mail and archives.

Searches are bounded by file, result, size and time limits and can be
stopped at any time with Ctrl+C.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
		logger.SetTimestamps(timestamps)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print diagnostic logs to stderr")
	rootCmd.PersistentFlags().BoolVar(&timestamps, "log-timestamps", false, "prefix diagnostic logs with timestamps")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetServices injects the core services.
func SetServices(engine driving.SearchEngine, settings driving.SettingsService) {
	searchEngine = engine
	settingsService = settings
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
