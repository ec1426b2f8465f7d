package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage search settings",
	Long: `View and initialise the settings applied to every search.

Settings live in a TOML file. Options given on the search command line
take precedence over the file.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file location",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return errors.New("settings service not configured")
		}
		cmd.Println(settingsService.Path())
		return nil
	},
}

var settingsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default settings to the settings file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return errors.New("settings service not configured")
		}
		if err := settingsService.Save(settingsService.GetDefaults()); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		cmd.Printf("Wrote default settings to %s\n", settingsService.Path())
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsPathCmd)
	settingsCmd.AddCommand(settingsInitCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Printf("File: %s\n", settingsService.Path())
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  Whole word: %s\n", yesNo(settings.Search.WholeWord))
	cmd.Printf("  Ignore hidden: %s\n", yesNo(settings.Search.IgnoreHidden))
	cmd.Printf("  Exclude system files: %s\n", yesNo(settings.Search.ExcludeSystemExtensions))
	cmd.Printf("  Report denied folders: %s\n", yesNo(settings.Search.ReportPermissionErrors))
	cmd.Printf("  Search content: %s\n", yesNo(settings.Search.SearchContent))
	cmd.Printf("  Max depth: %s\n", orUnlimited(int64(settings.Search.MaxDepth)))
	cmd.Println()

	cmd.Println("[Limits]")
	cmd.Printf("  Max files: %s\n", orUnlimited(settings.Limits.MaxFiles))
	cmd.Printf("  Max results: %s\n", orUnlimited(int64(settings.Limits.MaxResults)))
	cmd.Printf("  Max content size: %s\n", formatSize(settings.Limits.MaxFileSize))
	cmd.Printf("  Workers: %d\n", settings.Limits.Workers)
	cmd.Printf("  Timeout: %s\n", durationOrNone(settings.Limits.Timeout))
	cmd.Printf("  Extract timeout: %s\n", settings.Limits.ExtractTimeout)
	cmd.Println()

	cmd.Println("[Filters]")
	cmd.Printf("  Min size: %s\n", formatSize(settings.Filters.MinSize))
	if settings.Filters.MaxSize > 0 {
		cmd.Printf("  Max size: %s\n", formatSize(settings.Filters.MaxSize))
	}
	if !settings.Filters.ModifiedAfter.IsZero() {
		cmd.Printf("  Modified after: %s\n", settings.Filters.ModifiedAfter.Format(time.DateOnly))
	}
	if !settings.Filters.ModifiedBefore.IsZero() {
		cmd.Printf("  Modified before: %s\n", settings.Filters.ModifiedBefore.Format(time.DateOnly))
	}
	cmd.Printf("  Extensions: %s\n", listOrAll(settings.Filters.Extensions))
	cmd.Println()

	cmd.Println("[Exclusions]")
	if len(settings.ExcludedPaths) == 0 {
		cmd.Println("  (none)")
	}
	for _, p := range settings.ExcludedPaths {
		cmd.Printf("  %s\n", p)
	}

	if len(settings.DepthExtensions) > 0 {
		cmd.Println()
		cmd.Println("[Extensions by depth]")
		depths := make([]int, 0, len(settings.DepthExtensions))
		for d := range settings.DepthExtensions {
			depths = append(depths, d)
		}
		sort.Ints(depths)
		for _, d := range depths {
			cmd.Printf("  %d: %s\n", d, listOrAll(settings.DepthExtensions[d]))
		}
	}

	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orUnlimited(n int64) string {
	if n <= 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%d", n)
}

func durationOrNone(d time.Duration) string {
	if d <= 0 {
		return "none"
	}
	return d.String()
}

func listOrAll(items []string) string {
	if len(items) == 0 {
		return "all"
	}
	return strings.Join(items, ", ")
}
