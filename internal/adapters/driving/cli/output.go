package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driving"
)

// Colour palette shared by all output.
var (
	colourPrimary = lipgloss.Color("#7C3AED")
	colourMuted   = lipgloss.Color("#6C7086")
	colourSuccess = lipgloss.Color("#A6E3A1")
	colourWarning = lipgloss.Color("#F9E2AF")
	colourError   = lipgloss.Color("#F38BA8")
)

// styles holds the lipgloss styles bound to one output writer, so colour
// is dropped automatically when the writer is not a terminal.
type styles struct {
	folder  lipgloss.Style
	file    lipgloss.Style
	muted   lipgloss.Style
	origin  lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		folder:  r.NewStyle().Foreground(colourPrimary).Bold(true),
		file:    r.NewStyle().Bold(true),
		muted:   r.NewStyle().Foreground(colourMuted),
		origin:  r.NewStyle().Foreground(colourWarning).Italic(true),
		success: r.NewStyle().Foreground(colourSuccess),
		warning: r.NewStyle().Foreground(colourWarning),
		failure: r.NewStyle().Foreground(colourError).Bold(true),
	}
}

// searchReport is the --json document.
type searchReport struct {
	RunID    string              `json:"run_id"`
	Outcome  domain.Outcome      `json:"outcome"`
	Message  string              `json:"message"`
	Counters driving.Counters    `json:"counters"`
	Results  []domain.FileRecord `json:"results"`
}

func writeJSON(w io.Writer, report searchReport) error {
	if report.Results == nil {
		report.Results = []domain.FileRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	return nil
}

func writeTable(w io.Writer, report searchReport) {
	st := newStyles(w)

	if len(report.Results) == 0 {
		fmt.Fprintln(w, "No results found.")
	}
	for _, r := range report.Results {
		name := st.file.Render(r.Name)
		detail := formatSize(r.Size) + "  " + r.Modified.Format("2006-01-02 15:04")
		if r.Kind == domain.KindDirectory {
			name = st.folder.Render(r.Name + "/")
			detail = "folder"
		}
		fmt.Fprintf(w, "%s  %s\n", name, st.muted.Render(detail))
		fmt.Fprintf(w, "    %s", r.Path)
		if r.Origin == domain.OriginEmailAttachment {
			fmt.Fprintf(w, "  %s", st.origin.Render("(in attachment)"))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, outcomeStyle(st, report.Outcome).Render(report.Message))
	c := report.Counters
	fmt.Fprintln(w, st.muted.Render(fmt.Sprintf("%d files and %d folders checked, %s read",
		c.FilesChecked, c.DirsChecked, formatSize(c.CurrentSearchSize))))
}

func outcomeStyle(st styles, outcome domain.Outcome) lipgloss.Style {
	switch outcome {
	case domain.OutcomeCompleted:
		return st.success
	case domain.OutcomeFailed:
		return st.failure
	default:
		return st.warning
	}
}

// formatSize renders a byte count with a binary unit.
func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
