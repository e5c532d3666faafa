package app

import (
	"fmt"
	"strings"
	"time"

	"autoload/internal/core/ports"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

// FormatSummary renders the outcome of a successful regeneration.
func FormatSummary(result ports.RegenerateResult) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Class loading information"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  packages: %d", result.Packages)
	if result.Skipped > 0 {
		fmt.Fprintf(&b, " (%d skipped)", result.Skipped)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "  classes:  %d\n", result.Classes)
	fmt.Fprintf(&b, "  prefixes: %d\n", result.Prefixes)
	fmt.Fprintf(&b, "  aliases:  %d\n", result.Aliases)

	switch {
	case result.DryRun:
		b.WriteString(statusStyle.Render(fmt.Sprintf("dry run: %d artifacts rendered, nothing written", len(result.Artifacts))))
	case len(result.Written) == 0:
		b.WriteString(successStyle.Render("artifacts up to date"))
	default:
		b.WriteString(successStyle.Render(fmt.Sprintf("wrote %d artifacts", len(result.Written))))
		for _, path := range result.Written {
			b.WriteString("\n  ")
			b.WriteString(path)
		}
	}
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(fmt.Sprintf("run %s in %s", result.RunID, result.Duration.Round(time.Millisecond))))
	b.WriteString("\n")
	return b.String()
}

// FormatRunError renders a failed regeneration.
func FormatRunError(err error) string {
	return errorStyle.Render("generation failed") + "\n  " + err.Error() + "\n" +
		statusStyle.Render("previous artifacts were left in place") + "\n"
}

// FormatHistory renders recorded runs, newest first. lastGood is the newest
// successful run, which may fall outside runs; nil means none succeeded.
func FormatHistory(runs []ports.RunRecord, lastGood *ports.RunRecord) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Generation history (%d)", len(runs))))
	b.WriteString("\n")
	if lastGood != nil {
		b.WriteString(successStyle.Render(fmt.Sprintf("last successful: %s  %s",
			lastGood.StartedAt.Local().Format(time.RFC3339), shortDigest(lastGood.Digest))))
		b.WriteString("\n")
	} else if len(runs) > 0 {
		b.WriteString(statusStyle.Render("no successful run recorded"))
		b.WriteString("\n")
	}
	if len(runs) == 0 {
		b.WriteString(statusStyle.Render("no runs recorded"))
		b.WriteString("\n")
		return b.String()
	}
	for _, run := range runs {
		status := successStyle.Render(run.Status)
		if run.Status != ports.RunStatusSuccess {
			status = errorStyle.Render(run.Status)
		}
		fmt.Fprintf(&b, "%s  %s  %s  classes=%d prefixes=%d aliases=%d written=%d\n",
			run.StartedAt.Local().Format(time.RFC3339),
			status,
			shortDigest(run.Digest),
			run.Classes, run.Prefixes, run.Aliases, len(run.Written),
		)
		if run.Error != "" {
			fmt.Fprintf(&b, "  %s\n", run.Error)
		}
	}
	return b.String()
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	if d == "" {
		return "-"
	}
	return d
}
