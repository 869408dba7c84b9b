package runner

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/oshokin/dist-check/internal/domain/dist"
)

const maxCellWidth = 60

// RenderReport writes a summary table of report to out.
func RenderReport(out io.Writer, report *dist.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle(fmt.Sprintf("Distribution %s on %s", report.Versions.Current, report.Provider))
	t.AppendHeader(table.Row{"#", "Step", "Command", "Result", "Duration", "Details"})

	for i, check := range report.Checks {
		t.AppendRow(table.Row{
			i + 1,
			check.Name,
			check.Command,
			formatResult(check.Passed),
			check.Duration.Round(time.Millisecond),
			truncate(check.Error, maxCellWidth),
		})
	}

	t.AppendFooter(table.Row{
		"", "", "",
		string(report.Outcome),
		report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond),
		fmt.Sprintf("%d failed", report.Failed()),
	})

	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.Render()
}

func formatResult(passed bool) string {
	if passed {
		return text.FgGreen.Sprint("PASS")
	}

	return text.FgRed.Sprint("FAIL")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit-3]) + "..."
}
