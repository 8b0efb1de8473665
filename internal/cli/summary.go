package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vvka-141/ndlsync/pkg/ndlsync"
)

var (
	colorSuccess = lipgloss.Color("34")  // Green
	colorWarning = lipgloss.Color("214") // Orange
	colorError   = lipgloss.Color("196") // Red
	colorMuted   = lipgloss.Color("240") // Dark gray

	summaryBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)

	summaryHeaderStyle = lipgloss.NewStyle().Bold(true)

	statusStyles = map[ndlsync.LoadStatus]lipgloss.Style{
		ndlsync.StatusLoaded:  lipgloss.NewStyle().Foreground(colorSuccess),
		ndlsync.StatusSkipped: lipgloss.NewStyle().Foreground(colorWarning),
		ndlsync.StatusFailed:  lipgloss.NewStyle().Foreground(colorError),
	}
)

const (
	tableColWidth  = 12
	statusColWidth = 9
	rowsColWidth   = 12
	timeColWidth   = 9
)

// renderLoadSummary renders one line per table plus totals inside a box.
func renderLoadSummary(results []ndlsync.LoadResult) string {
	cell := func(s string, width int, style lipgloss.Style) string {
		return style.Width(width).Render(s)
	}
	right := lipgloss.NewStyle().Align(lipgloss.Right)

	lines := []string{
		summaryHeaderStyle.Render(
			cell("TABLE", tableColWidth, lipgloss.NewStyle()) +
				cell("STATUS", statusColWidth, lipgloss.NewStyle()) +
				cell("ROWS", rowsColWidth, right) + " " +
				cell("TIME", timeColWidth, right) + "  DETAIL"),
	}

	var loaded, failed, skipped int
	var totalRows int64
	for _, r := range results {
		rows, elapsed, detail := "-", "-", ""
		switch r.Status {
		case ndlsync.StatusLoaded:
			loaded++
			totalRows += r.Rows
			rows = fmt.Sprintf("%d", r.Rows)
			elapsed = fmt.Sprintf("%.2fs", r.Elapsed.Seconds())
		case ndlsync.StatusFailed:
			failed++
			elapsed = fmt.Sprintf("%.2fs", r.Elapsed.Seconds())
			detail = r.Kind.String()
		case ndlsync.StatusSkipped:
			skipped++
			detail = "missing " + ndlsync.FileName(r.Dataset)
		}
		lines = append(lines,
			cell(r.Table, tableColWidth, lipgloss.NewStyle())+
				cell(r.Status.String(), statusColWidth, statusStyles[r.Status])+
				cell(rows, rowsColWidth, right)+" "+
				cell(elapsed, timeColWidth, right)+"  "+detail)
	}

	lines = append(lines, "", fmt.Sprintf("%d loaded (%d rows), %d failed, %d skipped", loaded, totalRows, failed, skipped))
	return summaryBoxStyle.Render(strings.Join(lines, "\n"))
}
