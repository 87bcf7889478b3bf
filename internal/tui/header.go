package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/rgtree/internal/ui"
)

// RenderHeader shows the search directory on the left and the tree fill
// level on the right.
func RenderHeader(dir string, total, limit int, width int) string {
	left := lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("#F9FAFB")).
		Render(fmt.Sprintf(" rgtree | %s", dir))

	usage := ""
	if limit > 0 {
		color := ui.ColorSuccess
		if total >= limit {
			color = ui.ColorFailure
		} else if total*10 >= limit*8 {
			color = ui.ColorWarning
		}
		usage = lipgloss.NewStyle().Foreground(color).
			Render(fmt.Sprintf("Results: %d/%d ", total, limit))
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(usage)
	if gap < 0 {
		gap = 0
	}
	padding := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.NewStyle().
		Background(lipgloss.Color("#1F2937")).
		Width(width).
		Render(left + padding + usage)
}
