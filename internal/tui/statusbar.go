package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/rgtree/internal/ui"
)

// RenderStatusBar draws the status line. spin is prepended while searches
// are running and may be empty.
func RenderStatusBar(spin, status, hints string, width int) string {
	prefix := "  "
	if spin != "" {
		prefix = " " + spin + " "
	}
	left := lipgloss.NewStyle().Foreground(ui.ColorMuted).Render(prefix + status)

	help := lipgloss.NewStyle().Foreground(ui.ColorMuted).
		Render(hints + " ")

	gap := width - lipgloss.Width(left) - lipgloss.Width(help)
	if gap < 0 {
		gap = 0
	}
	padding := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.NewStyle().
		Background(lipgloss.Color("#111827")).
		Width(width).
		Render(left + padding + help)
}
