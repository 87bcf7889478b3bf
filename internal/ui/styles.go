package ui

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorSuccess   = lipgloss.Color("#10B981")
	ColorFailure   = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorInfo      = lipgloss.Color("#3B82F6")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorBorder    = lipgloss.Color("#374151")
	ColorHighlight = lipgloss.Color("#1F2937")

	StylePane = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StylePaneFocused = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorPrimary)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F9FAFB")).
			Background(ColorPrimary).
			Padding(0, 1)

	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleFailure = lipgloss.NewStyle().Foreground(ColorFailure)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleInfo    = lipgloss.NewStyle().Foreground(ColorInfo)
	StyleMuted   = lipgloss.NewStyle().Foreground(ColorMuted)

	StyleSession = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F9FAFB"))
	StyleFile    = lipgloss.NewStyle().Foreground(ColorInfo)
	StyleLineNo  = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleCursor  = lipgloss.NewStyle().Background(ColorHighlight)

	StyleMatch = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FCD34D")).
			Background(lipgloss.Color("#78350F"))
)

// Session states shown next to a session in the tree.
const (
	StateRunning    = "running"
	StateDone       = "done"
	StateIncomplete = "incomplete"
	StateFailed     = "failed"
	StateEmpty      = "empty"
)

func StateStyle(state string) lipgloss.Style {
	switch state {
	case StateDone:
		return StyleSuccess
	case StateFailed:
		return StyleFailure
	case StateIncomplete:
		return StyleWarning
	case StateEmpty:
		return StyleMuted
	default:
		return StyleInfo
	}
}

func StateIcon(state string) string {
	switch state {
	case StateDone:
		return StyleSuccess.Render("V")
	case StateFailed:
		return StyleFailure.Render("X")
	case StateIncomplete:
		return StyleWarning.Render("!")
	case StateEmpty:
		return StyleMuted.Render("-")
	case StateRunning:
		return StyleInfo.Render("*")
	default:
		return StyleMuted.Render("?")
	}
}
