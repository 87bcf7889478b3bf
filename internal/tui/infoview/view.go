package infoview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cli/go-gh/v2/pkg/text"

	"github.com/altinukshini/rgtree/internal/model"
	"github.com/altinukshini/rgtree/internal/resulttree"
	"github.com/altinukshini/rgtree/internal/ui"
)

// Session is everything the panel shows about one search session.
type Session struct {
	Root       *resulttree.Root
	Query      model.SearchQuery
	State      string
	MirrorPath string
}

type Model struct {
	session  *Session
	viewport viewport.Model
	width    int
	height   int
	ready    bool
	now      func() time.Time
}

func New() Model {
	return Model{now: time.Now}
}

func (m *Model) SetSession(s Session) {
	m.session = &s
	if m.ready {
		m.viewport.SetContent(m.render())
		m.viewport.GotoTop()
	}
}

// SessionID returns the id of the session on display, or "".
func (m Model) SessionID() string {
	if m.session == nil || m.session.Root == nil {
		return ""
	}
	return m.session.Root.SessionID
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = wsm.Width
		m.height = wsm.Height
		headerH := 1
		if !m.ready {
			m.viewport = viewport.New(wsm.Width, wsm.Height-headerH)
			m.ready = true
			if m.session != nil {
				m.viewport.SetContent(m.render())
			}
		} else {
			m.viewport.Width = wsm.Width
			m.viewport.Height = wsm.Height - headerH
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.session == nil || m.session.Root == nil {
		return "\n  Select a session and press 'i' to view info"
	}

	pct := m.viewport.ScrollPercent() * 100
	header := fmt.Sprintf(" %s  %3.0f%%", m.session.Root.Label, pct)
	hints := lipgloss.NewStyle().Foreground(ui.ColorMuted).Render(
		"  j/k:scroll  g/G:top/bot  PgUp/Dn:page  esc:back")
	headerLine := lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("#F9FAFB")).
		Render(header) + hints

	return headerLine + "\n" + m.viewport.View()
}

func (m Model) render() string {
	s := m.session
	if s == nil || s.Root == nil {
		return "  No session selected"
	}
	r := s.Root

	bold := lipgloss.NewStyle().Bold(true)
	label := lipgloss.NewStyle().Foreground(ui.ColorMuted).Width(16)
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("#F9FAFB"))

	row := func(l, v string) string {
		return "  " + label.Render(l) + value.Render(v) + "\n"
	}

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("  " + bold.Render(r.Label) + "\n")
	b.WriteString("\n")

	state := s.State
	if state == "" {
		state = "-"
	}
	b.WriteString("  " + label.Render("State") + ui.StateIcon(s.State) + " " + ui.StateStyle(s.State).Render(state) + "\n")
	b.WriteString(row("Session", r.SessionID))
	b.WriteString(row("Directory", orDash(r.Dir)))
	b.WriteString(row("Searched", formatTime(r.CreatedAt, m.now())))
	b.WriteString("\n")

	b.WriteString("  " + bold.Render("Query") + "\n\n")
	b.WriteString(row("Pattern", orDash(s.Query.Pattern)))
	b.WriteString(row("Mode", queryMode(s.Query)))
	b.WriteString(row("Globs", orDash(strings.Join(s.Query.Globs, ", "))))
	b.WriteString(row("Raw args", orDash(strings.Join(s.Query.RawArgs, " "))))
	b.WriteString(row("Encoding", orDash(s.Query.Encoding)))
	b.WriteString(row("Log", orDash(s.MirrorPath)))
	b.WriteString("\n")

	b.WriteString("  " + bold.Render("Results") + "\n\n")
	summary := fmt.Sprintf("%s in %s", text.Pluralize(r.MatchCount, "result"), text.Pluralize(len(r.Files), "file"))
	if r.Incomplete {
		summary += ui.StyleWarning.Render("  (stopped at the result limit)")
	}
	b.WriteString("  " + summary + "\n\n")
	for _, f := range r.Files {
		b.WriteString(fmt.Sprintf("  %6d  %s\n", f.Len(), f.Label))
	}

	return b.String()
}

func queryMode(q model.SearchQuery) string {
	mode := "literal"
	if q.IsRegex {
		mode = "regex"
	}
	if q.CaseSensitive {
		return mode + ", case sensitive"
	}
	return mode + ", ignore case"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatTime(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05") + " (" + text.RelativeTimeAgo(now, t) + ")"
}
