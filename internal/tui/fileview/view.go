package fileview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/rgtree/internal/ui"
)

// Model shows one file with the selected match line highlighted, plus an
// in-file search.
type Model struct {
	viewport viewport.Model
	content  string
	title    string
	path     string
	width    int
	height   int
	ready    bool
	loading  bool

	// In-file search
	searchInput textinput.Model
	searching   bool
	searchQuery string
	matchLines  []int // 0-based line indices of matches
	matchIndex  int   // current match position
	matchTotal  int

	// Jump highlight (from the selected tree match)
	jumpLine int // 0-based line to highlight, -1 = none
}

func New() Model {
	ti := textinput.New()
	ti.Placeholder = "Search in file..."
	ti.CharLimit = 256
	return Model{searchInput: ti, jumpLine: -1}
}

func (m *Model) SetContent(path, title, content string) {
	m.path = path
	m.title = title
	m.content = strings.ReplaceAll(content, "\r\n", "\n")
	m.loading = false
	m.searchQuery = ""
	m.matchLines = nil
	m.matchIndex = 0
	m.matchTotal = 0
	m.jumpLine = -1
	if m.ready {
		m.viewport.SetContent(m.content)
		m.viewport.GotoTop()
	}
}

func (m *Model) SetLoading() {
	m.loading = true
}

func (m Model) Path() string {
	return m.path
}

// JumpLine returns the highlighted line (1-based), or 0 when none is set.
func (m Model) JumpLine() int {
	return m.jumpLine + 1
}

// GotoLine highlights line (1-based) and scrolls it into the middle of the
// view when possible.
func (m *Model) GotoLine(line int) {
	if line <= 0 {
		return
	}
	m.jumpLine = line - 1
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.applyHighlights())
	offset := m.jumpLine - m.viewport.Height/2
	if offset < 0 {
		offset = 0
	}
	m.viewport.SetYOffset(offset)
}

func (m Model) IsSearching() bool {
	return m.searching
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searching {
			switch msg.String() {
			case "enter":
				query := m.searchInput.Value()
				if query != "" {
					m.searchQuery = query
					m.findMatches()
					m.viewport.SetContent(m.applyHighlights())
					if len(m.matchLines) > 0 {
						m.matchIndex = m.firstMatchFrom(m.viewport.YOffset)
						m.viewport.SetYOffset(m.matchLines[m.matchIndex])
					}
				}
				m.searching = false
				m.searchInput.Blur()
				return m, nil
			case "esc":
				m.searching = false
				m.searchInput.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.searchInput, cmd = m.searchInput.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, ui.Keys.Search):
			m.searching = true
			m.searchInput.SetValue("")
			m.searchInput.Focus()
			return m, textinput.Blink
		case key.Matches(msg, ui.Keys.NextMatch):
			if len(m.matchLines) > 0 {
				m.matchIndex = (m.matchIndex + 1) % len(m.matchLines)
				m.viewport.SetContent(m.applyHighlights())
				m.viewport.SetYOffset(m.matchLines[m.matchIndex])
			}
			return m, nil
		case key.Matches(msg, ui.Keys.PrevMatch):
			if len(m.matchLines) > 0 {
				m.matchIndex = (m.matchIndex - 1 + len(m.matchLines)) % len(m.matchLines)
				m.viewport.SetContent(m.applyHighlights())
				m.viewport.SetYOffset(m.matchLines[m.matchIndex])
			}
			return m, nil
		case key.Matches(msg, ui.Keys.Top):
			m.viewport.GotoTop()
			return m, nil
		case key.Matches(msg, ui.Keys.Bottom):
			m.viewport.GotoBottom()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.searchInput.Width = msg.Width - 4
		headerH := 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerH)
			m.ready = true
			if m.content != "" {
				m.viewport.SetContent(m.applyHighlights())
				if m.jumpLine >= 0 {
					m.GotoLine(m.jumpLine + 1)
				}
			}
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerH
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// firstMatchFrom returns the index of the first match at or below line.
func (m Model) firstMatchFrom(line int) int {
	for i, l := range m.matchLines {
		if l >= line {
			return i
		}
	}
	return 0
}

func (m *Model) findMatches() {
	m.matchLines = nil
	if m.searchQuery == "" || m.content == "" {
		m.matchTotal = 0
		return
	}
	query := strings.ToLower(m.searchQuery)
	lines := strings.Split(m.content, "\n")
	for i, line := range lines {
		if strings.Contains(strings.ToLower(line), query) {
			m.matchLines = append(m.matchLines, i)
		}
	}
	m.matchTotal = len(m.matchLines)
}

// applyHighlights returns the content with line numbers and with matching
// lines and the jump line highlighted.
func (m Model) applyHighlights() string {
	matchSet := make(map[int]bool)
	for _, idx := range m.matchLines {
		matchSet[idx] = true
	}

	currentMatchLine := -1
	if m.searchQuery != "" && m.matchIndex >= 0 && m.matchIndex < len(m.matchLines) {
		currentMatchLine = m.matchLines[m.matchIndex]
	}

	highlight := lipgloss.NewStyle().Background(lipgloss.Color("#374151"))
	current := lipgloss.NewStyle().Background(lipgloss.Color("#92400E")).Bold(true)

	lines := strings.Split(m.content, "\n")
	width := len(fmt.Sprint(len(lines)))
	for i, line := range lines {
		switch {
		case i == currentMatchLine, i == m.jumpLine:
			line = current.Render(line)
		case matchSet[i]:
			line = highlight.Render(line)
		}
		lines[i] = ui.StyleLineNo.Render(fmt.Sprintf("%*d ", width, i+1)) + line
	}
	return strings.Join(lines, "\n")
}

func (m Model) View() string {
	if m.loading {
		return "\n  Loading file..."
	}
	if m.content == "" && m.path == "" {
		return "\n  Select a match to open its file"
	}

	headerParts := fmt.Sprintf(" %s  %3.f%%", m.title, m.viewport.ScrollPercent()*100)
	if m.searchQuery != "" && m.matchTotal > 0 {
		headerParts += fmt.Sprintf("  [%d/%d matches]", m.matchIndex+1, m.matchTotal)
	} else if m.searchQuery != "" {
		headerParts += "  [no matches]"
	}
	hints := ui.StyleMuted.Render(
		"  /:search  n/N:match  [/]:prev/next result  g/G:top/bot  esc:back")
	header := lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("#F9FAFB")).
		Render(headerParts) + hints

	if m.searching {
		return header + "\n  /" + m.searchInput.View() + "\n" + m.viewport.View()
	}
	return header + "\n" + ui.StyleMuted.Render(" "+m.path) + "\n" + m.viewport.View()
}
