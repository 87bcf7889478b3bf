package confirm

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cli/go-gh/v2/pkg/text"

	"github.com/altinukshini/rgtree/internal/ui"
)

const (
	boxWidth  = 50
	maxListed = 5
)

// ResultMsg reports the user's answer. Data is passed through untouched.
type ResultMsg struct {
	Confirmed bool
	Action    string
	Data      any
}

// Model asks before a delete. Focus starts on the keep button, so a stray
// enter never removes anything.
type Model struct {
	Title   string
	Message string
	Action  string
	Data    any

	items    []string
	active   bool
	onDelete bool // focus is on the delete button
}

func New(title, message, action string, data any) Model {
	return Model{
		Title:   title,
		Message: message,
		Action:  action,
		Data:    data,
		active:  true,
	}
}

// WithItems lists the sessions or logs the answer applies to. Only the
// first few are shown; the delete button carries the full count.
func (m Model) WithItems(items []string) Model {
	m.items = items
	return m
}

func (m Model) IsActive() bool { return m.active }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) answer(confirmed bool) (Model, tea.Cmd) {
	m.active = false
	res := ResultMsg{Confirmed: confirmed, Action: m.Action, Data: m.Data}
	return m, func() tea.Msg { return res }
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.active {
		return m, nil
	}
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch k.String() {
	case "y", "Y":
		return m.answer(true)
	case "n", "N", "esc":
		return m.answer(false)
	case "enter":
		return m.answer(m.onDelete)
	case "tab", "left", "right", "h", "l":
		m.onDelete = !m.onDelete
	}
	return m, nil
}

func (m Model) deleteLabel() string {
	if len(m.items) > 1 {
		return fmt.Sprintf("Delete %d", len(m.items))
	}
	return "Delete"
}

func (m Model) renderItems() string {
	if len(m.items) == 0 {
		return ""
	}
	muted := lipgloss.NewStyle().Foreground(ui.ColorMuted)
	var b strings.Builder
	for i, item := range m.items {
		if i == maxListed {
			b.WriteString(muted.Render(fmt.Sprintf("  ... and %d more", len(m.items)-maxListed)) + "\n")
			break
		}
		b.WriteString("  - " + text.Truncate(boxWidth-10, item) + "\n")
	}
	return "\n" + b.String()
}

func (m Model) View() string {
	if !m.active {
		return ""
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorWarning).
		Padding(1, 2).
		Width(boxWidth)

	title := lipgloss.NewStyle().Bold(true).Foreground(ui.ColorWarning).Render(m.Title)

	button := lipgloss.NewStyle().Padding(0, 1)
	idle := button.Foreground(ui.ColorMuted)
	del, keep := idle, idle
	if m.onDelete {
		del = button.Bold(true).Background(ui.ColorFailure).Foreground(lipgloss.Color("#F9FAFB"))
	} else {
		keep = button.Bold(true).Background(ui.ColorSuccess).Foreground(lipgloss.Color("#F9FAFB"))
	}

	content := fmt.Sprintf("%s\n\n%s\n%s\n%s  %s\n\ny: delete  n/esc: keep  tab: switch",
		title, m.Message, m.renderItems(),
		keep.Render("Keep"), del.Render(m.deleteLabel()))

	return box.Render(content)
}
