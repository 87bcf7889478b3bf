package filteroverlay

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/rgtree/internal/ops"
	"github.com/altinukshini/rgtree/internal/ui"
)

// ---------------------------------------------------------------------------
// Result message
// ---------------------------------------------------------------------------

// ResultMsg is emitted when the user applies or cancels the overlay.
type ResultMsg struct {
	Applied bool
	Filter  ops.SessionFilter
}

// Summary returns a short human-readable description of f.
func Summary(f ops.SessionFilter) string {
	var parts []string
	if f.LabelContains != "" {
		parts = append(parts, fmt.Sprintf("label:%q", f.LabelContains))
	}
	if f.IncompleteOnly {
		parts = append(parts, "incomplete")
	}
	if f.EmptyOnly {
		parts = append(parts, "empty")
	}
	if f.OlderThan > 0 {
		parts = append(parts, "older than "+f.OlderThan.String())
	}
	if len(parts) == 0 {
		return "all sessions"
	}
	return strings.Join(parts, " ")
}

// ---------------------------------------------------------------------------
// Field enum
// ---------------------------------------------------------------------------

type field int

const (
	fieldLabel field = iota
	fieldState
	fieldAge
	fieldCount
)

// ---------------------------------------------------------------------------
// Option lists
// ---------------------------------------------------------------------------

var (
	stateOptions = []string{"incomplete", "empty"}
	ageOptions   = []time.Duration{10 * time.Minute, time.Hour, 24 * time.Hour}
)

// ---------------------------------------------------------------------------
// Model
// ---------------------------------------------------------------------------

// Model selects which sessions a bulk delete applies to.
type Model struct {
	active   bool
	focused  field
	stateIdx int // -1 = any
	ageIdx   int // -1 = any
	label    textinput.Model
	width    int
	height   int
}

// New creates an active overlay pre-populated with current.
func New(current ops.SessionFilter) Model {
	label := textinput.New()
	label.Placeholder = "part of a session label"
	label.CharLimit = 128
	label.Width = 30
	label.SetValue(current.LabelContains)

	m := Model{
		active:   true,
		stateIdx: -1,
		ageIdx:   -1,
		label:    label,
	}
	switch {
	case current.IncompleteOnly:
		m.stateIdx = 0
	case current.EmptyOnly:
		m.stateIdx = 1
	}
	for i, d := range ageOptions {
		if d == current.OlderThan {
			m.ageIdx = i
			break
		}
	}
	return m
}

// IsActive reports whether the overlay is currently visible.
func (m Model) IsActive() bool { return m.active }

// SetSize stores terminal dimensions so the overlay can centre itself.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m Model) Init() tea.Cmd { return nil }

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.active {
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.label.Focused() {
		switch keyMsg.String() {
		case "esc":
			m.active = false
			return m, emitResult(false, ops.SessionFilter{})
		case "enter", "tab", "down":
			m.label.Blur()
			m.moveFocus(1)
			return m, nil
		case "shift+tab", "up":
			m.label.Blur()
			m.moveFocus(-1)
			return m, nil
		}
		var cmd tea.Cmd
		m.label, cmd = m.label.Update(keyMsg)
		return m, cmd
	}

	switch keyMsg.String() {
	case "j", "down", "tab":
		m.moveFocus(1)
	case "k", "up", "shift+tab":
		m.moveFocus(-1)

	case "enter", "right", "l":
		switch m.focused {
		case fieldLabel:
			m.label.Focus()
			return m, textinput.Blink
		case fieldState:
			m.stateIdx = cycleForward(m.stateIdx, len(stateOptions))
		case fieldAge:
			m.ageIdx = cycleForward(m.ageIdx, len(ageOptions))
		}

	case "left", "h":
		switch m.focused {
		case fieldState:
			m.stateIdx = cycleBackward(m.stateIdx, len(stateOptions))
		case fieldAge:
			m.ageIdx = cycleBackward(m.ageIdx, len(ageOptions))
		}

	case "a":
		m.active = false
		return m, emitResult(true, m.Filter())

	case "c":
		m.stateIdx = -1
		m.ageIdx = -1
		m.label.SetValue("")

	case "esc":
		m.active = false
		return m, emitResult(false, ops.SessionFilter{})
	}
	return m, nil
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

func (m Model) View() string {
	if !m.active {
		return ""
	}

	labelStyle := lipgloss.NewStyle().Width(12).Foreground(ui.ColorMuted)
	focusedLabelStyle := lipgloss.NewStyle().Width(12).Bold(true).Foreground(ui.ColorPrimary)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F9FAFB"))
	anyStyle := lipgloss.NewStyle().Foreground(ui.ColorMuted).Italic(true)

	rows := make([]string, 0, int(fieldCount))
	for f := field(0); f < fieldCount; f++ {
		ls := labelStyle
		if f == m.focused {
			ls = focusedLabelStyle
		}

		var label, value string
		switch f {
		case fieldLabel:
			label = "Label:"
			value = m.label.View()
		case fieldState:
			label = "State:"
			if m.stateIdx < 0 {
				value = anyStyle.Render("Any state")
			} else {
				value = valueStyle.Render(stateOptions[m.stateIdx])
			}
		case fieldAge:
			label = "Older than:"
			if m.ageIdx < 0 {
				value = anyStyle.Render("Any age")
			} else {
				value = valueStyle.Render(ageOptions[m.ageIdx].String())
			}
		}

		cursor := "  "
		if f == m.focused {
			cursor = lipgloss.NewStyle().Foreground(ui.ColorPrimary).Render("> ")
		}
		rows = append(rows, fmt.Sprintf("%s%s %s", cursor, ls.Render(label), value))
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(ui.ColorPrimary).
		MarginBottom(1).
		Render("Delete Sessions")

	help := lipgloss.NewStyle().
		Foreground(ui.ColorMuted).
		MarginTop(1).
		Render("a: apply  c: clear  esc: cancel")

	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		strings.Join(rows, "\n"),
		help,
	)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorPrimary).
		Padding(1, 2).
		Width(56).
		Render(body)

	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height,
			lipgloss.Center, lipgloss.Center,
			box)
	}
	return box
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (m *Model) moveFocus(delta int) {
	next := int(m.focused) + delta
	if next < 0 {
		next = int(fieldCount) - 1
	}
	if next >= int(fieldCount) {
		next = 0
	}
	m.focused = field(next)
}

// Filter returns the filter described by the current values.
func (m Model) Filter() ops.SessionFilter {
	f := ops.SessionFilter{LabelContains: strings.TrimSpace(m.label.Value())}
	switch m.stateIdx {
	case 0:
		f.IncompleteOnly = true
	case 1:
		f.EmptyOnly = true
	}
	if m.ageIdx >= 0 && m.ageIdx < len(ageOptions) {
		f.OlderThan = ageOptions[m.ageIdx]
	}
	return f
}

// cycleForward advances the index by one. -1 means "any", 0..max-1 are the
// actual entries, and going past the last entry wraps back to -1.
func cycleForward(idx, count int) int {
	if count == 0 {
		return -1
	}
	idx++
	if idx >= count {
		idx = -1
	}
	return idx
}

// cycleBackward is the reverse of cycleForward.
func cycleBackward(idx, count int) int {
	if count == 0 {
		return -1
	}
	idx--
	if idx < -1 {
		idx = count - 1
	}
	return idx
}

func emitResult(applied bool, f ops.SessionFilter) tea.Cmd {
	return func() tea.Msg {
		return ResultMsg{Applied: applied, Filter: f}
	}
}
