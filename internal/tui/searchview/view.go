package searchview

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/rgtree/internal/model"
	"github.com/altinukshini/rgtree/internal/ui"
)

// SubmitMsg is sent when the user confirms the form.
type SubmitMsg struct {
	Query model.SearchQuery
}

// Field indices
const (
	fieldPattern = iota
	fieldDir
	fieldGlobs
	fieldRaw
	fieldCount
)

var fieldLabels = [fieldCount]string{"Pattern", "Directory", "Globs", "Raw args"}

// Model is the form used to start a new search.
type Model struct {
	inputs        [fieldCount]textinput.Model
	focus         int
	isRegex       bool
	caseSensitive bool
	encoding      string
	active        bool
	err           string
	width         int
}

// New returns a form prefilled with the configured defaults.
func New(dir string, globs, rawArgs []string, encoding string) Model {
	var m Model
	placeholders := [fieldCount]string{
		"text to find",
		"directory to search",
		"comma separated, prefix ! to exclude",
		"extra rg flags",
	}
	for i := range m.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 512
		m.inputs[i] = ti
	}
	m.inputs[fieldDir].SetValue(dir)
	m.inputs[fieldGlobs].SetValue(strings.Join(globs, ", "))
	m.inputs[fieldRaw].SetValue(strings.Join(rawArgs, " "))
	m.encoding = encoding
	return m
}

func (m *Model) Activate() {
	m.active = true
	m.err = ""
	m.inputs[fieldPattern].SetValue("")
	m.setFocus(fieldPattern)
}

func (m *Model) Deactivate() {
	m.active = false
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

func (m Model) IsActive() bool {
	return m.active
}

func (m *Model) setFocus(i int) {
	m.focus = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

// Query builds the search described by the current form values.
func (m Model) Query() model.SearchQuery {
	return model.SearchQuery{
		Pattern:       m.inputs[fieldPattern].Value(),
		Dir:           strings.TrimSpace(m.inputs[fieldDir].Value()),
		Globs:         splitGlobs(m.inputs[fieldGlobs].Value()),
		RawArgs:       strings.Fields(m.inputs[fieldRaw].Value()),
		Encoding:      m.encoding,
		IsRegex:       m.isRegex,
		CaseSensitive: m.caseSensitive,
	}
}

func splitGlobs(s string) []string {
	var globs []string
	for _, g := range strings.Split(s, ",") {
		if g = strings.TrimSpace(g); g != "" {
			globs = append(globs, g)
		}
	}
	return globs
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.active {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		for i := range m.inputs {
			m.inputs[i].Width = msg.Width - 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.Deactivate()
			return m, nil
		case "tab", "down":
			m.setFocus((m.focus + 1) % fieldCount)
			return m, textinput.Blink
		case "shift+tab", "up":
			m.setFocus((m.focus - 1 + fieldCount) % fieldCount)
			return m, textinput.Blink
		case "alt+r":
			m.isRegex = !m.isRegex
			return m, nil
		case "alt+c":
			m.caseSensitive = !m.caseSensitive
			return m, nil
		case "enter":
			q := m.Query()
			if q.Pattern == "" {
				m.err = "pattern is required"
				m.setFocus(fieldPattern)
				return m, nil
			}
			m.Deactivate()
			return m, func() tea.Msg { return SubmitMsg{Query: q} }
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.active {
		return ""
	}

	label := lipgloss.NewStyle().Width(11)
	var b strings.Builder
	b.WriteString(ui.StyleSession.Render("  New search") + "\n\n")
	for i := range m.inputs {
		name := label.Render(fieldLabels[i])
		if i == m.focus {
			name = ui.StyleInfo.Render(name)
		} else {
			name = ui.StyleMuted.Render(name)
		}
		b.WriteString("  " + name + " " + m.inputs[i].View() + "\n")
	}
	b.WriteString("\n  " + toggle("regex", m.isRegex) + "  " + toggle("case sensitive", m.caseSensitive) + "\n")
	if m.err != "" {
		b.WriteString("\n  " + ui.StyleFailure.Render(m.err) + "\n")
	}
	b.WriteString("\n" + ui.StyleMuted.Render("  tab:next field  alt+r:regex  alt+c:case  enter:search  esc:cancel"))
	return b.String()
}

func toggle(name string, on bool) string {
	if on {
		return ui.StyleSuccess.Render("[x] " + name)
	}
	return ui.StyleMuted.Render("[ ] " + name)
}
