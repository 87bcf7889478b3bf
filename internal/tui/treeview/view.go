// Package treeview renders the search result forest and handles cursor
// movement, expand/collapse, match navigation and rename.
package treeview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cli/go-gh/v2/pkg/text"

	"github.com/altinukshini/rgtree/internal/provider"
	"github.com/altinukshini/rgtree/internal/resulttree"
	"github.com/altinukshini/rgtree/internal/ui"
)

type row struct {
	node  resulttree.Node
	depth int
}

// RenamedMsg reports the outcome of an inline rename.
type RenamedMsg struct {
	Node resulttree.Node
	OK   bool
}

type Model struct {
	provider *provider.Provider
	stale    *bool

	rows   []row
	cursor int
	offset int
	width  int
	height int

	states map[string]string // session id -> ui.State*

	renaming    bool
	renameInput textinput.Model
	renameNode  resulttree.Node
}

// New returns a view over p. It subscribes to p and rebuilds its rows on
// the next Sync after a change.
func New(p *provider.Provider) Model {
	ti := textinput.New()
	ti.Placeholder = "New label"
	ti.CharLimit = 256

	stale := true
	m := Model{
		provider:    p,
		stale:       &stale,
		states:      make(map[string]string),
		renameInput: ti,
	}
	p.Subscribe(func() { stale = true })
	return m
}

// Sync rebuilds the visible rows if the tree changed, keeping the cursor on
// the same node when it still exists.
func (m *Model) Sync() {
	if !*m.stale {
		return
	}
	*m.stale = false
	selected := m.Selected()
	m.rebuild()
	if selected != nil {
		if i := m.indexOf(selected); i >= 0 {
			m.cursor = i
		}
	}
	m.clampCursor()
}

func (m *Model) rebuild() {
	m.rows = make([]row, 0, len(m.rows))
	for _, root := range m.provider.Roots() {
		m.rows = append(m.rows, row{node: root})
		if !root.Expanded {
			continue
		}
		for _, fg := range root.Files {
			m.rows = append(m.rows, row{node: fg, depth: 1})
			if !fg.Expanded {
				continue
			}
			for _, leaf := range fg.Results {
				m.rows = append(m.rows, row{node: leaf, depth: 2})
			}
		}
	}
}

func (m Model) indexOf(n resulttree.Node) int {
	for i, r := range m.rows {
		if r.node == n {
			return i
		}
	}
	return -1
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.scrollToCursor()
}

func (m *Model) scrollToCursor() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m Model) listHeight() int {
	h := m.height
	if m.renaming {
		h--
	}
	if h < 1 {
		h = 1
	}
	return h
}

// SetState sets the state badge shown next to a session.
func (m *Model) SetState(sessionID, state string) {
	if state == "" {
		delete(m.states, sessionID)
		return
	}
	m.states[sessionID] = state
}

// State returns the badge set for a session.
func (m Model) State(sessionID string) string { return m.states[sessionID] }

// Selected returns the node under the cursor, or nil when the tree is empty.
func (m Model) Selected() resulttree.Node {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].node
}

// Select moves the cursor to n, expanding its ancestors.
func (m *Model) Select(n resulttree.Node) bool {
	if n == nil {
		return false
	}
	for p := m.provider.Parent(n); p != nil; p = m.provider.Parent(p) {
		switch p := p.(type) {
		case *resulttree.Root:
			p.Expanded = true
		case *resulttree.FileGroup:
			p.Expanded = true
		}
	}
	*m.stale = true
	m.Sync()
	i := m.indexOf(n)
	if i < 0 {
		return false
	}
	m.cursor = i
	m.scrollToCursor()
	return true
}

func (m Model) IsRenaming() bool {
	return m.renaming
}

func (m Model) Len() int {
	return len(m.rows)
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	m.Sync()
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.renameInput.Width = msg.Width - 4
		m.scrollToCursor()

	case tea.KeyMsg:
		if m.renaming {
			return m.updateRename(msg)
		}
		switch {
		case key.Matches(msg, ui.Keys.Down):
			m.cursor++
			m.clampCursor()
		case key.Matches(msg, ui.Keys.Up):
			m.cursor--
			m.clampCursor()
		case key.Matches(msg, ui.Keys.PageDown):
			m.cursor += m.listHeight()
			m.clampCursor()
		case key.Matches(msg, ui.Keys.PageUp):
			m.cursor -= m.listHeight()
			m.clampCursor()
		case key.Matches(msg, ui.Keys.Top):
			m.cursor = 0
			m.clampCursor()
		case key.Matches(msg, ui.Keys.Bottom):
			m.cursor = len(m.rows) - 1
			m.clampCursor()
		case key.Matches(msg, ui.Keys.Toggle):
			m.Toggle()
		case key.Matches(msg, ui.Keys.NextMatch):
			if leaf := m.provider.Next(m.Selected()); leaf != nil {
				m.Select(leaf)
			}
		case key.Matches(msg, ui.Keys.PrevMatch):
			if leaf := m.provider.Previous(m.Selected()); leaf != nil {
				m.Select(leaf)
			}
		case key.Matches(msg, ui.Keys.Rename):
			return m.startRename()
		}
	}
	return m, nil
}

// Toggle expands or collapses the selected session or file.
func (m *Model) Toggle() {
	switch n := m.Selected().(type) {
	case *resulttree.Root:
		n.Expanded = !n.Expanded
	case *resulttree.FileGroup:
		n.Expanded = !n.Expanded
	default:
		return
	}
	*m.stale = true
	m.Sync()
}

func (m Model) startRename() (Model, tea.Cmd) {
	n := m.Selected()
	var label string
	switch n := n.(type) {
	case *resulttree.Root:
		label = n.Label
	case *resulttree.Leaf:
		label = n.Label
	default:
		return m, func() tea.Msg { return RenamedMsg{Node: n, OK: false} }
	}
	m.renaming = true
	m.renameNode = n
	m.renameInput.SetValue(label)
	m.renameInput.CursorEnd()
	m.renameInput.Focus()
	return m, textinput.Blink
}

func (m Model) updateRename(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		n := m.renameNode
		ok := m.provider.Rename(n, m.renameInput.Value())
		m.stopRename()
		m.Sync()
		return m, func() tea.Msg { return RenamedMsg{Node: n, OK: ok} }
	case "esc":
		m.stopRename()
		return m, nil
	}
	var cmd tea.Cmd
	m.renameInput, cmd = m.renameInput.Update(msg)
	return m, cmd
}

func (m *Model) stopRename() {
	m.renaming = false
	m.renameNode = nil
	m.renameInput.Blur()
}

func (m Model) View() string {
	if len(m.rows) == 0 {
		return "\n  No searches yet.\n\n  Press / to start one."
	}

	var b strings.Builder
	end := m.offset + m.listHeight()
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := m.offset; i < end; i++ {
		line := m.renderRow(m.rows[i])
		if i == m.cursor {
			line = ui.StyleCursor.Render(line)
		}
		b.WriteString(line)
		if i < end-1 {
			b.WriteByte('\n')
		}
	}
	if m.renaming {
		b.WriteString("\n  rename: " + m.renameInput.View())
	}
	return b.String()
}

func (m Model) renderRow(r row) string {
	indent := strings.Repeat("  ", r.depth)
	var line string
	switch n := r.node.(type) {
	case *resulttree.Root:
		state := m.states[n.SessionID]
		if state == "" {
			state = ui.StateDone
			if n.Incomplete {
				state = ui.StateIncomplete
			} else if n.MatchCount == 0 {
				state = ui.StateEmpty
			}
		}
		label := ui.StyleSession.Render(n.Label)
		if n.Incomplete {
			label = ui.StyleWarning.Render(n.Label)
		}
		count := ui.StyleMuted.Render(fmt.Sprintf("(%s)", text.Pluralize(n.MatchCount, "result")))
		line = fmt.Sprintf("%s%s %s %s %s", indent, arrow(n.Expanded), ui.StateIcon(state), label, count)
	case *resulttree.FileGroup:
		count := ui.StyleMuted.Render(fmt.Sprintf("(%d)", n.Len()))
		line = fmt.Sprintf("%s%s %s %s", indent, arrow(n.Expanded), ui.StyleFile.Render(n.Label), count)
	case *resulttree.Leaf:
		prefix := fmt.Sprintf("%s  %s ", indent, ui.StyleLineNo.Render(fmt.Sprintf("%5d:", n.Line)))
		avail := m.width - len(indent) - 9
		if avail < 10 {
			avail = 10
		}
		line = prefix + text.Truncate(avail, strings.TrimSpace(n.Label))
	}
	return line
}

func arrow(expanded bool) string {
	if expanded {
		return "v"
	}
	return ">"
}
