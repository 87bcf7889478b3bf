package treeview

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/altinukshini/rgtree/internal/provider"
	"github.com/altinukshini/rgtree/internal/resulttree"
)

func newTestView(t *testing.T) (Model, *provider.Provider) {
	t.Helper()
	p := provider.New(resulttree.New(resulttree.WithExistsFunc(func(string) bool { return true })))
	m := New(p)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})

	p.CreateSession("foo_1", "")
	if err := p.Ingest("foo_1", "a.txt:1:first\na.txt:2:second\nb.txt:9:third\n"); err != nil {
		t.Fatal(err)
	}
	p.CreateSession("bar_1", "")
	m.Sync()
	return m, p
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, _ = m.Update(msg)
	}
	return m
}

func TestRowsFollowTree(t *testing.T) {
	m, _ := newTestView(t)

	// foo_1, a.txt, 2 leaves, b.txt, 1 leaf, bar_1
	if m.Len() != 7 {
		t.Fatalf("Len() = %d, want 7", m.Len())
	}
	view := m.View()
	for _, want := range []string{"foo_1", "a.txt", "second", "b.txt", "bar_1", "3 results"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestToggleCollapses(t *testing.T) {
	m, _ := newTestView(t)

	m = press(m, "space")
	if m.Len() != 2 {
		t.Fatalf("Len() after collapsing foo_1 = %d, want 2", m.Len())
	}
	m = press(m, "space")
	if m.Len() != 7 {
		t.Errorf("Len() after expanding foo_1 = %d, want 7", m.Len())
	}
}

func TestNextMatchMovesCursor(t *testing.T) {
	m, _ := newTestView(t)

	m = press(m, "n")
	if leaf, ok := m.Selected().(*resulttree.Leaf); !ok || leaf.Body != "first" {
		t.Fatalf("Selected() = %v, want leaf 'first'", m.Selected())
	}
	m = press(m, "n", "n")
	if leaf, ok := m.Selected().(*resulttree.Leaf); !ok || leaf.Body != "third" {
		t.Fatalf("Selected() = %v, want leaf 'third'", m.Selected())
	}
	m = press(m, "n")
	if leaf, ok := m.Selected().(*resulttree.Leaf); !ok || leaf.Body != "first" {
		t.Errorf("next after the last match should wrap, got %v", m.Selected())
	}
	m = press(m, "N")
	if leaf, ok := m.Selected().(*resulttree.Leaf); !ok || leaf.Body != "third" {
		t.Errorf("previous from the first match should wrap, got %v", m.Selected())
	}
}

func TestNextMatchExpandsCollapsedParents(t *testing.T) {
	m, p := newTestView(t)
	p.Root("foo_1").Files[1].Expanded = false
	p.Refresh()
	m.Sync()

	m = press(m, "N")
	leaf, ok := m.Selected().(*resulttree.Leaf)
	if !ok || leaf.Body != "third" {
		t.Fatalf("Selected() = %v, want leaf 'third'", m.Selected())
	}
	if !p.Root("foo_1").Files[1].Expanded {
		t.Error("selecting a leaf should expand its file group")
	}
}

func TestCursorSurvivesDeletion(t *testing.T) {
	m, p := newTestView(t)
	m = press(m, "G")
	if root, ok := m.Selected().(*resulttree.Root); !ok || root.SessionID != "bar_1" {
		t.Fatalf("Selected() = %v, want bar_1", m.Selected())
	}

	p.Delete(p.Root("foo_1"))
	m.Sync()
	if root, ok := m.Selected().(*resulttree.Root); !ok || root.SessionID != "bar_1" {
		t.Errorf("cursor moved off bar_1 after deleting foo_1: %v", m.Selected())
	}

	p.Delete(p.Root("bar_1"))
	m.Sync()
	if m.Selected() != nil {
		t.Errorf("Selected() = %v, want nil on an empty tree", m.Selected())
	}
	if !strings.Contains(m.View(), "No searches yet") {
		t.Error("empty tree should show the placeholder")
	}
}

func TestRename(t *testing.T) {
	m, p := newTestView(t)

	m = press(m, "r")
	if !m.IsRenaming() {
		t.Fatal("expected rename mode after pressing r")
	}
	m.renameInput.SetValue("my search")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.IsRenaming() {
		t.Error("rename mode should end on enter")
	}
	if got := p.Root("foo_1").Label; got != "my search" {
		t.Errorf("Label = %q, want %q", got, "my search")
	}
	if msg, ok := cmd().(RenamedMsg); !ok || !msg.OK {
		t.Errorf("cmd() = %v, want successful RenamedMsg", msg)
	}
}

func TestRenameFileGroupRejected(t *testing.T) {
	m, _ := newTestView(t)
	m = press(m, "j")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if m.IsRenaming() {
		t.Error("file groups must not enter rename mode")
	}
	if msg, ok := cmd().(RenamedMsg); !ok || msg.OK {
		t.Errorf("cmd() = %v, want rejected RenamedMsg", msg)
	}
}

func TestRenameEscCancels(t *testing.T) {
	m, p := newTestView(t)
	m = press(m, "r")
	m.renameInput.SetValue("ignored")
	m = press(m, "esc")
	if p.Root("foo_1").Label != "foo_1" {
		t.Errorf("Label = %q, esc should not rename", p.Root("foo_1").Label)
	}
}
