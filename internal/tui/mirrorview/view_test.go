package mirrorview

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/altinukshini/rgtree/internal/mirror"
	"github.com/altinukshini/rgtree/internal/ui"
)

func loaded(t *testing.T) Model {
	t.Helper()
	now := time.Now()
	entries := []mirror.Entry{
		{Meta: mirror.Meta{SessionID: "a_1", Pattern: "alpha", CreatedAt: now.Add(-time.Hour)}, Path: "/m/a.log", Size: 10, ModTime: now},
		{Meta: mirror.Meta{SessionID: "b_1", Pattern: "beta", CreatedAt: now}, Path: "/m/b.log", Size: 2048, ModTime: now.Add(-time.Hour)},
	}
	m := New()
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	m, _ = m.Update(ui.MirrorEntriesLoadedMsg{Entries: entries, TotalSize: 2058})
	return m
}

func TestLoadedEntries(t *testing.T) {
	m := loaded(t)
	if len(m.list.Items()) != 2 {
		t.Fatalf("got %d items, want 2", len(m.list.Items()))
	}
	if e := m.SelectedEntry(); e == nil || e.Pattern != "beta" {
		t.Errorf("SelectedEntry() = %v, want newest search first", e)
	}
	view := m.View()
	if !strings.Contains(view, "2 files") || !strings.Contains(view, "2.0 KB") {
		t.Errorf("header missing counts:\n%s", view)
	}
}

func TestSortCycles(t *testing.T) {
	m := loaded(t)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	if m.sortMode != SortByWritten {
		t.Fatalf("sortMode = %v, want written", m.sortMode)
	}
	if e := m.SelectedEntry(); e == nil || e.Pattern != "alpha" {
		t.Errorf("SelectedEntry() = %v, want most recently written", e)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	if e := m.SelectedEntry(); e == nil || e.Pattern != "beta" {
		t.Errorf("SelectedEntry() = %v, want largest", e)
	}
}

func TestSelection(t *testing.T) {
	m := loaded(t)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if got := m.SelectedPaths(); len(got) != 1 || got[0] != "/m/b.log" {
		t.Errorf("SelectedPaths() = %v, want [/m/b.log]", got)
	}
	m.ClearSelection()
	if len(m.SelectedPaths()) != 0 {
		t.Error("ClearSelection left paths selected")
	}
}

func TestEmptyAndError(t *testing.T) {
	m := New()
	m, _ = m.Update(ui.MirrorEntriesLoadedMsg{})
	if !strings.Contains(m.View(), "No result files") {
		t.Errorf("View() = %q, want empty message", m.View())
	}
	m, _ = m.Update(ui.MirrorEntriesLoadedMsg{Err: errTest})
	if !strings.Contains(m.View(), "boom") {
		t.Errorf("View() = %q, want error", m.View())
	}
}

type testErr string

func (e testErr) Error() string { return string(e) }

const errTest = testErr("boom")
