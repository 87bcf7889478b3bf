package infoview

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/altinukshini/rgtree/internal/model"
	"github.com/altinukshini/rgtree/internal/resulttree"
	"github.com/altinukshini/rgtree/internal/ui"
)

func TestEmpty(t *testing.T) {
	m := New()
	if !strings.Contains(m.View(), "Select a session") {
		t.Errorf("View() = %q, want placeholder", m.View())
	}
	if m.SessionID() != "" {
		t.Errorf("SessionID() = %q, want empty", m.SessionID())
	}
}

func TestSessionDetails(t *testing.T) {
	created := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	tree := resulttree.New(
		resulttree.WithExistsFunc(func(string) bool { return true }),
		resulttree.WithClock(func() time.Time { return created }),
	)
	tree.CreateSessionIn("foo_1", "/src")
	if err := tree.Ingest("foo_1", "/src/a.go:3:foo()\n/src/a.go:9:foo\n/src/b.go:1:foo\n"); err != nil {
		t.Fatal(err)
	}

	m := New()
	m.now = func() time.Time { return created.Add(2 * time.Hour) }
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m.SetSession(Session{
		Root:       tree.Root("foo_1"),
		Query:      model.SearchQuery{Pattern: "foo", Globs: []string{"*.go"}, IsRegex: true},
		State:      ui.StateDone,
		MirrorPath: "/tmp/foo.log",
	})

	if m.SessionID() != "foo_1" {
		t.Errorf("SessionID() = %q, want foo_1", m.SessionID())
	}
	out := m.View()
	for _, want := range []string{
		"/src",
		"about 2 hours ago",
		"regex, ignore case",
		"*.go",
		"/tmp/foo.log",
		"3 results in 2 files",
		"a.go",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}
