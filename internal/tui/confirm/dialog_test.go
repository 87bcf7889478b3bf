package confirm

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestAnswers(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want bool
	}{
		{"yes", []tea.KeyMsg{{Type: tea.KeyRunes, Runes: []rune{'y'}}}, true},
		{"no", []tea.KeyMsg{{Type: tea.KeyRunes, Runes: []rune{'n'}}}, false},
		{"esc", []tea.KeyMsg{{Type: tea.KeyEsc}}, false},
		{"enter defaults to no", []tea.KeyMsg{{Type: tea.KeyEnter}}, false},
		{"tab then enter", []tea.KeyMsg{{Type: tea.KeyTab}, {Type: tea.KeyEnter}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New("Delete", "Delete session?", "delete", "foo_1")
			var cmd tea.Cmd
			for _, k := range tt.keys {
				m, cmd = m.Update(k)
			}
			if m.IsActive() {
				t.Error("dialog should close after answering")
			}
			res, ok := cmd().(ResultMsg)
			if !ok {
				t.Fatalf("cmd() = %T, want ResultMsg", cmd())
			}
			if res.Confirmed != tt.want {
				t.Errorf("Confirmed = %v, want %v", res.Confirmed, tt.want)
			}
			if res.Action != "delete" || res.Data != "foo_1" {
				t.Errorf("ResultMsg = %+v, want action and data passed through", res)
			}
		})
	}
}

func TestInactiveIgnoresKeys(t *testing.T) {
	var m Model
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})
	if cmd != nil || m.View() != "" {
		t.Error("inactive dialog should do nothing")
	}
}

func TestItemsListed(t *testing.T) {
	var items []string
	for i := 1; i <= 7; i++ {
		items = append(items, fmt.Sprintf("foo_%d (1 result)", i))
	}
	m := New("Delete Sessions", "Delete 7 sessions?", "delete-sessions", nil).WithItems(items)
	view := m.View()

	for _, want := range []string{"foo_1 (1 result)", "foo_5 (1 result)", "and 2 more", "Delete 7", "Keep"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "foo_6") {
		t.Errorf("View() should stop listing after %d items:\n%s", maxListed, view)
	}
}

func TestSingleItemButton(t *testing.T) {
	m := New("Delete Logs", "Delete 1 log?", "delete-logs", nil).WithItems([]string{"a.log"})
	if got := m.deleteLabel(); got != "Delete" {
		t.Errorf("deleteLabel() = %q, want Delete", got)
	}
	if !strings.Contains(m.View(), "a.log") {
		t.Errorf("View() should list the item:\n%s", m.View())
	}
}
