package mirrorview

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cli/go-gh/v2/pkg/text"

	"github.com/altinukshini/rgtree/internal/mirror"
	"github.com/altinukshini/rgtree/internal/ui"
)

type entryItem struct {
	entry    mirror.Entry
	selected bool
}

func (e entryItem) Title() string {
	mark := " "
	if e.selected {
		mark = ui.StyleWarning.Render("● ")
	}
	name := e.entry.Pattern
	if name == "" {
		name = e.entry.SessionID
	}
	if name == "" {
		name = e.entry.Path
	}
	size := ui.StyleWarning.Render(formatSize(e.entry.Size))
	return fmt.Sprintf("%s%s  %s", mark, name, size)
}

func (e entryItem) Description() string {
	parts := []string{}
	if e.entry.Dir != "" {
		parts = append(parts, ui.StyleInfo.Render(e.entry.Dir))
	}
	if !e.entry.CreatedAt.IsZero() {
		parts = append(parts, ui.StyleMuted.Render("searched "+text.RelativeTimeAgo(time.Now(), e.entry.CreatedAt)))
	}
	if !e.entry.ModTime.IsZero() {
		parts = append(parts, ui.StyleMuted.Render("written "+text.RelativeTimeAgo(time.Now(), e.entry.ModTime)))
	}
	return strings.Join(parts, "  ")
}

func (e entryItem) FilterValue() string {
	return e.entry.Pattern + " " + e.entry.Dir + " " + e.entry.SessionID
}

// SortMode determines how mirror files are ordered.
type SortMode int

const (
	SortByCreated SortMode = iota
	SortByWritten
	SortBySize
)

func (s SortMode) String() string {
	switch s {
	case SortByWritten:
		return "written"
	case SortBySize:
		return "size"
	default:
		return "searched"
	}
}

// Model lists the raw result files kept on disk.
type Model struct {
	list      list.Model
	entries   []mirror.Entry
	selected  map[string]bool
	sortMode  SortMode
	totalSize int64
	width     int
	height    int
	loading   bool
	err       error
}

func New() Model {
	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(2)
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.KeyMap.Filter = key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter"))
	l.DisableQuitKeybindings()

	return Model{list: l, selected: make(map[string]bool), loading: true}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ui.MirrorEntriesLoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		m.entries = msg.Entries
		m.selected = make(map[string]bool)
		m.totalSize = msg.TotalSize
		m.sortEntries()
		cmd := m.list.SetItems(m.buildItems())
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Reserve one line for the header.
		m.list.SetSize(msg.Width, msg.Height-1)

	case tea.KeyMsg:
		if msg.String() == " " && !m.IsFiltering() {
			if item, ok := m.list.SelectedItem().(entryItem); ok {
				path := item.entry.Path
				if m.selected[path] {
					delete(m.selected, path)
				} else {
					m.selected[path] = true
				}
				cmd := m.list.SetItems(m.buildItems())
				return m, cmd
			}
			return m, nil
		}
		if msg.String() == "s" && !m.IsFiltering() {
			m.sortMode = (m.sortMode + 1) % 3
			m.sortEntries()
			cmd := m.list.SetItems(m.buildItems())
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.loading {
		return "\n  Loading result files..."
	}
	if m.err != nil {
		return fmt.Sprintf("\n  Error: %v\n\n  Press ctrl+r to retry.", m.err)
	}
	if len(m.entries) == 0 {
		return "\n  No result files.\n\n  Enable file_view to keep a raw copy of each search."
	}

	header := fmt.Sprintf("  %s | Total: %s | Sort: %s | enter: open  s: sort  d: delete  x: clear all  e: evict",
		text.Pluralize(len(m.entries), "file"),
		formatSize(m.totalSize),
		m.sortMode.String(),
	)
	return ui.StyleMuted.Render(header) + "\n" + m.list.View()
}

// SelectedEntry returns the entry under the cursor, or nil.
func (m Model) SelectedEntry() *mirror.Entry {
	if item, ok := m.list.SelectedItem().(entryItem); ok {
		return &item.entry
	}
	return nil
}

// IsFiltering returns true when the user is actively typing a filter.
func (m Model) IsFiltering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m *Model) sortEntries() {
	switch m.sortMode {
	case SortByCreated:
		sort.Slice(m.entries, func(i, j int) bool {
			return m.entries[i].CreatedAt.After(m.entries[j].CreatedAt)
		})
	case SortByWritten:
		sort.Slice(m.entries, func(i, j int) bool {
			return m.entries[i].ModTime.After(m.entries[j].ModTime)
		})
	case SortBySize:
		sort.Slice(m.entries, func(i, j int) bool {
			return m.entries[i].Size > m.entries[j].Size
		})
	}
}

func (m Model) buildItems() []list.Item {
	items := make([]list.Item, len(m.entries))
	for i, e := range m.entries {
		items[i] = entryItem{entry: e, selected: m.selected[e.Path]}
	}
	return items
}

// SelectedPaths returns the paths of all multi-selected files.
func (m Model) SelectedPaths() []string {
	var paths []string
	for p := range m.selected {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (m *Model) ClearSelection() {
	for k := range m.selected {
		delete(m.selected, k)
	}
}

// formatSize formats a byte count into a human-readable string (KB, MB, GB).
func formatSize(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(gb))
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
