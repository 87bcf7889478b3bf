package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit       key.Binding
	Help       key.Binding
	Tab        key.Binding
	Enter      key.Binding
	Back       key.Binding
	Search     key.Binding
	Delete     key.Binding
	Rename     key.Binding
	Toggle     key.Binding
	NextMatch  key.Binding
	PrevMatch  key.Binding
	NextResult key.Binding
	PrevResult key.Binding
	Cancel     key.Binding
	ClearEmpty key.Binding
	ClearAll   key.Binding
	Refresh    key.Binding
	Filter     key.Binding
	Info       key.Binding
	Up         key.Binding
	Down       key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Top        key.Binding
	Bottom     key.Binding
}

var Keys = KeyMap{
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Tab:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
	Enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Rename:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename")),
	Toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "expand/collapse")),
	NextMatch:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next match")),
	PrevMatch:  key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "previous match")),
	NextResult: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "open next result")),
	PrevResult: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "open previous result")),
	Cancel:     key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "cancel search")),
	ClearEmpty: key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "delete empty sessions")),
	ClearAll:   key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "delete all sessions")),
	Refresh:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
	Filter:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
	Info:       key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "session info")),
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/up", "up")),
	Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/down", "down")),
	PageUp:     key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown:   key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	Top:        key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
	Bottom:     key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
}
