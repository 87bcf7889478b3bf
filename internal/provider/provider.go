// Package provider wraps a result tree with change notifications for the
// views that render it.
package provider

import (
	"github.com/altinukshini/rgtree/internal/resulttree"
)

// Provider forwards to a resulttree.Tree and tells subscribers after every
// mutating call that the tree changed. Like the tree, it is not safe for
// concurrent use.
type Provider struct {
	tree      *resulttree.Tree
	listeners map[int]func()
	nextID    int
}

func New(tree *resulttree.Tree) *Provider {
	if tree == nil {
		tree = resulttree.New()
	}
	return &Provider{tree: tree, listeners: make(map[int]func())}
}

// Subscribe registers fn to run after each change and returns a function
// that removes it.
func (p *Provider) Subscribe(fn func()) (cancel func()) {
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	return func() { delete(p.listeners, id) }
}

// Refresh notifies subscribers without changing anything.
func (p *Provider) Refresh() {
	for _, fn := range p.listeners {
		fn()
	}
}

func (p *Provider) CreateSession(sessionID, dir string) {
	defer p.Refresh()
	p.tree.CreateSessionIn(sessionID, dir)
}

// Ingest adds a chunk of matcher output. A *resulttree.CapacityError means
// the session was cut short; subscribers are notified either way since part
// of the chunk may have been applied.
func (p *Provider) Ingest(sessionID, chunk string) error {
	defer p.Refresh()
	return p.tree.Ingest(sessionID, chunk)
}

// Complete flushes the last partial line of a finished search.
func (p *Provider) Complete(sessionID string) error {
	defer p.Refresh()
	return p.tree.Complete(sessionID)
}

func (p *Provider) Delete(n resulttree.Node) {
	defer p.Refresh()
	p.tree.Delete(n)
}

// Rename relabels a session or match; file groups are left alone.
func (p *Provider) Rename(n resulttree.Node, label string) bool {
	defer p.Refresh()
	return p.tree.Rename(n, label)
}

// PruneFile drops every file group for path, e.g. after the file was
// removed from disk. It returns the number of matches removed.
func (p *Provider) PruneFile(path string) int {
	defer p.Refresh()
	removed := 0
	for _, group := range p.tree.FileGroups(path) {
		removed += group.Len()
		p.tree.Delete(group)
	}
	return removed
}

func (p *Provider) Parent(n resulttree.Node) resulttree.Node { return p.tree.Parent(n) }

func (p *Provider) Children(n resulttree.Node) []resulttree.Node { return p.tree.Children(n) }

func (p *Provider) Next(n resulttree.Node) *resulttree.Leaf { return p.tree.Next(n) }

func (p *Provider) Previous(n resulttree.Node) *resulttree.Leaf { return p.tree.Previous(n) }

func (p *Provider) SessionExists(sessionID string) bool { return p.tree.SessionExists(sessionID) }

func (p *Provider) Root(sessionID string) *resulttree.Root { return p.tree.Root(sessionID) }

func (p *Provider) Roots() []*resulttree.Root { return p.tree.Roots() }

func (p *Provider) Total() int { return p.tree.Total() }

func (p *Provider) Limit() int { return p.tree.Limit() }

// Paths lists the distinct file paths currently in the tree.
func (p *Provider) Paths() []string {
	seen := make(map[string]bool)
	var out []string
	for _, root := range p.tree.Roots() {
		for _, group := range root.Files {
			if !seen[group.Path] {
				seen[group.Path] = true
				out = append(out, group.Path)
			}
		}
	}
	return out
}
