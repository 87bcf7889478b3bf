// Package resulttree holds search results as a forest of sessions, each
// grouping its matches by file.
//
// A Tree is not safe for concurrent use. It is meant to be driven from a
// single goroutine, such as a bubbletea update loop, so every query sees
// whole chunks only.
package resulttree

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// DefaultLimit is the most matches kept per session and across the tree.
const DefaultLimit = 10240

// ExistsFunc reports whether a matched file is still on disk.
type ExistsFunc func(path string) bool

// FileExists is the default ExistsFunc.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

type Option func(*Tree)

// WithLimit overrides DefaultLimit.
func WithLimit(n int) Option {
	return func(t *Tree) {
		if n > 0 {
			t.limit = n
		}
	}
}

// WithExistsFunc replaces the filesystem check used during ingestion.
func WithExistsFunc(fn ExistsFunc) Option {
	return func(t *Tree) {
		if fn != nil {
			t.exists = fn
		}
	}
}

// WithClock sets the time source for session creation times.
func WithClock(now func() time.Time) Option {
	return func(t *Tree) {
		if now != nil {
			t.now = now
		}
	}
}

type Tree struct {
	roots  []*Root
	byID   map[string]*Root
	total  int
	limit  int
	lastID uint64
	exists ExistsFunc
	now    func() time.Time
}

func New(opts ...Option) *Tree {
	t := &Tree{
		byID:   make(map[string]*Root),
		limit:  DefaultLimit,
		exists: FileExists,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CreateSession appends an empty session. It is a no-op when the session
// already exists.
func (t *Tree) CreateSession(sessionID string) {
	t.CreateSessionIn(sessionID, "")
}

// CreateSessionIn is CreateSession for a search rooted at dir; file labels
// are shown relative to it.
func (t *Tree) CreateSessionIn(sessionID, dir string) {
	if _, ok := t.byID[sessionID]; ok {
		return
	}
	root := &Root{
		SessionID: sessionID,
		Label:     sessionID,
		Dir:       dir,
		Expanded:  true,
		CreatedAt: t.now(),
		files:     make(map[string]*FileGroup),
	}
	t.roots = append(t.roots, root)
	t.byID[sessionID] = root
}

// Ingest feeds a chunk of matcher output into a session. Chunks need not end
// on a line boundary; a trailing partial line is held until the next chunk or
// Complete. Ingesting into an unknown or deleted session does nothing.
//
// When the session or the tree reaches the limit, Ingest stops at that line,
// marks the session incomplete and returns a *CapacityError. Matches accepted
// before that point stay in the tree.
func (t *Tree) Ingest(sessionID, chunk string) error {
	root := t.byID[sessionID]
	if root == nil {
		return nil
	}
	if root.Incomplete {
		root.pending = ""
		return t.capacityError(root)
	}

	data := root.pending + chunk
	cut := strings.LastIndexByte(data, '\n')
	if cut < 0 {
		root.pending = data
		return nil
	}
	root.pending = data[cut+1:]
	return t.ingestLines(root, data[:cut])
}

// Complete flushes the partial line still buffered for a session, for use
// once the matcher has exited.
func (t *Tree) Complete(sessionID string) error {
	root := t.byID[sessionID]
	if root == nil || root.pending == "" {
		return nil
	}
	rest := root.pending
	root.pending = ""
	if root.Incomplete {
		return nil
	}
	return t.ingestLines(root, rest)
}

func (t *Tree) ingestLines(root *Root, block string) error {
	for _, line := range strings.Split(block, "\n") {
		m, ok := t.resolve(line)
		if !ok {
			continue
		}
		if root.MatchCount >= t.limit || t.total >= t.limit {
			root.pending = ""
			root.markIncomplete()
			return t.capacityError(root)
		}
		t.attach(root, m)
	}
	return nil
}

func (t *Tree) capacityError(root *Root) error {
	return &CapacityError{
		SessionID: root.SessionID,
		Limit:     t.limit,
		Global:    root.MatchCount < t.limit,
	}
}

// resolve picks the first parse of line whose file exists.
func (t *Tree) resolve(line string) (Match, bool) {
	for _, m := range Candidates(line) {
		if t.exists(m.File) {
			return m, true
		}
	}
	return Match{}, false
}

func (t *Tree) attach(root *Root, m Match) {
	group := root.files[m.File]
	if group == nil {
		group = &FileGroup{
			SessionID: root.SessionID,
			Path:      m.File,
			Label:     fileLabel(root.Dir, m.File),
			Expanded:  true,
		}
		root.files[m.File] = group
		root.Files = append(root.Files, group)
	}

	t.lastID++
	group.Results = append(group.Results, &Leaf{
		ID:        t.lastID,
		SessionID: root.SessionID,
		Path:      m.File,
		Line:      m.Line,
		Body:      m.Body,
		Label:     m.Body,
	})
	root.MatchCount++
	t.total++
}

func fileLabel(dir, path string) string {
	if dir == "" {
		return path
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

// Delete removes a session, a file group or a single match and updates the
// counters. Nodes that are no longer in the tree are ignored.
func (t *Tree) Delete(n Node) {
	switch n := n.(type) {
	case *Root:
		if n == nil {
			return
		}
		i := t.rootIndex(n.SessionID)
		if i < 0 {
			return
		}
		root := t.roots[i]
		t.total -= root.MatchCount
		t.roots = slices.Delete(t.roots, i, i+1)
		delete(t.byID, root.SessionID)

	case *FileGroup:
		if n == nil {
			return
		}
		root := t.byID[n.SessionID]
		if root == nil {
			return
		}
		i := fileIndex(root, n.Path)
		if i < 0 {
			return
		}
		removed := len(root.Files[i].Results)
		root.Files = slices.Delete(root.Files, i, i+1)
		delete(root.files, n.Path)
		root.MatchCount -= removed
		t.total -= removed

	case *Leaf:
		if n == nil {
			return
		}
		root := t.byID[n.SessionID]
		if root == nil {
			return
		}
		group := root.files[n.Path]
		if group == nil {
			return
		}
		i := leafIndex(group, n)
		if i < 0 {
			return
		}
		group.Results = slices.Delete(group.Results, i, i+1)
		root.MatchCount--
		t.total--
	}
}

// Rename sets the label of a session or a match. File groups keep the label
// derived from their path, so renaming one reports false and changes nothing.
func (t *Tree) Rename(n Node, label string) bool {
	switch n := n.(type) {
	case *Root:
		if n == nil {
			return false
		}
		root := t.byID[n.SessionID]
		if root == nil {
			return false
		}
		root.Label = label
		return true

	case *Leaf:
		if n == nil {
			return false
		}
		leaf := t.leaf(n)
		if leaf == nil {
			return false
		}
		leaf.Label = label
		return true
	}
	return false
}

// Roots returns the sessions in creation order.
func (t *Tree) Roots() []*Root {
	return slices.Clone(t.roots)
}

// Root returns the session with the given id, or nil.
func (t *Tree) Root(sessionID string) *Root {
	return t.byID[sessionID]
}

func (t *Tree) SessionExists(sessionID string) bool {
	_, ok := t.byID[sessionID]
	return ok
}

// Total is the number of matches across all sessions.
func (t *Tree) Total() int { return t.total }

func (t *Tree) Limit() int { return t.limit }

// FileGroups returns every group for path, one per session that matched it.
func (t *Tree) FileGroups(path string) []*FileGroup {
	var out []*FileGroup
	for _, root := range t.roots {
		if group := root.files[path]; group != nil {
			out = append(out, group)
		}
	}
	return out
}

// Children lists the children of n; a nil node lists the sessions.
func (t *Tree) Children(n Node) []Node {
	var out []Node
	switch n := n.(type) {
	case nil:
		for _, root := range t.roots {
			out = append(out, root)
		}
	case *Root:
		if n == nil {
			break
		}
		if root := t.Root(n.SessionID); root != nil {
			for _, group := range root.Files {
				out = append(out, group)
			}
		}
	case *FileGroup:
		if n == nil {
			break
		}
		if group := t.fileGroup(n.SessionID, n.Path); group != nil {
			for _, leaf := range group.Results {
				out = append(out, leaf)
			}
		}
	}
	return out
}

func (t *Tree) rootIndex(sessionID string) int {
	if _, ok := t.byID[sessionID]; !ok {
		return -1
	}
	return slices.IndexFunc(t.roots, func(r *Root) bool { return r.SessionID == sessionID })
}

func (t *Tree) fileGroup(sessionID, path string) *FileGroup {
	root := t.byID[sessionID]
	if root == nil {
		return nil
	}
	return root.files[path]
}

func (t *Tree) leaf(l *Leaf) *Leaf {
	group := t.fileGroup(l.SessionID, l.Path)
	if group == nil {
		return nil
	}
	if i := leafIndex(group, l); i >= 0 {
		return group.Results[i]
	}
	return nil
}

func fileIndex(root *Root, path string) int {
	return slices.IndexFunc(root.Files, func(f *FileGroup) bool { return f.Path == path })
}

// leafIndex finds l by creation id. References built by hand carry no id and
// fall back to the first match with the same line and body.
func leafIndex(group *FileGroup, l *Leaf) int {
	if l.ID != 0 {
		return slices.IndexFunc(group.Results, func(x *Leaf) bool { return x.ID == l.ID })
	}
	return slices.IndexFunc(group.Results, func(x *Leaf) bool {
		return x.Line == l.Line && x.Body == l.Body
	})
}
