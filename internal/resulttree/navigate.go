package resulttree

// position locates a node; unused levels are -1.
type position struct {
	root, file, leaf int
}

func (t *Tree) locate(n Node) (position, bool) {
	pos := position{root: -1, file: -1, leaf: -1}

	switch n := n.(type) {
	case *Root:
		if n == nil {
			return pos, false
		}
		pos.root = t.rootIndex(n.SessionID)
		return pos, pos.root >= 0

	case *FileGroup:
		if n == nil {
			return pos, false
		}
		pos.root = t.rootIndex(n.SessionID)
		if pos.root < 0 {
			return pos, false
		}
		pos.file = fileIndex(t.roots[pos.root], n.Path)
		return pos, pos.file >= 0

	case *Leaf:
		if n == nil {
			return pos, false
		}
		pos.root = t.rootIndex(n.SessionID)
		if pos.root < 0 {
			return pos, false
		}
		root := t.roots[pos.root]
		pos.file = fileIndex(root, n.Path)
		if pos.file < 0 {
			return pos, false
		}
		pos.leaf = leafIndex(root.Files[pos.file], n)
		return pos, pos.leaf >= 0
	}
	return pos, false
}

// Parent returns the session of a file group or the file group of a match.
// Sessions, and nodes no longer in the tree, have no parent.
func (t *Tree) Parent(n Node) Node {
	switch n := n.(type) {
	case *FileGroup:
		if n == nil {
			return nil
		}
		if root := t.byID[n.SessionID]; root != nil {
			return root
		}
	case *Leaf:
		if n == nil {
			return nil
		}
		if group := t.fileGroup(n.SessionID, n.Path); group != nil {
			return group
		}
	}
	return nil
}

// SiblingIndex is the position of n among its parent's children, or among
// the sessions for a *Root. It returns -1 for nodes not in the tree.
func (t *Tree) SiblingIndex(n Node) int {
	pos, ok := t.locate(n)
	if !ok {
		return -1
	}
	switch n.(type) {
	case *Root:
		return pos.root
	case *FileGroup:
		return pos.file
	default:
		return pos.leaf
	}
}

// Next returns the match after n when all matches of all sessions are read
// as one list that wraps around at the end. From a session it returns the
// session's first match; from a file group its first match.
func (t *Tree) Next(n Node) *Leaf {
	pos, ok := t.locate(n)
	if !ok {
		return nil
	}
	root := t.roots[pos.root]

	switch n.(type) {
	case *Root:
		return firstLeaf(root.Files)
	case *FileGroup:
		if group := root.Files[pos.file]; len(group.Results) > 0 {
			return group.Results[0]
		}
		return t.leafAfter(pos.root, pos.file)
	default:
		group := root.Files[pos.file]
		if pos.leaf+1 < len(group.Results) {
			return group.Results[pos.leaf+1]
		}
		return t.leafAfter(pos.root, pos.file)
	}
}

// Previous mirrors Next. From a session it returns the session's last match;
// from a file group the last match before the group.
func (t *Tree) Previous(n Node) *Leaf {
	pos, ok := t.locate(n)
	if !ok {
		return nil
	}
	root := t.roots[pos.root]

	switch n.(type) {
	case *Root:
		return lastLeaf(root.Files)
	case *FileGroup:
		return t.leafBefore(pos.root, pos.file)
	default:
		if pos.leaf > 0 {
			return root.Files[pos.file].Results[pos.leaf-1]
		}
		return t.leafBefore(pos.root, pos.file)
	}
}

// leafAfter returns the first match of the first non-empty group following
// group fi of session ri. The scan wraps across sessions and ends on group fi
// itself, so a lone group yields its own first match.
func (t *Tree) leafAfter(ri, fi int) *Leaf {
	n := len(t.roots)
	for i := 0; i <= n; i++ {
		files := t.roots[(ri+i)%n].Files
		from, to := 0, len(files)
		if i == 0 {
			from = fi + 1
		}
		if i == n {
			to = fi + 1
		}
		for f := from; f < to; f++ {
			if len(files[f].Results) > 0 {
				return files[f].Results[0]
			}
		}
	}
	return nil
}

// leafBefore is leafAfter walking backwards and returning last matches.
func (t *Tree) leafBefore(ri, fi int) *Leaf {
	n := len(t.roots)
	for i := 0; i <= n; i++ {
		files := t.roots[((ri-i)%n+n)%n].Files
		from, to := len(files)-1, -1
		if i == 0 {
			from = fi - 1
		}
		if i == n {
			to = fi - 1
		}
		for f := from; f > to; f-- {
			if k := len(files[f].Results); k > 0 {
				return files[f].Results[k-1]
			}
		}
	}
	return nil
}

func firstLeaf(files []*FileGroup) *Leaf {
	for _, f := range files {
		if len(f.Results) > 0 {
			return f.Results[0]
		}
	}
	return nil
}

func lastLeaf(files []*FileGroup) *Leaf {
	for i := len(files) - 1; i >= 0; i-- {
		if k := len(files[i].Results); k > 0 {
			return files[i].Results[k-1]
		}
	}
	return nil
}
