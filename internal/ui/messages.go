package ui

import (
	"github.com/altinukshini/rgtree/internal/mirror"
	"github.com/altinukshini/rgtree/internal/model"
)

// SearchChunkMsg carries one chunk read from a running search. Source is
// the channel to keep reading from; Closed means it was closed without a
// Done chunk.
type SearchChunkMsg struct {
	SessionID string
	Chunk     model.Chunk
	Closed    bool
	Source    <-chan model.Chunk
}

type FileLoadedMsg struct {
	Path    string
	Title   string
	Line    int
	Content string
	Err     error
}

type FileRemovedMsg struct {
	Path string
}

type MirrorEntriesLoadedMsg struct {
	Entries   []mirror.Entry
	TotalSize int64
	Err       error
}

type MirrorEvictedMsg struct {
	Removed int
	Err     error
}

// Action result messages
type ActionResultMsg struct {
	Action  string
	Success bool
	Err     error
}

type StatusMsg struct {
	Text string
}
