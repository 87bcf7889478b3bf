package resulttree

import "time"

// IncompleteSuffix is appended to a session label once its results were cut
// off by the result limit.
const IncompleteSuffix = " !!!!!incomplete!!!!!"

// Node is a *Root, *FileGroup or *Leaf. Fields on the concrete types are
// read-only for callers; all mutation goes through the Tree.
type Node interface {
	Session() string
	Title() string
	node()
}

// Root is one search session.
type Root struct {
	SessionID  string
	Label      string
	Dir        string // search directory, used to shorten file labels
	MatchCount int
	Files      []*FileGroup
	Expanded   bool
	Incomplete bool
	CreatedAt  time.Time

	files   map[string]*FileGroup
	pending string // trailing partial line of the last chunk
}

// FileGroup collects the matches found in one file for one session.
type FileGroup struct {
	SessionID string
	Path      string
	Label     string
	Results   []*Leaf
	Expanded  bool
}

// Leaf is a single matched line.
type Leaf struct {
	ID        uint64 // creation order, unique per tree
	SessionID string
	Path      string
	Line      int
	Body      string
	Label     string
}

func (r *Root) Session() string { return r.SessionID }
func (r *Root) Title() string   { return r.Label }
func (*Root) node()             {}

func (f *FileGroup) Session() string { return f.SessionID }
func (f *FileGroup) Title() string   { return f.Label }
func (*FileGroup) node()             {}

func (l *Leaf) Session() string { return l.SessionID }
func (l *Leaf) Title() string   { return l.Label }
func (*Leaf) node()             {}

// Len returns the number of matches in the group.
func (f *FileGroup) Len() int { return len(f.Results) }

func (r *Root) markIncomplete() {
	if r.Incomplete {
		return
	}
	r.Incomplete = true
	r.Label += IncompleteSuffix
}
