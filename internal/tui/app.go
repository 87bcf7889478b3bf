package tui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cli/go-gh/v2/pkg/text"

	"github.com/altinukshini/rgtree/internal/config"
	"github.com/altinukshini/rgtree/internal/mirror"
	"github.com/altinukshini/rgtree/internal/model"
	"github.com/altinukshini/rgtree/internal/ops"
	"github.com/altinukshini/rgtree/internal/provider"
	"github.com/altinukshini/rgtree/internal/resulttree"
	"github.com/altinukshini/rgtree/internal/rg"
	"github.com/altinukshini/rgtree/internal/tui/confirm"
	"github.com/altinukshini/rgtree/internal/tui/fileview"
	"github.com/altinukshini/rgtree/internal/tui/filteroverlay"
	"github.com/altinukshini/rgtree/internal/tui/infoview"
	"github.com/altinukshini/rgtree/internal/tui/mirrorview"
	"github.com/altinukshini/rgtree/internal/tui/searchview"
	"github.com/altinukshini/rgtree/internal/tui/treeview"
	"github.com/altinukshini/rgtree/internal/ui"
	"github.com/altinukshini/rgtree/internal/watch"
)

type View int

const (
	ViewResults View = iota
	ViewLogs
)

// Searcher starts a search and streams its output. Both the rg runner and
// the built-in engine implement it.
type Searcher interface {
	Start(ctx context.Context, sessionID string, q model.SearchQuery) (<-chan model.Chunk, error)
}

type Options struct {
	Config   config.Config
	Provider *provider.Provider
	Searcher Searcher
	Mirror   *mirror.Mirror // nil disables the Logs tab
	Watcher  *watch.Watcher // nil disables pruning of deleted files
	Dir      string
	Initial  *model.SearchQuery
}

type App struct {
	cfg      config.Config
	provider *provider.Provider
	searcher Searcher
	mirror   *mirror.Mirror
	watcher  *watch.Watcher
	dir      string
	initial  *model.SearchQuery

	// Views
	treeView      treeview.Model
	fileView      fileview.Model
	infoView      infoview.Model
	mirrorView    mirrorview.Model
	searchView    searchview.Model
	confirmDialog confirm.Model
	filterOverlay filteroverlay.Model
	lastFilter    ops.SessionFilter
	spinner       spinner.Model

	// Searches in flight, keyed by session id
	running    map[string]context.CancelFunc
	queries    map[string]model.SearchQuery
	discarding map[string]bool
	watched    map[string]bool
	spinning   bool

	// State
	currentView    View
	width          int
	height         int
	status         string
	showHelp       bool
	fileFullScreen bool
	showInfo       bool
}

func NewApp(opts Options) App {
	p := opts.Provider
	if p == nil {
		p = provider.New(nil)
	}
	dir := opts.Dir
	if dir == "" {
		dir, _ = os.Getwd()
	}
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(ui.ColorPrimary)),
	)
	return App{
		cfg:         opts.Config,
		provider:    p,
		searcher:    opts.Searcher,
		mirror:      opts.Mirror,
		watcher:     opts.Watcher,
		dir:         dir,
		initial:     opts.Initial,
		treeView:    treeview.New(p),
		fileView:    fileview.New(),
		infoView:    infoview.New(),
		mirrorView:  mirrorview.New(),
		searchView:  searchview.New(dir, opts.Config.DefaultGlobs, opts.Config.RawArgs, opts.Config.Encoding),
		spinner:     sp,
		running:     make(map[string]context.CancelFunc),
		queries:     make(map[string]model.SearchQuery),
		discarding:  make(map[string]bool),
		watched:     make(map[string]bool),
		currentView: ViewResults,
		status:      "Press / to search",
	}
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.loadMirrorEntries(), a.waitForRemoval()}
	if a.initial != nil {
		q := *a.initial
		cmds = append(cmds, func() tea.Msg { return searchview.SubmitMsg{Query: q} })
	}
	return tea.Batch(cmds...)
}

// --- Commands ---

func waitForChunk(sessionID string, ch <-chan model.Chunk) tea.Cmd {
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return ui.SearchChunkMsg{SessionID: sessionID, Closed: true, Source: ch}
		}
		return ui.SearchChunkMsg{SessionID: sessionID, Chunk: c, Source: ch}
	}
}

func (a App) waitForRemoval() tea.Cmd {
	if a.watcher == nil {
		return nil
	}
	ch := a.watcher.Removed()
	return func() tea.Msg {
		path, ok := <-ch
		if !ok {
			return nil
		}
		return ui.FileRemovedMsg{Path: path}
	}
}

func (a App) loadMirrorEntries() tea.Cmd {
	m := a.mirror
	return func() tea.Msg {
		if m == nil {
			return ui.MirrorEntriesLoadedMsg{}
		}
		entries, err := m.ListEntries()
		if err != nil {
			return ui.MirrorEntriesLoadedMsg{Err: err}
		}
		size, err := m.TotalSize()
		if err != nil {
			return ui.MirrorEntriesLoadedMsg{Err: err}
		}
		return ui.MirrorEntriesLoadedMsg{Entries: entries, TotalSize: size}
	}
}

func openFile(path, title string, line int, enc string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return ui.FileLoadedMsg{Path: path, Err: err}
		}
		dec, err := rg.Decoder(enc)
		if err != nil {
			return ui.FileLoadedMsg{Path: path, Err: err}
		}
		decoded, err := dec.Bytes(data)
		if err != nil {
			return ui.FileLoadedMsg{Path: path, Err: fmt.Errorf("decode %s: %w", path, err)}
		}
		return ui.FileLoadedMsg{Path: path, Title: title, Line: line, Content: string(decoded)}
	}
}

func (a App) openMirrorEntry(e mirror.Entry) tea.Cmd {
	m := a.mirror
	return func() tea.Msg {
		content, err := m.Read(e.Path)
		if err != nil {
			return ui.FileLoadedMsg{Path: e.Path, Err: err}
		}
		return ui.FileLoadedMsg{Path: e.Path, Title: e.SessionID, Content: content}
	}
}

func (a App) deleteMirrorEntries(paths []string) tea.Cmd {
	m := a.mirror
	return func() tea.Msg {
		var errs []error
		for _, p := range paths {
			if err := m.DeleteEntry(p); err != nil {
				errs = append(errs, err)
			}
		}
		return ui.ActionResultMsg{Action: "delete-log", Success: len(errs) == 0, Err: errors.Join(errs...)}
	}
}

func (a App) clearMirror() tea.Cmd {
	m := a.mirror
	return func() tea.Msg {
		err := m.DeleteAll()
		return ui.ActionResultMsg{Action: "clear-logs", Success: err == nil, Err: err}
	}
}

func (a App) evictMirror() tea.Cmd {
	m := a.mirror
	return func() tea.Msg {
		n, err := m.Evict()
		return ui.MirrorEvictedMsg{Removed: n, Err: err}
	}
}

// --- Search lifecycle ---

func (a *App) startSearch(q model.SearchQuery) tea.Cmd {
	if a.searcher == nil {
		a.status = "Error: no search backend"
		return nil
	}
	if q.Dir == "" {
		q.Dir = a.dir
	}
	if abs, err := filepath.Abs(q.Dir); err == nil {
		q.Dir = abs
	}
	if q.Encoding == "" {
		q.Encoding = a.cfg.Encoding
	}

	now := time.Now()
	id := model.NewSessionID(q.Pattern, now)
	for a.provider.SessionExists(id) {
		now = now.Add(time.Millisecond)
		id = model.NewSessionID(q.Pattern, now)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := a.searcher.Start(ctx, id, q)
	if err != nil {
		cancel()
		a.status = fmt.Sprintf("Error: %v", err)
		return nil
	}

	a.provider.CreateSession(id, q.Dir)
	if a.cfg.FileView && a.mirror != nil {
		if _, err := a.mirror.Create(mirror.Meta{SessionID: id, Pattern: q.Pattern, Dir: q.Dir, CreatedAt: now}); err != nil {
			log.Printf("mirror %s: %v", id, err)
		}
	}
	a.running[id] = cancel
	a.queries[id] = q
	a.treeView.SetState(id, ui.StateRunning)
	a.treeView.Sync()
	if root := a.provider.Root(id); root != nil {
		a.treeView.Select(root)
	}
	a.status = fmt.Sprintf("Searching for %q in %s...", q.Pattern, q.Dir)
	log.Printf("search %s started: %+v", id, q)

	cmds := []tea.Cmd{waitForChunk(id, ch)}
	if !a.spinning {
		a.spinning = true
		cmds = append(cmds, a.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (a *App) handleChunk(msg ui.SearchChunkMsg) tea.Cmd {
	id := msg.SessionID
	if msg.Closed || msg.Chunk.Done {
		a.finishSearch(id, msg.Chunk.Err)
		return nil
	}
	next := waitForChunk(id, msg.Source)

	// Cancelled or deleted sessions are drained without being stored.
	if _, ok := a.running[id]; !ok {
		return next
	}

	raw := msg.Chunk.Text
	if msg.Chunk.Stream == model.Stderr {
		// Diagnostics never enter the tree or the mirror; a partial stdout
		// line may still be pending.
		if line := lastLine(raw); line != "" {
			a.status = line
		}
		log.Printf("search %s stderr: %s", id, strings.TrimRight(raw, "\n"))
		return next
	}
	if a.cfg.FileView && a.mirror != nil {
		if err := a.mirror.Append(id, raw); err != nil {
			log.Printf("mirror %s: %v", id, err)
		}
	}
	if !a.cfg.TreeView || a.discarding[id] {
		return next
	}

	if err := a.provider.Ingest(id, raw); err != nil {
		if errors.Is(err, resulttree.ErrCapacityExceeded) {
			a.discarding[id] = true
			a.status = fmt.Sprintf("Result limit of %d reached; %s is incomplete", a.provider.Limit(), id)
		} else {
			a.status = fmt.Sprintf("Error: %v", err)
		}
		log.Printf("ingest %s: %v", id, err)
	}
	a.trackPaths()
	return next
}

func (a *App) finishSearch(id string, runErr error) {
	cancel, wasRunning := a.running[id]
	if wasRunning {
		cancel()
		delete(a.running, id)
	}
	delete(a.discarding, id)
	delete(a.queries, id)
	if a.showInfo && a.infoView.SessionID() == id {
		a.showInfo = false
	}
	if a.mirror != nil {
		if err := a.mirror.Close(id); err != nil {
			log.Printf("mirror %s: %v", id, err)
		}
	}
	if !a.provider.SessionExists(id) {
		return
	}

	if a.cfg.TreeView {
		if err := a.provider.Complete(id); err != nil && !errors.Is(err, resulttree.ErrCapacityExceeded) {
			log.Printf("complete %s: %v", id, err)
		}
		a.trackPaths()
	}

	root := a.provider.Root(id)
	state := ui.StateDone
	switch {
	case runErr != nil && !errors.Is(runErr, context.Canceled):
		state = ui.StateFailed
		a.status = fmt.Sprintf("%s failed: %v", id, runErr)
	case errors.Is(runErr, context.Canceled) || !wasRunning:
		state = ui.StateIncomplete
		a.status = fmt.Sprintf("%s cancelled after %s", id, text.Pluralize(root.MatchCount, "result"))
	case root.Incomplete:
		state = ui.StateIncomplete
	case root.MatchCount == 0:
		state = ui.StateEmpty
		a.status = fmt.Sprintf("%s: no matches", id)
	default:
		a.status = fmt.Sprintf("%s: %s in %s", id,
			text.Pluralize(root.MatchCount, "result"), text.Pluralize(len(root.Files), "file"))
	}
	a.treeView.SetState(id, state)
	log.Printf("search %s finished: %s", id, state)
}

// lastLine returns the last non-blank line of s.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\r\n"), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// stopSession cancels a running search and drops its mirror file.
func (a *App) stopSession(id string) {
	if cancel, ok := a.running[id]; ok {
		cancel()
		delete(a.running, id)
	}
	delete(a.discarding, id)
	if a.mirror != nil {
		if err := a.mirror.Forget(id); err != nil {
			log.Printf("mirror %s: %v", id, err)
		}
	}
	a.treeView.SetState(id, "")
}

func (a *App) trackPaths() {
	if a.watcher == nil || !a.cfg.Watch {
		return
	}
	for _, p := range a.provider.Paths() {
		if a.watched[p] {
			continue
		}
		if err := a.watcher.Track(p); err != nil {
			log.Printf("watch %s: %v", p, err)
		}
		a.watched[p] = true
	}
}

// sessionDeleter routes bulk deletes through stopSession so running
// searches and mirror files go with their sessions.
type sessionDeleter struct {
	app *App
}

func (d sessionDeleter) Root(sessionID string) *resulttree.Root {
	return d.app.provider.Root(sessionID)
}

func (d sessionDeleter) Delete(n resulttree.Node) {
	if root, ok := n.(*resulttree.Root); ok {
		d.app.stopSession(root.SessionID)
	}
	d.app.provider.Delete(n)
}

func (a *App) bulkDelete(ids []string) {
	res, err := ops.BulkDelete(context.Background(), sessionDeleter{app: a}, ids, nil)
	if err != nil {
		a.status = fmt.Sprintf("Error: %v", err)
		return
	}
	a.status = fmt.Sprintf("Deleted %s (%s)",
		text.Pluralize(res.Completed, "session"), text.Pluralize(res.Removed, "result"))
	if res.Failed > 0 {
		a.status += fmt.Sprintf(", %d failed", res.Failed)
	}
}

func sessionIDs(roots []*resulttree.Root) []string {
	ids := make([]string, len(roots))
	for i, r := range roots {
		ids[i] = r.SessionID
	}
	return ids
}

func sessionLabels(roots []*resulttree.Root) []string {
	labels := make([]string, len(roots))
	for i, r := range roots {
		labels[i] = fmt.Sprintf("%s (%s)", r.Label, text.Pluralize(r.MatchCount, "result"))
	}
	return labels
}

func baseNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}

// openSelected opens the file of the selected match.
func (a *App) openSelected() tea.Cmd {
	leaf, ok := a.treeView.Selected().(*resulttree.Leaf)
	if !ok {
		return nil
	}
	a.fileView.SetLoading()
	a.fileFullScreen = true
	return openFile(leaf.Path, leaf.Path, leaf.Line, a.cfg.Encoding)
}

// stepResult moves to the next or previous match and opens it.
func (a *App) stepResult(forward bool) tea.Cmd {
	var leaf *resulttree.Leaf
	if forward {
		leaf = a.provider.Next(a.treeView.Selected())
	} else {
		leaf = a.provider.Previous(a.treeView.Selected())
	}
	if leaf == nil {
		a.status = "No matches"
		return nil
	}
	a.treeView.Select(leaf)
	return a.openSelected()
}

func (a *App) confirmDelete() tea.Cmd {
	switch n := a.treeView.Selected().(type) {
	case *resulttree.Root:
		msg := fmt.Sprintf("Delete session %s (%s)?", n.Label, text.Pluralize(n.MatchCount, "result"))
		if _, ok := a.running[n.SessionID]; ok {
			msg += "\n\nThe search is still running and will be stopped."
		}
		a.confirmDialog = confirm.New("Delete Session", msg, "delete-session", n.SessionID)
	case *resulttree.FileGroup:
		count := n.Len()
		a.provider.Delete(n)
		a.status = fmt.Sprintf("Removed %s from %s", text.Pluralize(count, "result"), n.Label)
	case *resulttree.Leaf:
		a.provider.Delete(n)
		a.status = fmt.Sprintf("Removed %s:%d", filepath.Base(n.Path), n.Line)
	}
	return nil
}

// --- Update ---

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	_, isKey := msg.(tea.KeyMsg)

	// Handle confirm dialog result (arrives AFTER dialog deactivates itself)
	if result, ok := msg.(confirm.ResultMsg); ok {
		if result.Confirmed {
			switch result.Action {
			case "delete-session":
				a.bulkDelete([]string{result.Data.(string)})
			case "delete-sessions":
				a.bulkDelete(result.Data.([]string))
			case "delete-logs":
				paths := result.Data.([]string)
				a.status = fmt.Sprintf("Deleting %s...", text.Pluralize(len(paths), "log"))
				a.mirrorView.ClearSelection()
				cmds = append(cmds, a.deleteMirrorEntries(paths))
			case "clear-logs":
				a.status = "Deleting all logs..."
				cmds = append(cmds, a.clearMirror())
			}
		}
		a.treeView.Sync()
		return &a, tea.Batch(cmds...)
	}

	if a.confirmDialog.IsActive() && isKey {
		var cmd tea.Cmd
		a.confirmDialog, cmd = a.confirmDialog.Update(msg)
		return &a, cmd
	}

	if result, ok := msg.(filteroverlay.ResultMsg); ok {
		if result.Applied {
			a.lastFilter = result.Filter
			roots := ops.FilterSessions(a.provider.Roots(), result.Filter)
			if len(roots) == 0 {
				a.status = "No sessions match " + filteroverlay.Summary(result.Filter)
			} else {
				a.confirmDialog = confirm.New("Delete Sessions",
					fmt.Sprintf("Delete %s matching %s?", text.Pluralize(len(roots), "session"), filteroverlay.Summary(result.Filter)),
					"delete-sessions", sessionIDs(roots)).WithItems(sessionLabels(roots))
			}
		}
		return &a, nil
	}

	if a.filterOverlay.IsActive() && isKey {
		var cmd tea.Cmd
		a.filterOverlay, cmd = a.filterOverlay.Update(msg)
		return &a, cmd
	}

	if submit, ok := msg.(searchview.SubmitMsg); ok {
		a.currentView = ViewResults
		a.fileFullScreen = false
		return &a, a.startSearch(submit.Query)
	}

	if a.searchView.IsActive() && isKey {
		var cmd tea.Cmd
		a.searchView, cmd = a.searchView.Update(msg)
		return &a, cmd
	}

	// Keys go straight to sub-views that are capturing text input.
	if isKey {
		var cmd tea.Cmd
		switch {
		case a.currentView == ViewResults && a.fileFullScreen && a.fileView.IsSearching():
			a.fileView, cmd = a.fileView.Update(msg)
			return &a, cmd
		case a.currentView == ViewResults && !a.fileFullScreen && a.treeView.IsRenaming():
			a.treeView, cmd = a.treeView.Update(msg)
			return &a, cmd
		case a.currentView == ViewLogs && !a.fileFullScreen && a.mirrorView.IsFiltering():
			a.mirrorView, cmd = a.mirrorView.Update(msg)
			return &a, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.propagateSize()
		return &a, nil

	case spinner.TickMsg:
		if len(a.running) == 0 {
			a.spinning = false
			return &a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return &a, cmd

	case ui.SearchChunkMsg:
		cmd := a.handleChunk(msg)
		a.treeView.Sync()
		return &a, cmd

	case ui.FileRemovedMsg:
		delete(a.watched, msg.Path)
		if n := a.provider.PruneFile(msg.Path); n > 0 {
			a.status = fmt.Sprintf("%s was removed; dropped %s", filepath.Base(msg.Path), text.Pluralize(n, "result"))
		}
		a.treeView.Sync()
		return &a, a.waitForRemoval()

	case ui.FileLoadedMsg:
		if msg.Err != nil {
			a.fileFullScreen = false
			a.status = fmt.Sprintf("Error: %v", msg.Err)
			return &a, nil
		}
		a.fileView.SetContent(msg.Path, msg.Title, msg.Content)
		a.fileView.GotoLine(msg.Line)
		a.fileFullScreen = true
		return &a, nil

	case treeview.RenamedMsg:
		if !msg.OK {
			a.status = "Only sessions and matches can be renamed"
		}
		return &a, nil

	case ui.MirrorEvictedMsg:
		if msg.Err != nil {
			a.status = fmt.Sprintf("Error: %v", msg.Err)
		} else {
			a.status = fmt.Sprintf("Evicted %s", text.Pluralize(msg.Removed, "log"))
		}
		return &a, a.loadMirrorEntries()

	case ui.ActionResultMsg:
		if msg.Err != nil {
			a.status = fmt.Sprintf("Error: %v", msg.Err)
		} else {
			a.status = fmt.Sprintf("%s: success", msg.Action)
		}
		return &a, a.loadMirrorEntries()

	case ui.StatusMsg:
		a.status = msg.Text
		return &a, nil

	case tea.KeyMsg:
		// Help overlay dismisses on any key
		if a.showHelp {
			a.showHelp = false
			return &a, nil
		}

		switch {
		case key.Matches(msg, ui.Keys.Quit):
			for id, cancel := range a.running {
				cancel()
				delete(a.running, id)
			}
			return &a, tea.Quit
		case key.Matches(msg, ui.Keys.Help):
			a.showHelp = true
			return &a, nil
		case msg.String() == "1":
			a.currentView = ViewResults
			a.fileFullScreen = false
			a.showInfo = false
			return &a, nil
		case msg.String() == "2":
			a.currentView = ViewLogs
			a.fileFullScreen = false
			a.showInfo = false
			return &a, a.loadMirrorEntries()
		case key.Matches(msg, ui.Keys.Search):
			if !a.fileFullScreen {
				a.searchView.Activate()
				return &a, nil
			}
		}

		if a.fileFullScreen {
			return a.updateFileView(msg)
		}
		if a.showInfo {
			return a.updateInfo(msg)
		}
		if a.currentView == ViewLogs {
			return a.updateLogs(msg)
		}
		return a.updateResults(msg)
	}

	// Everything else goes to the active sub-view.
	var cmd tea.Cmd
	switch {
	case a.fileFullScreen:
		a.fileView, cmd = a.fileView.Update(msg)
	case a.showInfo:
		a.infoView, cmd = a.infoView.Update(msg)
	case a.currentView == ViewLogs:
		a.mirrorView, cmd = a.mirrorView.Update(msg)
	default:
		a.treeView, cmd = a.treeView.Update(msg)
	}
	return &a, cmd
}

func (a App) updateFileView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, ui.Keys.Back), msg.String() == "backspace":
		a.fileFullScreen = false
		return &a, nil
	case a.currentView == ViewResults && key.Matches(msg, ui.Keys.NextResult):
		return &a, a.stepResult(true)
	case a.currentView == ViewResults && key.Matches(msg, ui.Keys.PrevResult):
		return &a, a.stepResult(false)
	}
	var cmd tea.Cmd
	a.fileView, cmd = a.fileView.Update(msg)
	return &a, cmd
}

func (a App) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, ui.Keys.Tab):
		a.currentView = ViewLogs
		return &a, a.loadMirrorEntries()
	case key.Matches(msg, ui.Keys.Enter):
		if _, ok := a.treeView.Selected().(*resulttree.Leaf); ok {
			return &a, a.openSelected()
		}
		a.treeView.Toggle()
		return &a, nil
	case key.Matches(msg, ui.Keys.NextResult):
		return &a, a.stepResult(true)
	case key.Matches(msg, ui.Keys.PrevResult):
		return &a, a.stepResult(false)
	case key.Matches(msg, ui.Keys.Delete):
		cmd := a.confirmDelete()
		a.treeView.Sync()
		return &a, cmd
	case key.Matches(msg, ui.Keys.Cancel):
		root := a.selectedRoot()
		if root == nil {
			return &a, nil
		}
		if cancel, ok := a.running[root.SessionID]; ok {
			cancel()
			delete(a.running, root.SessionID)
			a.status = fmt.Sprintf("Cancelling %s...", root.SessionID)
		} else {
			a.status = fmt.Sprintf("%s is not running", root.SessionID)
		}
		return &a, nil
	case key.Matches(msg, ui.Keys.ClearEmpty):
		roots := ops.FilterSessions(a.provider.Roots(), ops.SessionFilter{EmptyOnly: true})
		if len(roots) == 0 {
			a.status = "No empty sessions"
			return &a, nil
		}
		a.confirmDialog = confirm.New("Clear Empty Sessions",
			fmt.Sprintf("Delete %s without results?", text.Pluralize(len(roots), "session")),
			"delete-sessions", sessionIDs(roots)).WithItems(sessionLabels(roots))
		return &a, nil
	case key.Matches(msg, ui.Keys.ClearAll):
		roots := a.provider.Roots()
		if len(roots) == 0 {
			return &a, nil
		}
		a.confirmDialog = confirm.New("Clear All Sessions",
			fmt.Sprintf("Delete all %s (%s)?", text.Pluralize(len(roots), "session"), text.Pluralize(a.provider.Total(), "result")),
			"delete-sessions", sessionIDs(roots)).WithItems(sessionLabels(roots))
		return &a, nil
	case key.Matches(msg, ui.Keys.Info):
		if root := a.selectedRoot(); root != nil {
			a.infoView.SetSession(a.sessionInfo(root))
			a.showInfo = true
		}
		return &a, nil
	case key.Matches(msg, ui.Keys.Filter):
		a.filterOverlay = filteroverlay.New(a.lastFilter)
		a.filterOverlay.SetSize(a.width, a.height-3)
		return &a, nil
	}

	var cmd tea.Cmd
	a.treeView, cmd = a.treeView.Update(msg)
	return &a, cmd
}

func (a App) updateInfo(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, ui.Keys.Back), key.Matches(msg, ui.Keys.Info), msg.String() == "backspace":
		a.showInfo = false
		return &a, nil
	case key.Matches(msg, ui.Keys.Tab):
		a.showInfo = false
		a.currentView = ViewLogs
		return &a, a.loadMirrorEntries()
	}
	var cmd tea.Cmd
	a.infoView, cmd = a.infoView.Update(msg)
	return &a, cmd
}

func (a App) sessionInfo(root *resulttree.Root) infoview.Session {
	s := infoview.Session{
		Root:  root,
		Query: a.queries[root.SessionID],
		State: a.treeView.State(root.SessionID),
	}
	if a.mirror != nil {
		s.MirrorPath, _ = a.mirror.Path(root.SessionID)
	}
	return s
}

func (a App) updateLogs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, ui.Keys.Tab) {
		a.currentView = ViewResults
		return &a, nil
	}
	if a.mirror == nil {
		return &a, nil
	}
	switch {
	case key.Matches(msg, ui.Keys.Enter):
		if e := a.mirrorView.SelectedEntry(); e != nil {
			a.fileView.SetLoading()
			a.fileFullScreen = true
			return &a, a.openMirrorEntry(*e)
		}
		return &a, nil
	case key.Matches(msg, ui.Keys.Refresh):
		return &a, a.loadMirrorEntries()
	case key.Matches(msg, ui.Keys.Delete):
		paths := a.mirrorView.SelectedPaths()
		if len(paths) == 0 {
			if e := a.mirrorView.SelectedEntry(); e != nil {
				paths = []string{e.Path}
			}
		}
		if len(paths) > 0 {
			a.confirmDialog = confirm.New("Delete Logs",
				fmt.Sprintf("Delete %s?", text.Pluralize(len(paths), "log")),
				"delete-logs", paths).WithItems(baseNames(paths))
		}
		return &a, nil
	case msg.String() == "x":
		a.confirmDialog = confirm.New("Clear Logs", "Delete every result log not being written?", "clear-logs", nil)
		return &a, nil
	case msg.String() == "e":
		a.status = "Evicting old logs..."
		return &a, a.evictMirror()
	}

	var cmd tea.Cmd
	a.mirrorView, cmd = a.mirrorView.Update(msg)
	return &a, cmd
}

func (a App) selectedRoot() *resulttree.Root {
	n := a.treeView.Selected()
	for n != nil {
		if root, ok := n.(*resulttree.Root); ok {
			return root
		}
		n = a.provider.Parent(n)
	}
	return nil
}

func (a *App) propagateSize() {
	// Total vertical budget:
	//   header(1) + tabs(1) + status(1) = 3 lines of chrome
	//   pane border top(1) + bottom(1) = 2 lines
	//   Inner content height = terminal height - 5
	contentH := a.height - 5
	if contentH < 1 {
		contentH = 1
	}
	size := tea.WindowSizeMsg{Width: a.width - 4, Height: contentH}

	a.treeView, _ = a.treeView.Update(size)
	a.fileView, _ = a.fileView.Update(size)
	a.infoView, _ = a.infoView.Update(size)
	a.mirrorView, _ = a.mirrorView.Update(size)
	a.searchView, _ = a.searchView.Update(size)
	a.filterOverlay.SetSize(a.width, a.height-3)
}

// --- View ---

func (a App) View() string {
	header := RenderHeader(a.dir, a.provider.Total(), a.provider.Limit(), a.width)
	tabs := a.renderTabs()

	contentH := a.height - 5
	if contentH < 1 {
		contentH = 1
	}
	style := ui.StylePaneFocused.Width(a.width - 2).Height(contentH)

	var content string
	switch {
	case a.showHelp:
		content = a.renderHelp()
	case a.confirmDialog.IsActive():
		content = a.confirmDialog.View()
	case a.filterOverlay.IsActive():
		content = a.filterOverlay.View()
	case a.searchView.IsActive():
		content = style.Render(a.searchView.View())
	case a.fileFullScreen:
		content = style.Render(a.fileView.View())
	case a.showInfo:
		content = style.Render(a.infoView.View())
	case a.currentView == ViewLogs:
		content = style.Render(a.mirrorView.View())
	default:
		content = style.Render(a.treeView.View())
	}

	spin := ""
	if len(a.running) > 0 {
		spin = a.spinner.View()
	}
	statusBar := RenderStatusBar(spin, a.status, a.contextHints(), a.width)

	// Hard clamp: ensure content never overflows the terminal.
	maxContentLines := a.height - 3
	if maxContentLines > 0 {
		lines := strings.Split(content, "\n")
		if len(lines) > maxContentLines {
			lines = lines[:maxContentLines]
			content = strings.Join(lines, "\n")
		}
	}

	return header + "\n" + tabs + "\n" + content + "\n" + statusBar
}

func (a App) renderTabs() string {
	tabStyle := lipgloss.NewStyle().Padding(0, 2)
	activeTab := tabStyle.Bold(true).Foreground(ui.ColorPrimary)
	inactiveTab := tabStyle.Foreground(ui.ColorMuted)

	resultsLabel := fmt.Sprintf("[1] Results (%d)", len(a.provider.Roots()))
	if n := len(a.running); n > 0 {
		resultsLabel = fmt.Sprintf("[1] Results (%d, %d running)", len(a.provider.Roots()), n)
	}
	logsLabel := "[2] Logs"

	resultsTab := inactiveTab.Render(resultsLabel)
	logsTab := inactiveTab.Render(logsLabel)
	switch a.currentView {
	case ViewResults:
		resultsTab = activeTab.Render(resultsLabel)
	case ViewLogs:
		logsTab = activeTab.Render(logsLabel)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, resultsTab, logsTab)
}

func (a App) contextHints() string {
	switch {
	case a.confirmDialog.IsActive():
		return "y/n:answer  tab:toggle  esc:cancel"
	case a.filterOverlay.IsActive():
		return "j/k:field  enter:change  a:apply  esc:cancel"
	case a.searchView.IsActive():
		return "tab:next field  enter:search  esc:close"
	case a.fileFullScreen:
		if a.fileView.IsSearching() {
			return "enter:confirm  esc:cancel"
		}
		if a.currentView == ViewResults {
			return "/:search  n/N:match  [/]:prev/next result  g/G:top/bot  esc:back"
		}
		return "/:search  n/N:match  g/G:top/bot  esc:back"
	case a.showInfo:
		return "j/k:scroll  g/G:top/bot  esc:back"
	case a.currentView == ViewLogs:
		return "enter:open  space:select  d:delete  x:clear all  e:evict  s:sort  f:filter  ?:help"
	case a.treeView.IsRenaming():
		return "enter:rename  esc:cancel"
	}
	legend := fmt.Sprintf("%s=done %s=running %s=incomplete %s=failed",
		ui.StateIcon(ui.StateDone),
		ui.StateIcon(ui.StateRunning),
		ui.StateIcon(ui.StateIncomplete),
		ui.StateIcon(ui.StateFailed),
	)
	return legend + "  |  /:search  enter:open  n/N:match  d:delete  r:rename  ?:help"
}

func (a App) renderHelp() string {
	contentH := a.height - 5
	if contentH < 1 {
		contentH = 1
	}

	bold := lipgloss.NewStyle().Bold(true)
	key := lipgloss.NewStyle().Foreground(ui.ColorPrimary).Bold(true).Width(14)
	desc := lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB"))

	row := func(k, d string) string {
		return "  " + key.Render(k) + desc.Render(d) + "\n"
	}

	var b strings.Builder
	b.WriteString("\n" + bold.Render("  Navigation") + "\n\n")
	b.WriteString(row("1-2 / tab", "Switch tab: Results, Logs"))
	b.WriteString(row("j / k", "Move down / up"))
	b.WriteString(row("g / G", "Go to top / bottom"))
	b.WriteString(row("esc / bksp", "Back / close file view"))
	b.WriteString(row("q", "Quit"))

	b.WriteString("\n" + bold.Render("  Results") + "\n\n")
	b.WriteString(row("/", "New search"))
	b.WriteString(row("enter", "Open match / expand or collapse"))
	b.WriteString(row("space", "Expand or collapse"))
	b.WriteString(row("n / N", "Next / previous match"))
	b.WriteString(row("] / [", "Open next / previous match"))
	b.WriteString(row("r", "Rename session or match"))
	b.WriteString(row("d", "Delete session, file or match"))
	b.WriteString(row("C", "Cancel running search"))
	b.WriteString(row("E", "Delete empty sessions"))
	b.WriteString(row("X", "Delete all sessions"))
	b.WriteString(row("f", "Delete sessions by filter"))
	b.WriteString(row("i", "Session info"))

	b.WriteString("\n" + bold.Render("  File Viewer") + "\n\n")
	b.WriteString(row("/", "Search in file"))
	b.WriteString(row("n / N", "Next / previous match"))
	b.WriteString(row("PgUp/PgDn", "Page up / page down"))

	b.WriteString("\n" + bold.Render("  Logs") + "\n\n")
	b.WriteString(row("enter", "Open raw result log"))
	b.WriteString(row("space", "Toggle select"))
	b.WriteString(row("s", "Cycle sort mode (searched / written / size)"))
	b.WriteString(row("d", "Delete selected logs"))
	b.WriteString(row("x", "Clear all logs"))
	b.WriteString(row("e", "Evict expired logs"))
	b.WriteString(row("ctrl+r", "Refresh"))

	b.WriteString("\n" + lipgloss.NewStyle().Foreground(ui.ColorMuted).Render("  Press any key to close") + "\n")

	style := ui.StylePaneFocused.Width(a.width - 2).Height(contentH)
	return style.Render(b.String())
}
