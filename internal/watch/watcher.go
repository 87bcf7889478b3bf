// Package watch reports when files that appear in search results are
// removed from disk.
package watch

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 250 * time.Millisecond

// Watcher watches the parent directories of tracked files. A tracked file
// that is removed or renamed away, and still missing once the debounce
// interval has passed, is sent on Removed and untracked.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	tracked map[string]bool
	dirs    map[string]int

	removed   chan string
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func New(debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		fs:       fw,
		debounce: debounce,
		tracked:  make(map[string]bool),
		dirs:     make(map[string]int),
		removed:  make(chan string, 64),
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.processEvents()
	return w, nil
}

// Removed delivers paths of tracked files that disappeared. It is closed
// by Close.
func (w *Watcher) Removed() <-chan string {
	return w.removed
}

// Track starts watching path. Tracking a path twice is a no-op.
func (w *Watcher) Track(path string) error {
	path = filepath.Clean(path)
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.tracked[path] {
		return nil
	}
	dir := filepath.Dir(path)
	if w.dirs[dir] == 0 {
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.dirs[dir]++
	w.tracked[path] = true
	return nil
}

// Untrack stops watching path.
func (w *Watcher) Untrack(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.untrackLocked(filepath.Clean(path))
}

func (w *Watcher) untrackLocked(path string) {
	if !w.tracked[path] {
		return
	}
	delete(w.tracked, path)
	dir := filepath.Dir(path)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		// the directory may already be gone
		_ = w.fs.Remove(dir)
	}
}

// Tracked reports the number of tracked files.
func (w *Watcher) Tracked() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.tracked)
}

func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fs.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	defer close(w.removed)

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			affected := w.affected(event.Name)
			if len(affected) == 0 {
				continue
			}
			for _, p := range affected {
				pending[p] = true
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Printf("watch: %v", err)

		case <-timer.C:
			for path := range pending {
				delete(pending, path)
				if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
					continue
				}
				w.Untrack(path)
				select {
				case w.removed <- path:
				case <-w.done:
					return
				}
			}
		}
	}
}

// affected returns the tracked paths an event on name touches: name itself,
// or every tracked file beneath it when a directory went away.
func (w *Watcher) affected(name string) []string {
	name = filepath.Clean(name)
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.tracked[name] {
		return []string{name}
	}
	prefix := name + string(filepath.Separator)
	var out []string
	for p := range w.tracked {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out
}
