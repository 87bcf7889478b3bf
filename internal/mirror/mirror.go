// Package mirror keeps a raw copy of each search's output on disk so it
// can be opened as a plain file.
package mirror

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gofrs/flock"
)

const (
	filePrefix = "rgtree-result_"
	fileSuffix = ".log"
	metaSuffix = ".json"
	lockName   = ".evict.lock"
)

type Mirror struct {
	mu      sync.Mutex
	dir     string
	maxSize int64
	ttl     time.Duration
	now     func() time.Time

	open    map[string]*os.File // session id -> file being written
	tracked map[string]string   // session id -> path, files created this run
}

// Meta is stored next to each mirror file.
type Meta struct {
	SessionID string    `json:"session_id"`
	Pattern   string    `json:"pattern"`
	Dir       string    `json:"dir"`
	CreatedAt time.Time `json:"created_at"`
}

// Entry is a mirror file found on disk.
type Entry struct {
	Meta
	Path    string
	Size    int64
	ModTime time.Time
}

// DefaultDir returns the mirror directory under the user cache dir.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate cache dir: %w", err)
	}
	return filepath.Join(base, "rgtree", "results"), nil
}

// New opens dir for mirroring. maxSizeMB <= 0 disables the size cap and
// ttl <= 0 disables age based eviction.
func New(dir string, maxSizeMB int, ttl time.Duration) (*Mirror, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create mirror dir: %w", err)
	}
	return &Mirror{
		dir:     dir,
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		ttl:     ttl,
		now:     time.Now,
		open:    make(map[string]*os.File),
		tracked: make(map[string]string),
	}, nil
}

func (m *Mirror) Dir() string {
	return m.dir
}

// FileName returns "rgtree-result_<hash>_<unix-millis>.log". The pattern
// is hashed since it may hold characters that are not valid in file names.
func FileName(pattern string, ts time.Time) string {
	return fmt.Sprintf("%s%016x_%d%s", filePrefix, xxhash.Sum64String(pattern), ts.UnixMilli(), fileSuffix)
}

// Create starts a mirror file for a session. Creating the same session
// twice returns the existing path.
func (m *Mirror) Create(meta Meta) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if path, ok := m.tracked[meta.SessionID]; ok {
		return path, nil
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = m.now()
	}
	path := filepath.Join(m.dir, FileName(meta.Pattern, meta.CreatedAt))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("create mirror file: %w", err)
	}
	if err := writeMeta(path, meta); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	m.open[meta.SessionID] = f
	m.tracked[meta.SessionID] = path
	return path, nil
}

// Append writes raw output for a session. Sessions without a mirror file
// are ignored.
func (m *Mirror) Append(sessionID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.open[sessionID]
	if !ok {
		return nil
	}
	if _, err := f.WriteString(text); err != nil {
		return fmt.Errorf("write mirror file: %w", err)
	}
	return nil
}

// Close finishes writing a session's mirror file.
func (m *Mirror) Close(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeLocked(sessionID)
}

func (m *Mirror) closeLocked(sessionID string) error {
	f, ok := m.open[sessionID]
	if !ok {
		return nil
	}
	delete(m.open, sessionID)
	return f.Close()
}

// Path returns the mirror file of a session created by this process.
func (m *Mirror) Path(sessionID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path, ok := m.tracked[sessionID]
	return path, ok
}

// Forget closes and deletes the mirror file of one session.
func (m *Mirror) Forget(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path, ok := m.tracked[sessionID]
	if !ok {
		return nil
	}
	_ = m.closeLocked(sessionID)
	delete(m.tracked, sessionID)
	return removeEntry(path)
}

// RemoveTracked deletes every mirror file this process created. It is run
// on exit.
func (m *Mirror) RemoveTracked() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for id, path := range m.tracked {
		_ = m.closeLocked(id)
		if err := removeEntry(path); err != nil {
			errs = append(errs, err)
		}
		delete(m.tracked, id)
	}
	return errors.Join(errs...)
}

// Read returns the contents of a mirror file.
func (m *Mirror) Read(path string) (string, error) {
	if err := m.checkPath(path); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read mirror file: %w", err)
	}
	return string(data), nil
}

// ListEntries scans the mirror directory, newest first.
func (m *Mirror) ListEntries() ([]Entry, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var result []Entry
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ts, ok := parseFileName(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(m.dir, e.Name())
		entry := Entry{Path: path, Size: info.Size(), ModTime: info.ModTime()}
		if meta, err := readMeta(path); err == nil {
			entry.Meta = *meta
		} else {
			entry.CreatedAt = ts
		}
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// DeleteEntry removes a single mirror file and its metadata.
func (m *Mirror) DeleteEntry(path string) error {
	if err := m.checkPath(path); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.tracked {
		if p == path {
			_ = m.closeLocked(id)
			delete(m.tracked, id)
		}
	}
	return removeEntry(path)
}

// DeleteAll removes every mirror file except those still being written.
func (m *Mirror) DeleteAll() error {
	entries, err := m.ListEntries()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for _, e := range entries {
		if m.writing(e.Path) {
			continue
		}
		if err := removeEntry(e.Path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TotalSize returns the size of all mirror files in bytes.
func (m *Mirror) TotalSize() (int64, error) {
	entries, err := m.ListEntries()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		total += e.Size
	}
	return total, nil
}

// Evict removes expired entries, then the oldest ones while over the size
// cap. Files still being written are kept. When another process holds the
// eviction lock nothing is done.
func (m *Mirror) Evict() (int, error) {
	lock := flock.New(filepath.Join(m.dir, lockName))
	locked, err := lock.TryLock()
	if err != nil {
		return 0, fmt.Errorf("lock mirror dir: %w", err)
	}
	if !locked {
		return 0, nil
	}
	defer func() { _ = lock.Unlock() }()

	entries, err := m.ListEntries()
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var totalSize int64
	for _, e := range entries {
		totalSize += e.Size
	}

	removed := 0
	now := m.now()
	remaining := entries[:0]
	for _, e := range entries {
		if m.ttl > 0 && now.Sub(e.ModTime) > m.ttl && !m.writing(e.Path) {
			if removeEntry(e.Path) == nil {
				removed++
				totalSize -= e.Size
				continue
			}
		}
		remaining = append(remaining, e)
	}
	entries = remaining

	if m.maxSize > 0 && totalSize > m.maxSize {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].ModTime.Before(entries[j].ModTime)
		})
		for _, e := range entries {
			if totalSize <= m.maxSize {
				break
			}
			if m.writing(e.Path) {
				continue
			}
			if removeEntry(e.Path) == nil {
				removed++
				totalSize -= e.Size
			}
		}
	}
	return removed, nil
}

func (m *Mirror) writing(path string) bool {
	for id, p := range m.tracked {
		if p == path {
			_, open := m.open[id]
			return open
		}
	}
	return false
}

func (m *Mirror) checkPath(path string) error {
	if filepath.Dir(path) != filepath.Clean(m.dir) {
		return fmt.Errorf("%s is not in the mirror directory", path)
	}
	if _, ok := parseFileName(filepath.Base(path)); !ok {
		return fmt.Errorf("%s is not a mirror file", path)
	}
	return nil
}

// parseFileName extracts the creation time from a mirror file name.
func parseFileName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return time.Time{}, false
	}
	name = strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	idx := strings.LastIndex(name, "_")
	if idx < 0 {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(name[idx+1:], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func metaPath(path string) string {
	return strings.TrimSuffix(path, fileSuffix) + metaSuffix
}

func writeMeta(path string, meta Meta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := os.WriteFile(metaPath(path), data, 0o644); err != nil {
		return fmt.Errorf("write mirror meta: %w", err)
	}
	return nil
}

func readMeta(path string) (*Meta, error) {
	data, err := os.ReadFile(metaPath(path))
	if err != nil {
		return nil, err
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func removeEntry(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove mirror file: %w", err)
	}
	if err := os.Remove(metaPath(path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove mirror meta: %w", err)
	}
	return nil
}
