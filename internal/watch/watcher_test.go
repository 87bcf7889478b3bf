package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func expectRemoved(t *testing.T, w *Watcher, want string) {
	t.Helper()
	select {
	case got := <-w.Removed():
		assert.Equal(t, want, got)
	case <-time.After(5 * time.Second):
		t.Fatalf("no removal reported for %s", want)
	}
}

func TestReportsRemovedFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	untracked := filepath.Join(dir, "c.txt")
	touch(t, a)
	touch(t, b)
	touch(t, untracked)

	w, err := New(20 * time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Track(a))
	require.NoError(t, w.Track(b))
	require.NoError(t, w.Track(a))
	assert.Equal(t, 2, w.Tracked())

	require.NoError(t, os.Remove(untracked))
	require.NoError(t, os.Remove(a))
	expectRemoved(t, w, a)
	assert.Equal(t, 1, w.Tracked())
}

func TestReportsRenamedFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	touch(t, a)

	w, err := New(20 * time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Track(a))
	require.NoError(t, os.Rename(a, filepath.Join(dir, "moved.txt")))
	expectRemoved(t, w, a)
}

func TestIgnoresReplacedFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	touch(t, a)
	touch(t, b)

	w, err := New(200 * time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Track(a))
	require.NoError(t, w.Track(b))

	// delete-and-recreate, as some editors save
	require.NoError(t, os.Remove(a))
	touch(t, a)
	require.NoError(t, os.Remove(b))

	expectRemoved(t, w, b)
	select {
	case got := <-w.Removed():
		t.Fatalf("unexpected removal of %s", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestUntrack(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	touch(t, a)
	touch(t, b)

	w, err := New(20 * time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Track(a))
	require.NoError(t, w.Track(b))
	w.Untrack(a)
	w.Untrack(a)

	require.NoError(t, os.Remove(a))
	require.NoError(t, os.Remove(b))
	expectRemoved(t, w, b)
}

func TestTrackMissingDir(t *testing.T) {
	w, err := New(0)
	require.NoError(t, err)
	defer w.Close()

	err = w.Track(filepath.Join(t.TempDir(), "missing", "a.txt"))
	assert.Error(t, err)
	assert.Equal(t, 0, w.Tracked())
}

func TestCloseClosesRemoved(t *testing.T) {
	w, err := New(0)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, ok := <-w.Removed()
	assert.False(t, ok)
}
