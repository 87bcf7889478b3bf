package resulttree

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allExist(string) bool { return true }

func existing(paths ...string) ExistsFunc {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return func(p string) bool { return set[p] }
}

func matchLines(file string, n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "%s:%d:match %d\n", file, i, i)
	}
	return b.String()
}

func TestIngestBuildsHierarchy(t *testing.T) {
	tree := New(WithExistsFunc(allExist))
	tree.CreateSession("s1")

	require.NoError(t, tree.Ingest("s1", "a.txt:1:hello\na.txt:2:world\n"))

	roots := tree.Roots()
	require.Len(t, roots, 1)
	root := roots[0]
	assert.Equal(t, "s1", root.SessionID)
	assert.Equal(t, "s1", root.Label)
	assert.True(t, root.Expanded)
	require.Len(t, root.Files, 1)

	group := root.Files[0]
	assert.Equal(t, "a.txt", group.Path)
	require.Len(t, group.Results, 2)
	assert.Equal(t, "hello", group.Results[0].Body)
	assert.Equal(t, 1, group.Results[0].Line)
	assert.Equal(t, "world", group.Results[1].Body)
	assert.Equal(t, 2, group.Results[1].Line)

	assert.Equal(t, 2, root.MatchCount)
	assert.Equal(t, 2, tree.Total())
}

func TestIngestFileGroupsKeepFirstSeenOrder(t *testing.T) {
	tree := New(WithExistsFunc(allExist))
	tree.CreateSession("s1")

	require.NoError(t, tree.Ingest("s1", "z.txt:1:a\nb.txt:1:b\nz.txt:2:c\nm.txt:4:d\n"))

	root := tree.Root("s1")
	var paths []string
	for _, g := range root.Files {
		paths = append(paths, g.Path)
	}
	assert.Equal(t, []string{"z.txt", "b.txt", "m.txt"}, paths)
	assert.Equal(t, 2, root.Files[0].Len())
}

func TestIngestSplitChunks(t *testing.T) {
	tree := New(WithExistsFunc(allExist))
	tree.CreateSession("s1")

	require.NoError(t, tree.Ingest("s1", "a.txt:1:hel"))
	assert.Equal(t, 0, tree.Total(), "partial line must wait for the rest")

	require.NoError(t, tree.Ingest("s1", "lo\r\na.txt:2:wor"))
	assert.Equal(t, 1, tree.Total())

	require.NoError(t, tree.Ingest("s1", "ld"))
	require.NoError(t, tree.Complete("s1"))

	results := tree.Root("s1").Files[0].Results
	require.Len(t, results, 2)
	assert.Equal(t, "hello", results[0].Body)
	assert.Equal(t, "world", results[1].Body)
}

func TestIngestDropsMissingFilesAndNoise(t *testing.T) {
	tree := New(WithExistsFunc(existing("/src/a.go")))
	tree.CreateSession("s1")

	chunk := strings.Join([]string{
		"/src/a.go:3:func main() {",
		"/src/gone.go:1:deleted since the scan",
		"rg: /src/private: Permission denied (os error 13)",
		"",
		"/src/a.go:5:t := 10:30:00",
	}, "\n") + "\n"
	require.NoError(t, tree.Ingest("s1", chunk))

	root := tree.Root("s1")
	require.Len(t, root.Files, 1)
	results := root.Files[0].Results
	require.Len(t, results, 2)
	assert.Equal(t, 5, results[1].Line)
	assert.Equal(t, "t := 10:30:00", results[1].Body)
	assert.Equal(t, 2, tree.Total())
}

func TestIngestUnknownSessionIsNoop(t *testing.T) {
	tree := New(WithExistsFunc(allExist))
	require.NoError(t, tree.Ingest("nope", "a.txt:1:x\n"))
	assert.Equal(t, 0, tree.Total())
	assert.Empty(t, tree.Roots())
}

func TestCreateSessionIsIdempotent(t *testing.T) {
	tree := New()
	tree.CreateSession("s1")
	tree.CreateSession("s1")
	assert.Len(t, tree.Roots(), 1)
	assert.True(t, tree.SessionExists("s1"))
	assert.False(t, tree.SessionExists("s2"))
}

func TestFileLabelRelativeToSearchDir(t *testing.T) {
	dir := filepath.Join(string(filepath.Separator), "work", "proj")
	inside := filepath.Join(dir, "pkg", "a.go")
	outside := filepath.Join(string(filepath.Separator), "etc", "hosts")

	tree := New(WithExistsFunc(allExist))
	tree.CreateSessionIn("s1", dir)
	require.NoError(t, tree.Ingest("s1", inside+":1:x\n"+outside+":2:y\n"))

	files := tree.Root("s1").Files
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join("pkg", "a.go"), files[0].Label)
	assert.Equal(t, outside, files[1].Label)
}

func TestIngestSessionLimit(t *testing.T) {
	tree := New(WithExistsFunc(allExist))
	tree.CreateSession("s1")

	err := tree.Ingest("s1", matchLines("a.txt", DefaultLimit+1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCapacityExceeded))

	var capErr *CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, "s1", capErr.SessionID)
	assert.Equal(t, DefaultLimit, capErr.Limit)
	assert.False(t, capErr.Global)

	root := tree.Root("s1")
	assert.Equal(t, DefaultLimit, root.MatchCount)
	assert.Equal(t, DefaultLimit, tree.Total())
	assert.True(t, root.Incomplete)
	assert.True(t, strings.HasSuffix(root.Label, IncompleteSuffix))
	assert.Equal(t, DefaultLimit, root.Files[0].Results[DefaultLimit-1].Line)
}

func TestIngestExactlyAtLimitIsFine(t *testing.T) {
	tree := New(WithExistsFunc(allExist), WithLimit(5))
	tree.CreateSession("s1")

	require.NoError(t, tree.Ingest("s1", matchLines("a.txt", 5)))
	assert.False(t, tree.Root("s1").Incomplete)
	assert.Equal(t, 5, tree.Total())
}

func TestIngestAfterLimitKeepsFailing(t *testing.T) {
	tree := New(WithExistsFunc(allExist), WithLimit(3))
	tree.CreateSession("s1")

	require.Error(t, tree.Ingest("s1", matchLines("a.txt", 4)))
	err := tree.Ingest("s1", "b.txt:1:late\n")
	require.ErrorIs(t, err, ErrCapacityExceeded)

	root := tree.Root("s1")
	assert.Equal(t, 3, root.MatchCount)
	assert.Equal(t, 1, strings.Count(root.Label, IncompleteSuffix), "marker is appended once")
}

func TestIngestGlobalLimit(t *testing.T) {
	tree := New(WithExistsFunc(allExist), WithLimit(4))
	tree.CreateSession("s1")
	tree.CreateSession("s2")

	require.NoError(t, tree.Ingest("s1", matchLines("a.txt", 3)))
	err := tree.Ingest("s2", matchLines("b.txt", 3))

	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.True(t, capErr.Global)
	assert.Equal(t, "s2", capErr.SessionID)
	assert.Equal(t, 1, tree.Root("s2").MatchCount)
	assert.Equal(t, 4, tree.Total())
	assert.False(t, tree.Root("s1").Incomplete)
	assert.True(t, tree.Root("s2").Incomplete)
}

func TestDeleteFileGroup(t *testing.T) {
	tree := New(WithExistsFunc(allExist))
	tree.CreateSession("s1")
	require.NoError(t, tree.Ingest("s1", matchLines("a.txt", 2)+matchLines("b.txt", 5)+matchLines("c.txt", 1)))

	root := tree.Root("s1")
	require.Equal(t, 8, root.MatchCount)

	tree.Delete(root.Files[1])

	assert.Equal(t, 3, root.MatchCount)
	assert.Equal(t, 3, tree.Total())
	require.Len(t, root.Files, 2)
	assert.Equal(t, "a.txt", root.Files[0].Path)
	assert.Equal(t, "c.txt", root.Files[1].Path)

	// The path can be matched again into a fresh group.
	require.NoError(t, tree.Ingest("s1", "b.txt:9:again\n"))
	assert.Equal(t, "b.txt", root.Files[2].Path)
	assert.Equal(t, 1, root.Files[2].Len())
}

func TestDeleteRoot(t *testing.T) {
	tree := New(WithExistsFunc(allExist))
	for _, id := range []string{"s1", "s2", "s3"} {
		tree.CreateSession(id)
	}
	require.NoError(t, tree.Ingest("s1", matchLines("a.txt", 1)))
	require.NoError(t, tree.Ingest("s2", matchLines("b.txt", 4)))
	require.NoError(t, tree.Ingest("s3", matchLines("c.txt", 2)))

	tree.Delete(tree.Root("s2"))

	assert.Equal(t, 3, tree.Total())
	roots := tree.Roots()
	require.Len(t, roots, 2)
	assert.Equal(t, "s1", roots[0].SessionID)
	assert.Equal(t, "s3", roots[1].SessionID)
	assert.Equal(t, 2, roots[1].MatchCount)
	assert.False(t, tree.SessionExists("s2"))

	// Chunks still in flight for the deleted session are dropped.
	require.NoError(t, tree.Ingest("s2", matchLines("b.txt", 1)))
	assert.Equal(t, 3, tree.Total())
}

func TestDeleteLeaf(t *testing.T) {
	tree := New(WithExistsFunc(allExist))
	tree.CreateSession("s1")
	require.NoError(t, tree.Ingest("s1", "a.txt:1:same\na.txt:1:same\na.txt:2:other\n"))

	group := tree.Root("s1").Files[0]
	second := group.Results[1]
	tree.Delete(second)

	require.Len(t, group.Results, 2)
	assert.NotEqual(t, second.ID, group.Results[0].ID)
	assert.NotEqual(t, second.ID, group.Results[1].ID)
	assert.Equal(t, 2, tree.Root("s1").MatchCount)
	assert.Equal(t, 2, tree.Total())

	// The group survives losing its matches.
	tree.Delete(group.Results[0])
	tree.Delete(group.Results[0])
	assert.Empty(t, group.Results)
	assert.Len(t, tree.Root("s1").Files, 1)
	assert.Equal(t, 0, tree.Total())
}

func TestDeleteLeafByValue(t *testing.T) {
	tree := New(WithExistsFunc(allExist))
	tree.CreateSession("s1")
	require.NoError(t, tree.Ingest("s1", "a.txt:1:same\na.txt:1:same\n"))

	first := tree.Root("s1").Files[0].Results[0]
	tree.Delete(&Leaf{SessionID: "s1", Path: "a.txt", Line: 1, Body: "same"})

	results := tree.Root("s1").Files[0].Results
	require.Len(t, results, 1)
	assert.NotEqual(t, first.ID, results[0].ID, "first structurally equal match is removed")
}

func TestDeleteStaleNodes(t *testing.T) {
	tree := New(WithExistsFunc(allExist))
	tree.CreateSession("s1")
	require.NoError(t, tree.Ingest("s1", matchLines("a.txt", 2)))

	root := tree.Root("s1")
	group := root.Files[0]
	leaf := group.Results[0]

	tree.Delete(leaf)
	tree.Delete(leaf)
	assert.Equal(t, 1, tree.Total())

	tree.Delete(group)
	tree.Delete(group)
	tree.Delete(leaf)
	assert.Equal(t, 0, tree.Total())

	tree.Delete(root)
	tree.Delete(root)
	tree.Delete(group)
	tree.Delete((*Root)(nil))
	tree.Delete(nil)
	assert.Equal(t, 0, tree.Total())
	assert.Empty(t, tree.Roots())
}

func TestRename(t *testing.T) {
	tree := New(WithExistsFunc(allExist))
	tree.CreateSession("s1")
	tree.CreateSession("s2")
	require.NoError(t, tree.Ingest("s1", matchLines("a.txt", 2)))

	root := tree.Root("s1")
	group := root.Files[0]

	assert.True(t, tree.Rename(root, "todo hunt"))
	assert.Equal(t, "todo hunt", root.Label)
	assert.Equal(t, "s1", root.SessionID)
	assert.Len(t, group.Results, 2)

	assert.True(t, tree.Rename(tree.Root("s2"), "todo hunt"), "duplicate labels are allowed")
	assert.True(t, tree.Rename(root, ""), "empty labels are allowed")
	assert.Equal(t, "", root.Label)

	assert.False(t, tree.Rename(group, "renamed"))
	assert.Equal(t, "a.txt", group.Label)

	leaf := group.Results[1]
	assert.True(t, tree.Rename(leaf, "note"))
	assert.Equal(t, "note", leaf.Label)
	assert.Equal(t, "match 2", leaf.Body)

	tree.Delete(root)
	assert.False(t, tree.Rename(root, "gone"))
}

func TestChildren(t *testing.T) {
	tree := New(WithExistsFunc(allExist))
	tree.CreateSession("s1")
	tree.CreateSession("s2")
	require.NoError(t, tree.Ingest("s1", matchLines("a.txt", 2)+matchLines("b.txt", 1)))

	assert.Len(t, tree.Children(nil), 2)
	root := tree.Root("s1")
	assert.Len(t, tree.Children(root), 2)
	assert.Len(t, tree.Children(root.Files[0]), 2)
	assert.Empty(t, tree.Children(root.Files[0].Results[0]))
}

func TestFileGroupsAcrossSessions(t *testing.T) {
	tree := New(WithExistsFunc(allExist))
	tree.CreateSession("s1")
	tree.CreateSession("s2")
	require.NoError(t, tree.Ingest("s1", matchLines("a.txt", 1)))
	require.NoError(t, tree.Ingest("s2", matchLines("a.txt", 2)+matchLines("b.txt", 1)))

	groups := tree.FileGroups("a.txt")
	require.Len(t, groups, 2)
	assert.Equal(t, "s1", groups[0].SessionID)
	assert.Equal(t, "s2", groups[1].SessionID)
	assert.Empty(t, tree.FileGroups("c.txt"))
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	assert.True(t, FileExists(path))
	assert.False(t, FileExists(filepath.Join(dir, "missing.txt")))
}
