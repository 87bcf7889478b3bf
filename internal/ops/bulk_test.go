package ops

import (
	"context"
	"testing"
	"time"

	"github.com/altinukshini/rgtree/internal/provider"
	"github.com/altinukshini/rgtree/internal/resulttree"
)

func TestFilterSessionsForDeletion(t *testing.T) {
	now := time.Now()
	roots := []*resulttree.Root{
		{SessionID: "foo_1", Label: "foo_1", MatchCount: 3, CreatedAt: now.Add(-48 * time.Hour)},
		{SessionID: "foo_2", Label: "foo_2 !!!!!incomplete!!!!!", MatchCount: 10240, Incomplete: true, CreatedAt: now.Add(-1 * time.Hour)},
		{SessionID: "bar_1", Label: "Bar search", MatchCount: 0, CreatedAt: now.Add(-72 * time.Hour)},
	}

	tests := []struct {
		name   string
		filter SessionFilter
		want   int
	}{
		{
			name:   "no filter",
			filter: SessionFilter{},
			want:   3,
		},
		{
			name:   "by label",
			filter: SessionFilter{LabelContains: "FOO"},
			want:   2,
		},
		{
			name:   "incomplete",
			filter: SessionFilter{IncompleteOnly: true},
			want:   1,
		},
		{
			name:   "empty",
			filter: SessionFilter{EmptyOnly: true},
			want:   1,
		},
		{
			name:   "by age",
			filter: SessionFilter{OlderThan: 24 * time.Hour},
			want:   2,
		},
		{
			name:   "combined",
			filter: SessionFilter{LabelContains: "foo", OlderThan: 24 * time.Hour},
			want:   1,
		},
		{
			name:   "no match",
			filter: SessionFilter{LabelContains: "nonexistent"},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterSessions(roots, tt.filter)
			if len(got) != tt.want {
				t.Errorf("FilterSessions() returned %d sessions, want %d", len(got), tt.want)
			}
		})
	}
}

func TestBulkDelete(t *testing.T) {
	p := provider.New(resulttree.New(resulttree.WithExistsFunc(func(string) bool { return true })))
	for _, id := range []string{"s1", "s2", "s3"} {
		p.CreateSession(id, "")
	}
	if err := p.Ingest("s1", "a.txt:1:x\na.txt:2:y\n"); err != nil {
		t.Fatal(err)
	}

	var progress []int
	result, err := BulkDelete(context.Background(), p, []string{"s1", "missing", "s3"}, func(done, total int) {
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
		progress = append(progress, done)
	})
	if err != nil {
		t.Fatalf("BulkDelete: %v", err)
	}
	if result.Completed != 2 || result.Failed != 1 {
		t.Errorf("Completed = %d, Failed = %d; want 2, 1", result.Completed, result.Failed)
	}
	if result.Removed != 2 {
		t.Errorf("Removed = %d, want 2", result.Removed)
	}
	if len(progress) != 3 || progress[2] != 3 {
		t.Errorf("progress = %v, want [1 2 3]", progress)
	}
	if p.Total() != 0 {
		t.Errorf("Total = %d, want 0", p.Total())
	}
	if roots := p.Roots(); len(roots) != 1 || roots[0].SessionID != "s2" {
		t.Errorf("remaining roots = %v, want only s2", roots)
	}
}

func TestBulkDeleteCancelled(t *testing.T) {
	p := provider.New(nil)
	p.CreateSession("s1", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := BulkDelete(ctx, p, []string{"s1"}, nil)
	if err == nil {
		t.Fatal("BulkDelete succeeded on a cancelled context")
	}
	if result.Completed != 0 || !p.SessionExists("s1") {
		t.Error("cancelled BulkDelete still deleted a session")
	}
}
