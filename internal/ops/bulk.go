package ops

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/altinukshini/rgtree/internal/resulttree"
)

type SessionFilter struct {
	LabelContains  string
	IncompleteOnly bool
	EmptyOnly      bool
	OlderThan      time.Duration
}

func (f SessionFilter) IsZero() bool {
	return f == SessionFilter{}
}

func FilterSessions(roots []*resulttree.Root, filter SessionFilter) []*resulttree.Root {
	var matched []*resulttree.Root
	now := time.Now()
	needle := strings.ToLower(filter.LabelContains)

	for _, r := range roots {
		if needle != "" && !strings.Contains(strings.ToLower(r.Label), needle) {
			continue
		}
		if filter.IncompleteOnly && !r.Incomplete {
			continue
		}
		if filter.EmptyOnly && r.MatchCount > 0 {
			continue
		}
		if filter.OlderThan > 0 && now.Sub(r.CreatedAt) < filter.OlderThan {
			continue
		}
		matched = append(matched, r)
	}
	return matched
}

// SessionDeleter is the part of the result provider BulkDelete needs.
type SessionDeleter interface {
	Root(sessionID string) *resulttree.Root
	Delete(n resulttree.Node)
}

type BulkDeleteResult struct {
	Completed int
	Failed    int
	Removed   int // matches dropped with the deleted sessions
	Errors    []error
}

func BulkDelete(ctx context.Context, d SessionDeleter, sessionIDs []string, onProgress func(completed, total int)) (*BulkDeleteResult, error) {
	result := &BulkDeleteResult{}
	total := len(sessionIDs)

	for i, id := range sessionIDs {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if root := d.Root(id); root == nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("session %s: not found", id))
		} else {
			result.Removed += root.MatchCount
			d.Delete(root)
			result.Completed++
		}

		if onProgress != nil {
			onProgress(i+1, total)
		}
	}

	return result, nil
}
