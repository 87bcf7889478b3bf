package resulttree

import (
	"errors"
	"fmt"
)

// ErrCapacityExceeded matches every *CapacityError via errors.Is.
var ErrCapacityExceeded = errors.New("result limit exceeded")

// CapacityError reports that ingestion stopped because a session, or the
// tree as a whole, reached the result limit. The session stays usable and
// keeps everything accepted before the limit was hit.
type CapacityError struct {
	SessionID string
	Limit     int
	Global    bool // the tree-wide limit bound, not the session's own
}

func (e *CapacityError) Error() string {
	if e.Global {
		return fmt.Sprintf("too many results in the tree (limit is %d): delete unneeded sessions or retry %s with a more specific pattern",
			e.Limit, e.SessionID)
	}
	return fmt.Sprintf("results of %s exceed the tree limit of %d: retry with a more specific pattern",
		e.SessionID, e.Limit)
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}
