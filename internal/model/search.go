package model

import (
	"fmt"
	"time"
)

// SearchQuery describes one search run.
type SearchQuery struct {
	Pattern       string
	Dir           string
	Globs         []string
	RawArgs       []string
	Encoding      string
	IsRegex       bool
	CaseSensitive bool
}

// Stream identifies where a chunk of matcher output came from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// Chunk is one decoded block of matcher output for a session. The final
// chunk of a run has Done set; Err then carries the run's failure, if any.
type Chunk struct {
	SessionID string
	Stream    Stream
	Text      string
	Done      bool
	Err       error
}

// NewSessionID returns "<pattern>_<YYYYMMDDHHmmssSSS>".
func NewSessionID(pattern string, now time.Time) string {
	return fmt.Sprintf("%s_%s%03d", pattern, now.Format("20060102150405"), now.Nanosecond()/int(time.Millisecond))
}
