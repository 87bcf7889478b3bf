package resulttree

import (
	"strconv"
	"strings"
)

// Match is one line of matcher output split into its parts.
type Match struct {
	File string
	Line int
	Body string
}

// ParseLine splits a "<file>:<line>:<body>" line at the rightmost
// ":<digits>:" delimiter. Blank lines, diagnostics and anything else that
// does not fit the grammar report false.
func ParseLine(line string) (Match, bool) {
	candidates := Candidates(line)
	if len(candidates) == 0 {
		return Match{}, false
	}
	return candidates[0], true
}

// Candidates returns every way line can be split into file, line number and
// body, rightmost delimiter first. Paths and bodies may both contain
// ":<digits>:" sequences, so callers that can check the filesystem pick the
// first candidate whose file exists.
func Candidates(line string) []Match {
	line = strings.TrimSuffix(line, "\r")

	var out []Match
	for end := strings.LastIndexByte(line, ':'); end > 0; end = strings.LastIndexByte(line[:end], ':') {
		start := end
		for start > 0 && isDigit(line[start-1]) {
			start--
		}
		if start == end || start < 2 || line[start-1] != ':' {
			continue
		}
		colon := start - 1
		if line[colon-1] == '\\' {
			continue
		}
		n, err := strconv.Atoi(line[start:end])
		if err != nil || n < 1 {
			continue
		}
		out = append(out, Match{File: line[:colon], Line: n, Body: line[end+1:]})
	}
	return out
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
