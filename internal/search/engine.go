// Package search is the built-in matcher used when ripgrep is not
// installed. It walks a directory and emits rg-style "path:line:text"
// output so the result tree cannot tell the two apart.
package search

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/transform"

	"github.com/altinukshini/rgtree/internal/model"
	"github.com/altinukshini/rgtree/internal/rg"
)

const (
	flushSize   = 32 * 1024
	sniffSize   = 8000
	maxLineSize = 1024 * 1024
)

type Engine struct{}

func New() *Engine {
	return &Engine{}
}

// Start walks q.Dir in the background and streams matches on the returned
// channel, finishing with a Done chunk.
func (e *Engine) Start(ctx context.Context, sessionID string, q model.SearchQuery) (<-chan model.Chunk, error) {
	if q.Pattern == "" {
		return nil, fmt.Errorf("empty search pattern")
	}
	matcher, err := buildMatcher(q)
	if err != nil {
		return nil, fmt.Errorf("compiling pattern: %w", err)
	}
	for _, g := range q.Globs {
		if !doublestar.ValidatePattern(strings.TrimPrefix(g, "!")) {
			return nil, fmt.Errorf("invalid glob %q", g)
		}
	}
	if _, err := rg.Decoder(q.Encoding); err != nil {
		return nil, err
	}
	root := q.Dir
	if root == "" {
		root = "."
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", q.Dir, err)
	}

	out := make(chan model.Chunk)
	go func() {
		defer close(out)
		var buf strings.Builder
		flush := func() bool {
			if buf.Len() == 0 {
				return true
			}
			select {
			case out <- model.Chunk{SessionID: sessionID, Text: buf.String()}:
				buf.Reset()
				return true
			case <-ctx.Done():
				return false
			}
		}

		walkErr := e.Walk(ctx, root, q, matcher, func(path string, n int, line string) error {
			buf.WriteString(path)
			buf.WriteByte(':')
			buf.WriteString(strconv.Itoa(n))
			buf.WriteByte(':')
			buf.WriteString(line)
			buf.WriteByte('\n')
			if buf.Len() >= flushSize && !flush() {
				return ctx.Err()
			}
			return nil
		})
		if !flush() && walkErr == nil {
			walkErr = ctx.Err()
		}
		select {
		case out <- model.Chunk{SessionID: sessionID, Done: true, Err: walkErr}:
		case <-ctx.Done():
		}
	}()
	return out, nil
}

// Walk calls fn for every matching line under root, in directory order.
// Unreadable files are skipped.
func (e *Engine) Walk(ctx context.Context, root string, q model.SearchQuery, matcher func(string) bool, fn func(path string, n int, line string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if !matchGlobs(filepath.ToSlash(rel), q.Globs) {
			return nil
		}
		return searchFile(path, q.Encoding, matcher, fn)
	})
}

func searchFile(path, enc string, matcher func(string) bool, fn func(path string, n int, line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, _ := br.Peek(sniffSize)
	if bytes.IndexByte(head, 0) >= 0 {
		return nil
	}

	dec, err := rg.Decoder(enc)
	if err != nil {
		return err
	}
	var r io.Reader = transform.NewReader(br, dec)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if matcher(line) {
			if err := fn(path, n, line); err != nil {
				return err
			}
		}
	}
	// read errors and overlong lines end the file quietly, like rg does
	return nil
}

// matchGlobs applies rg-style globs to a slash-separated relative path.
// Globs prefixed with "!" exclude. When any include glob is given the path
// must match one of them. A glob without a slash matches at any depth.
func matchGlobs(rel string, globs []string) bool {
	included := true
	for _, g := range globs {
		if !strings.HasPrefix(g, "!") {
			included = false
			break
		}
	}
	for _, g := range globs {
		if exclude, ok := strings.CutPrefix(g, "!"); ok {
			if globMatch(exclude, rel) {
				return false
			}
			continue
		}
		if !included && globMatch(g, rel) {
			included = true
		}
	}
	return included
}

func globMatch(pattern, rel string) bool {
	pattern = strings.TrimSuffix(pattern, "/")
	// a glob naming a directory also covers everything beneath it
	candidates := []string{pattern, pattern + "/**"}
	if !strings.Contains(pattern, "/") {
		candidates = append(candidates, "**/"+pattern, "**/"+pattern+"/**")
	}
	for _, c := range candidates {
		if ok, _ := doublestar.Match(c, rel); ok {
			return true
		}
	}
	return false
}

func buildMatcher(query model.SearchQuery) (func(string) bool, error) {
	if query.IsRegex {
		flags := ""
		if !query.CaseSensitive {
			flags = "(?i)"
		}
		re, err := regexp.Compile(flags + query.Pattern)
		if err != nil {
			return nil, err
		}
		return func(line string) bool { return re.MatchString(line) }, nil
	}

	pattern := query.Pattern
	if !query.CaseSensitive {
		pattern = strings.ToLower(pattern)
	}
	return func(line string) bool {
		if !query.CaseSensitive {
			line = strings.ToLower(line)
		}
		return strings.Contains(line, pattern)
	}, nil
}
