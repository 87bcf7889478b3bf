// Package rg runs ripgrep and streams its output as chunks.
package rg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cli/safeexec"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/altinukshini/rgtree/internal/model"
)

const (
	DefaultEncoding = "utf-8"
	readSize        = 32 * 1024
)

var ErrNotFound = errors.New("ripgrep executable not found")

type Runner struct {
	path string
}

// New returns a runner for the rg binary at path, or the first rg on PATH
// when path is empty.
func New(path string) (*Runner, error) {
	if path == "" {
		found, err := safeexec.LookPath("rg")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		path = found
	}
	return &Runner{path: path}, nil
}

func (r *Runner) Path() string {
	return r.path
}

// BuildArgs returns the rg argument list for q. The pattern always goes
// after -e so a leading dash is not read as a flag.
func BuildArgs(q model.SearchQuery) ([]string, error) {
	if q.Pattern == "" {
		return nil, errors.New("empty search pattern")
	}
	enc := q.Encoding
	if enc == "" {
		enc = DefaultEncoding
	}
	args := []string{
		"--line-number", "--no-heading", "--with-filename",
		"--color", "never",
		"--encoding", enc,
	}
	if !q.IsRegex {
		args = append(args, "--fixed-strings")
	}
	if !q.CaseSensitive {
		args = append(args, "--ignore-case")
	}
	for _, g := range q.Globs {
		if !doublestar.ValidatePattern(strings.TrimPrefix(g, "!")) {
			return nil, fmt.Errorf("invalid glob %q", g)
		}
		args = append(args, "-g", g)
	}
	args = append(args, q.RawArgs...)
	args = append(args, "-e", q.Pattern)
	dir := q.Dir
	if dir == "" {
		dir = "."
	}
	return append(args, dir), nil
}

// Decoder returns a decoder for the named encoding, using the WHATWG
// label set. UTF-8 passes through unchanged. It is for reading searched files
// directly; rg itself already transcodes to UTF-8 on output.
func Decoder(name string) (*encoding.Decoder, error) {
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return encoding.Nop.NewDecoder(), nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return enc.NewDecoder(), nil
}

// Start launches rg for q and returns a channel of its output. rg reads the
// files in q.Encoding and always prints UTF-8, so stdout and stderr are
// forwarded as they arrive without decoding; the last chunk has Done set and the
// channel is closed after it. Exit status 1 (no matches) is not an error.
// Cancelling ctx kills the process; the Done chunk may then be dropped.
func (r *Runner) Start(ctx context.Context, sessionID string, q model.SearchQuery) (<-chan model.Chunk, error) {
	args, err := BuildArgs(q)
	if err != nil {
		return nil, err
	}
	if _, err := Decoder(q.Encoding); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, r.path, args...)
	cmd.WaitDelay = time.Second
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("opening stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("opening stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting rg: %w", err)
	}

	out := make(chan model.Chunk)
	go func() {
		defer close(out)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return pump(gctx, out, sessionID, model.Stdout, stdout) })
		g.Go(func() error { return pump(gctx, out, sessionID, model.Stderr, stderr) })
		pumpErr := g.Wait()
		waitErr := cmd.Wait()

		done := model.Chunk{SessionID: sessionID, Done: true, Err: exitError(waitErr)}
		if done.Err == nil && pumpErr != nil && ctx.Err() == nil {
			done.Err = pumpErr
		}
		if ctx.Err() != nil {
			done.Err = ctx.Err()
		}
		select {
		case out <- done:
		case <-ctx.Done():
		}
	}()
	return out, nil
}

func pump(ctx context.Context, out chan<- model.Chunk, sessionID string, stream model.Stream, r io.Reader) error {
	buf := make([]byte, readSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := model.Chunk{SessionID: sessionID, Stream: stream, Text: string(buf[:n])}
			select {
			case out <- chunk:
			case <-ctx.Done():
				_, _ = io.Copy(io.Discard, r)
				return ctx.Err()
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", stream, err)
		}
	}
}

func exitError(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return nil
	}
	return fmt.Errorf("rg: %w", err)
}
