package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/cli/go-gh/v2/pkg/term"
	"github.com/cli/go-gh/v2/pkg/text"
	"github.com/spf13/cobra"

	"github.com/altinukshini/rgtree/internal/model"
	"github.com/altinukshini/rgtree/internal/provider"
	"github.com/altinukshini/rgtree/internal/resulttree"
	"github.com/altinukshini/rgtree/internal/tui"
	"github.com/altinukshini/rgtree/internal/ui"
)

type printOptions struct {
	regex         bool
	caseSensitive bool
	collapse      bool
}

func newPrintCmd(root *rootOptions) *cobra.Command {
	opts := &printOptions{}
	cmd := &cobra.Command{
		Use:   "print <pattern> [dir]",
		Short: "Run one search and print the result tree",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrint(cmd, root, opts, args)
		},
	}
	cmd.Flags().BoolVarP(&opts.regex, "regex", "e", false, "Treat the pattern as a regular expression")
	cmd.Flags().BoolVarP(&opts.caseSensitive, "case-sensitive", "s", false, "Match case")
	cmd.Flags().BoolVar(&opts.collapse, "files", false, "Print only files and their match counts")
	return cmd
}

func runPrint(cmd *cobra.Command, root *rootOptions, opts *printOptions, args []string) error {
	logFile, err := setupLogging()
	if err != nil {
		return fmt.Errorf("open debug log: %w", err)
	}
	defer logFile.Close()

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	searcher, err := newSearcher(cfg, root.builtin)
	if err != nil {
		return err
	}

	dir := "."
	if len(args) > 1 {
		dir = args[1]
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	q := model.SearchQuery{
		Pattern:       args[0],
		Dir:           dir,
		Globs:         cfg.DefaultGlobs,
		RawArgs:       cfg.RawArgs,
		Encoding:      cfg.Encoding,
		IsRegex:       opts.regex,
		CaseSensitive: opts.caseSensitive,
	}

	p := newProvider(root.limit)
	id := model.NewSessionID(q.Pattern, time.Now())
	runErr := collect(cmd.Context(), p, searcher, id, q, cmd.ErrOrStderr())

	t := term.FromEnv()
	width := 0
	if t.IsTerminalOutput() {
		if w, _, err := t.Size(); err == nil {
			width = w
		}
	}
	pr := treePrinter{out: cmd.OutOrStdout(), width: width, color: t.IsColorEnabled(), files: opts.collapse}
	if r := p.Root(id); r != nil {
		if err := pr.print(p, r); err != nil {
			return err
		}
		if r.Incomplete {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: stopped after %d results\n", p.Limit())
		}
	}
	return runErr
}

// collect runs one search into p. Output that no longer fits is read and
// dropped so the search can finish.
func collect(ctx context.Context, p *provider.Provider, s tui.Searcher, id string, q model.SearchQuery, errOut io.Writer) error {
	ch, err := s.Start(ctx, id, q)
	if err != nil {
		return err
	}
	p.CreateSession(id, q.Dir)

	var runErr, ingestErr error
	for c := range ch {
		if c.Done {
			runErr = c.Err
			continue
		}
		if c.Stream == model.Stderr {
			fmt.Fprint(errOut, c.Text)
			continue
		}
		if ingestErr != nil {
			continue
		}
		ingestErr = p.Ingest(id, c.Text)
	}
	if ingestErr == nil {
		ingestErr = p.Complete(id)
	}
	if ingestErr != nil && !errors.Is(ingestErr, resulttree.ErrCapacityExceeded) {
		return ingestErr
	}
	return runErr
}

type treePrinter struct {
	out   io.Writer
	width int
	color bool
	files bool
}

func (tp treePrinter) style(s lipgloss.Style, v string) string {
	if !tp.color {
		return v
	}
	return s.Render(v)
}

func (tp treePrinter) line(s string) error {
	if tp.width > 0 {
		s = text.Truncate(tp.width, s)
	}
	_, err := fmt.Fprintln(tp.out, s)
	return err
}

func (tp treePrinter) print(p *provider.Provider, r *resulttree.Root) error {
	header := fmt.Sprintf("%s (%s in %s)", r.Label,
		text.Pluralize(r.MatchCount, "result"), text.Pluralize(len(r.Files), "file"))
	if err := tp.line(tp.style(ui.StyleSession, header)); err != nil {
		return err
	}
	for _, fg := range r.Files {
		label := fg.Label
		if rel, err := filepath.Rel(r.Dir, fg.Path); err == nil && !strings.HasPrefix(rel, "..") {
			label = rel
		}
		if err := tp.line("  " + tp.style(ui.StyleFile, label) + fmt.Sprintf(" (%d)", fg.Len())); err != nil {
			return err
		}
		if tp.files {
			continue
		}
		for _, n := range p.Children(fg) {
			leaf := n.(*resulttree.Leaf)
			no := tp.style(ui.StyleLineNo, fmt.Sprintf("%5d:", leaf.Line))
			if err := tp.line("    " + no + " " + strings.TrimSpace(leaf.Label)); err != nil {
				return err
			}
		}
	}
	return nil
}
