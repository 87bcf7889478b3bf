// Package cli wires the rgtree commands: the interactive browser, a
// non-interactive print mode and config helpers.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/altinukshini/rgtree/internal/config"
	"github.com/altinukshini/rgtree/internal/mirror"
	"github.com/altinukshini/rgtree/internal/model"
	"github.com/altinukshini/rgtree/internal/provider"
	"github.com/altinukshini/rgtree/internal/resulttree"
	"github.com/altinukshini/rgtree/internal/rg"
	"github.com/altinukshini/rgtree/internal/search"
	"github.com/altinukshini/rgtree/internal/tui"
	"github.com/altinukshini/rgtree/internal/watch"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func init() {
	if version != "dev" {
		return
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
}

type rootOptions struct {
	configPath string
	globs      []string
	rawArgs    []string
	encoding   string
	mirror     bool
	noWatch    bool
	builtin    bool
	limit      int
}

func Execute() int {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "rgtree [pattern] [dir]",
		Short:         "Browse ripgrep results as a tree of searches, files and matches",
		Args:          cobra.MaximumNArgs(2),
		SilenceErrors: false,
		SilenceUsage:  true,
		Version:       buildVersion(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts, args)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "Override config file path (default: OS user config dir)")
	f.StringArrayVarP(&opts.globs, "glob", "g", nil, "Include or exclude (!glob) files; repeatable")
	f.StringVar(&opts.encoding, "encoding", "", "Text encoding of searched files")
	f.StringArrayVar(&opts.rawArgs, "raw", nil, "Extra argument passed to rg as is; repeatable")
	f.BoolVar(&opts.mirror, "mirror", false, "Also write raw search output to a result log")
	f.BoolVar(&opts.noWatch, "no-watch", false, "Do not drop results of files deleted from disk")
	f.BoolVar(&opts.builtin, "builtin", false, "Use the built-in matcher instead of rg")
	f.IntVar(&opts.limit, "limit", 0, "Maximum number of results kept (default 10240)")

	cmd.AddCommand(
		newPrintCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)

	return cmd
}

func buildVersion() string {
	v := version
	if commit != "" {
		v += " (" + commit + ")"
	}
	if date != "" {
		v += " " + date
	}
	return v
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the rgtree version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "rgtree", buildVersion())
			return err
		},
	}
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig(opts *rootOptions) (config.Config, error) {
	store, err := config.NewStore(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := store.Load()
	if err != nil {
		return config.Config{}, err
	}
	if len(opts.globs) > 0 {
		cfg.DefaultGlobs = opts.globs
	}
	if len(opts.rawArgs) > 0 {
		cfg.RawArgs = opts.rawArgs
	}
	if opts.encoding != "" {
		cfg.Encoding = opts.encoding
	}
	if opts.mirror {
		cfg.FileView = true
	}
	if opts.noWatch {
		cfg.Watch = false
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newSearcher returns the rg runner, or the built-in matcher when rg is
// missing and fallback is enabled.
func newSearcher(cfg config.Config, builtin bool) (tui.Searcher, error) {
	if builtin {
		return search.New(), nil
	}
	r, err := rg.New(cfg.RgPath)
	if err == nil {
		return r, nil
	}
	if errors.Is(err, rg.ErrNotFound) && cfg.Fallback {
		log.Printf("rg not found, using built-in matcher")
		return search.New(), nil
	}
	return nil, err
}

func newProvider(limit int) *provider.Provider {
	var opts []resulttree.Option
	if limit > 0 {
		opts = append(opts, resulttree.WithLimit(limit))
	}
	return provider.New(resulttree.New(opts...))
}

func openMirror(cfg config.Config) (*mirror.Mirror, error) {
	dir := cfg.MirrorDir
	if dir == "" {
		d, err := mirror.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	return mirror.New(dir, cfg.MirrorMax, cfg.MirrorTTL.Duration)
}

// setupLogging sends the standard logger to a file when RGTREE_DEBUG names
// one; otherwise log output is dropped so it cannot corrupt the TUI.
func setupLogging() (io.Closer, error) {
	path := os.Getenv("RGTREE_DEBUG")
	if path == "" {
		log.SetOutput(io.Discard)
		return io.NopCloser(nil), nil
	}
	return tea.LogToFile(path, "rgtree")
}

func runTUI(cmd *cobra.Command, opts *rootOptions, args []string) error {
	logFile, err := setupLogging()
	if err != nil {
		return fmt.Errorf("open debug log: %w", err)
	}
	defer logFile.Close()

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	searcher, err := newSearcher(cfg, opts.builtin)
	if err != nil {
		return err
	}

	m, err := openMirror(cfg)
	if err != nil {
		log.Printf("result logs disabled: %v", err)
		cfg.FileView = false
		m = nil
	} else {
		if n, err := m.Evict(); err != nil {
			log.Printf("evict result logs: %v", err)
		} else if n > 0 {
			log.Printf("evicted %d result logs", n)
		}
		defer func() {
			if err := m.RemoveTracked(); err != nil {
				log.Printf("remove result logs: %v", err)
			}
		}()
	}
	if !cfg.TreeView && !cfg.FileView {
		return fmt.Errorf("tree_view is off and result logs are unavailable")
	}

	var w *watch.Watcher
	if cfg.Watch {
		w, err = watch.New(watch.DefaultDebounce)
		if err != nil {
			log.Printf("file watching disabled: %v", err)
		} else {
			defer w.Close()
		}
	}

	dir, _ := os.Getwd()
	var initial *model.SearchQuery
	if len(args) > 0 {
		q := model.SearchQuery{
			Pattern:  args[0],
			Dir:      dir,
			Globs:    cfg.DefaultGlobs,
			RawArgs:  cfg.RawArgs,
			Encoding: cfg.Encoding,
		}
		if len(args) > 1 {
			q.Dir = args[1]
			dir = args[1]
		}
		initial = &q
	}

	app := tui.NewApp(tui.Options{
		Config:   cfg,
		Provider: newProvider(opts.limit),
		Searcher: searcher,
		Mirror:   m,
		Watcher:  w,
		Dir:      dir,
		Initial:  initial,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
