package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/altinukshini/rgtree/internal/config"
)

func newConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change stored settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := config.NewStore(root.configPath)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), store.Path())
				return err
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective settings as TOML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := config.NewStore(root.configPath)
				if err != nil {
					return err
				}
				cfg, err := store.Load()
				if err != nil {
					return err
				}
				b, err := toml.Marshal(cfg)
				if err != nil {
					return fmt.Errorf("marshal config: %w", err)
				}
				_, err = cmd.OutOrStdout().Write(b)
				return err
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one setting",
			Long: "Change one setting. List values (default_globs, raw_args) are comma separated;\n" +
				"an empty value clears them.",
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := config.NewStore(root.configPath)
				if err != nil {
					return err
				}
				return store.Update(func(cfg *config.Config) error {
					return setField(cfg, args[0], args[1])
				})
			},
		},
	)
	return cmd
}

func setField(cfg *config.Config, key, value string) error {
	switch key {
	case "rg_path":
		cfg.RgPath = value
	case "encoding":
		cfg.Encoding = value
	case "default_globs":
		cfg.DefaultGlobs = splitList(value)
	case "raw_args":
		cfg.RawArgs = splitList(value)
	case "mirror_dir":
		cfg.MirrorDir = value
	case "mirror_ttl":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("mirror_ttl: %w", err)
		}
		cfg.MirrorTTL = config.Duration{Duration: d}
	case "mirror_max_mb":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("mirror_max_mb: %w", err)
		}
		cfg.MirrorMax = n
	case "tree_view", "file_view", "watch", "fallback":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		switch key {
		case "tree_view":
			cfg.TreeView = b
		case "file_view":
			cfg.FileView = b
		case "watch":
			cfg.Watch = b
		case "fallback":
			cfg.Fallback = b
		}
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
