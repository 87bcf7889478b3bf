package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"
)

const fileName = "config.toml"

type Config struct {
	RgPath       string   `toml:"rg_path"`
	Encoding     string   `toml:"encoding"`
	DefaultGlobs []string `toml:"default_globs"`
	RawArgs      []string `toml:"raw_args"`
	// TreeView feeds results into the tree pane; FileView mirrors the raw
	// output to a log file. At least one must be on.
	TreeView  bool     `toml:"tree_view"`
	FileView  bool     `toml:"file_view"`
	MirrorDir string   `toml:"mirror_dir"`
	MirrorTTL Duration `toml:"mirror_ttl"`
	MirrorMax int      `toml:"mirror_max_mb"`
	Watch     bool     `toml:"watch"`
	Fallback  bool     `toml:"fallback"`
}

// Duration reads and writes time.Duration as a string such as "72h".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func Default() Config {
	return Config{
		Encoding:  "utf-8",
		TreeView:  true,
		FileView:  false,
		MirrorTTL: Duration{72 * time.Hour},
		MirrorMax: 100,
		Watch:     true,
		Fallback:  true,
	}
}

func (c Config) Validate() error {
	if !c.TreeView && !c.FileView {
		return fmt.Errorf("at least one of tree_view and file_view must be enabled")
	}
	if strings.TrimSpace(c.Encoding) == "" {
		return fmt.Errorf("encoding must not be empty")
	}
	for _, g := range c.DefaultGlobs {
		if !doublestar.ValidatePattern(strings.TrimPrefix(g, "!")) {
			return fmt.Errorf("invalid default glob %q", g)
		}
	}
	if c.MirrorTTL.Duration < 0 {
		return fmt.Errorf("mirror_ttl must not be negative")
	}
	if c.MirrorMax < 0 {
		return fmt.Errorf("mirror_max_mb must not be negative")
	}
	return nil
}

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "rgtree", fileName), nil
}

// Store reads and writes the config file. A file lock keeps concurrent
// rgtree processes from clobbering each other's edits.
type Store struct {
	mu   sync.Mutex
	path string
	lock *flock.Flock
}

func NewStore(pathOverride string) (*Store, error) {
	path := pathOverride
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	return &Store{path: path, lock: flock.New(path + ".lock")}, nil
}

func (s *Store) Path() string {
	return s.path
}

// Load returns the stored config, or the defaults when no file exists.
func (s *Store) Load() (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.RLock(); err != nil {
		return Config{}, fmt.Errorf("lock config: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	return s.loadUnlocked()
}

// Update applies fn to the stored config and writes it back if fn and
// validation succeed.
func (s *Store) Update(fn func(*Config) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock config: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	cfg, err := s.loadUnlocked()
	if err != nil {
		return err
	}
	if err := fn(&cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return s.saveUnlocked(cfg)
}

func (s *Store) loadUnlocked() (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", s.path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", s.path, err)
	}
	return cfg, nil
}

func (s *Store) saveUnlocked(cfg Config) error {
	b, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := atomicWriteFile(s.path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer os.Remove(name)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(name, path)
}
