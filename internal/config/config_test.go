package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "rgtree", "config.toml"))
	require.NoError(t, err)

	cfg, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
encoding = "shift_jis"
default_globs = ["*.go", "!vendor/**"]
mirror_ttl = "1h30m"
file_view = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	s, err := NewStore(path)
	require.NoError(t, err)

	cfg, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "shift_jis", cfg.Encoding)
	assert.Equal(t, []string{"*.go", "!vendor/**"}, cfg.DefaultGlobs)
	assert.Equal(t, 90*time.Minute, cfg.MirrorTTL.Duration)
	assert.True(t, cfg.FileView)
	assert.True(t, cfg.TreeView, "unset fields keep their defaults")
	assert.True(t, cfg.Fallback)
}

func TestLoadRejectsBadFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "encoding = "},
		{"bad duration", `mirror_ttl = "soon"`},
		{"no views", "tree_view = false\nfile_view = false\n"},
		{"bad glob", `default_globs = ["[a-"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))
			s, err := NewStore(path)
			require.NoError(t, err)

			_, err = s.Load()
			assert.Error(t, err)
		})
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	s, err := NewStore(path)
	require.NoError(t, err)

	require.NoError(t, s.Update(func(c *Config) error {
		c.RawArgs = []string{"--hidden"}
		c.Watch = false
		return nil
	}))

	cfg, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"--hidden"}, cfg.RawArgs)
	assert.False(t, cfg.Watch)
	assert.Equal(t, 72*time.Hour, cfg.MirrorTTL.Duration)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestUpdateRejectsInvalid(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	err = s.Update(func(c *Config) error {
		c.TreeView = false
		return nil
	})
	require.Error(t, err)

	_, statErr := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(statErr), "invalid config must not be written")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Encoding = " "
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.MirrorMax = -1
	assert.Error(t, cfg.Validate())
}
