package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "auditdom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults without a path", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
		assert.NoError(t, cfg.Validate())
	})
	t.Run("overrides", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "filter: false\nindent: 2\nmax_buf: 4096\nformat: yaml\nlog_level: debug\nmetrics: true\n"))
		require.NoError(t, err)
		assert.Equal(t, Config{
			Filter:   false,
			Indent:   2,
			MaxBuf:   4096,
			Format:   FormatYAML,
			LogLevel: "debug",
			Metrics:  true,
		}, cfg)
		level, err := cfg.Level()
		require.NoError(t, err)
		assert.Equal(t, slog.LevelDebug, level)
		assert.Len(t, cfg.Options(), 2)
	})
	t.Run("partial file keeps defaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "indent: 8\n"))
		require.NoError(t, err)
		assert.True(t, cfg.Filter)
		assert.Equal(t, 8, cfg.Indent)
		assert.Equal(t, FormatHTML, cfg.Format)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "failed to read the config file")
	})
	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "indent: [\n"))
		assert.ErrorContains(t, err, "failed to parse the config file")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		msg    string
	}{
		{"negative indent", func(c *Config) { c.Indent = -1 }, "indent must not be negative"},
		{"negative max buf", func(c *Config) { c.MaxBuf = -1 }, "max_buf must not be negative"},
		{"unknown format", func(c *Config) { c.Format = "xml" }, `unknown format "xml"`},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, `invalid log level "loud"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.msg)
		})
	}
}
