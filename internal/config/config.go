package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"auditdom"
)

const (
	FormatHTML = "html"
	FormatYAML = "yaml"
)

type Config struct {
	// Filter keeps only audit relevant nodes
	Filter bool `yaml:"filter"`
	// Indent is the number of spaces per nesting level in HTML output
	Indent int `yaml:"indent"`
	// MaxBuf caps the tokenizer buffer in bytes, 0 disables the cap
	MaxBuf   int    `yaml:"max_buf"`
	Format   string `yaml:"format"`
	LogLevel string `yaml:"log_level"`
	// Metrics logs the parser counters once the command is done
	Metrics bool `yaml:"metrics"`
}

func Default() Config {
	return Config{
		Filter:   true,
		Indent:   auditdom.DefaultIndent,
		Format:   FormatHTML,
		LogLevel: "info",
	}
}

// Load reads a YAML file over the defaults. An empty path yields the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read the config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse the config file %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Indent < 0 {
		return fmt.Errorf("indent must not be negative, got %d", c.Indent)
	}
	if c.MaxBuf < 0 {
		return fmt.Errorf("max_buf must not be negative, got %d", c.MaxBuf)
	}
	switch c.Format {
	case FormatHTML, FormatYAML:
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Options translates the config into parser options.
func (c Config) Options() []auditdom.Option {
	return []auditdom.Option{
		auditdom.WithFilter(c.Filter),
		auditdom.WithMaxBuf(c.MaxBuf),
	}
}
