// Package config loads service configuration from the environment and the
// optional style-rule file.
package config

import (
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/quillcraft/inkwell/core/errors"
	"github.com/quillcraft/inkwell/core/guard"
)

// Config is the service configuration, populated from the environment.
type Config struct {
	Port        int    `env:"INKWELL_PORT" envDefault:"8787"`
	DBPath      string `env:"INKWELL_DB" envDefault:"inkwell.db"`
	SnapshotDir string `env:"INKWELL_SNAPSHOTS" envDefault:"snapshots"`
	LogLevel    string `env:"INKWELL_LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"INKWELL_LOG_FORMAT" envDefault:"json"`

	// StyleRules is an optional path to a YAML file overriding the built-in
	// style policy lists.
	StyleRules string `env:"INKWELL_STYLE_RULES"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	return cfg, nil
}

// StyleConfig returns the style policy configuration: the defaults, overlaid
// with any fields set in the YAML rule file. Empty lists in the file leave
// the defaults in place.
func (c *Config) StyleConfig() (guard.StyleConfig, error) {
	cfg := guard.DefaultStyleConfig()
	if c.StyleRules == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(c.StyleRules)
	if err != nil {
		return cfg, errors.Wrap(err, "read style rules")
	}
	var overlay guard.StyleConfig
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return cfg, errors.Wrap(err, "parse style rules")
	}

	if len(overlay.WeakAdverbs) > 0 {
		cfg.WeakAdverbs = overlay.WeakAdverbs
	}
	if len(overlay.BannedWords) > 0 {
		cfg.BannedWords = overlay.BannedWords
	}
	if len(overlay.Cliches) > 0 {
		cfg.Cliches = overlay.Cliches
	}
	if overlay.MaxParagraphLen > 0 {
		cfg.MaxParagraphLen = overlay.MaxParagraphLen
	}
	return cfg, nil
}
