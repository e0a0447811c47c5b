package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/transitworks/paxassign/core/metrics"
)

type Config struct {
	Assignment AssignmentConfig `json:"assignment"`
	Feed       FeedConfig       `json:"feed"`
	Output     OutputConfig     `json:"output"`
	Metrics    metrics.Config   `json:"metrics"`
	Logging    LoggingConfig    `json:"logging"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = kjson.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("PAX_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "pax_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Assignment.SetDefaults()
	cfg.Output.SetDefaults()
	cfg.Logging.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the whole configuration. An invalid configuration aborts
// the run before any iteration starts.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c.Assignment); err != nil {
		return fmt.Errorf("assignment config: %w", err)
	}
	if err := v.Struct(c.Feed); err != nil {
		return fmt.Errorf("feed config: %w", err)
	}
	if err := c.Assignment.Validate(); err != nil {
		return err
	}
	return c.Logging.Validate()
}

// Write dumps the effective configuration next to the run outputs so a run
// can be reproduced later.
func (c *Config) Write(dir string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "run_config.json"), data, 0o644)
}
