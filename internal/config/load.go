package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/creasty/defaults"
	"github.com/goccy/go-yaml"

	"github.com/gdpm-dev/session-bridge/internal/serviceerr"
)

// Load reads the first config file found among paths, applies struct
// defaults, and lets environment variables override both. A missing file is
// not an error; a missing backend endpoint or key is.
func Load(paths ...string) (*Config, error) {
	cfg := &Config{}

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("applying config defaults: %w", err)
	}

	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}

		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}

		break
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment overrides: %w", err)
	}

	if cfg.Backend.URL == "" || cfg.Backend.AnonKey == "" {
		return nil, serviceerr.ErrConfigMissing
	}

	return cfg, nil
}
