package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SNAPDASH_CONFIG is set
//  3. env (prefix SNAPDASH_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("SNAPDASH_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	// Environment variables: SNAPDASH_ADDR, SNAPDASH_QUEUE_SIZE, ...
	// Underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("SNAPDASH_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "snapdash_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate enforces the handful of invariants the engines depend on.
func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return ErrEmptyAddr
	case c.PHashThreshold <= 0:
		return fmt.Errorf("%w: phash_threshold %d", ErrInvalidThreshold, c.PHashThreshold)
	case c.AutoApproveScore <= 0 || c.AutoApproveScore > 1:
		return fmt.Errorf("%w: auto_approve_score %v", ErrInvalidThreshold, c.AutoApproveScore)
	case c.FeatureScoreThreshold <= 0 || c.FeatureScoreThreshold > 1:
		return fmt.Errorf("%w: feature_score_threshold %v", ErrInvalidThreshold, c.FeatureScoreThreshold)
	}
	return nil
}
