package config

import (
	"context"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/splits/pkg/errs"
)

const (
	envPrefix  = "SPLITS_"
	envConfig  = "SPLITS_CONFIG"
	listFields = "segments"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SPLITS_CONFIG is set
//  3. env (prefix SPLITS_); SPLITS_SEGMENTS is comma-separated
func Load(ctx context.Context) (*Config, error) {
	const op = "config.load"
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errs.Wrap(op, ErrLoadConfig, err)
		}
	}

	// SPLITS_TOTAL_KEY -> total_key. Underscores are kept to match koanf tags.
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		if key == "config" {
			return "", nil
		}
		if key == listFields {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errs.Wrap(op, ErrLoadConfig, err)
	}

	cfg := *base
	// Lists replace the default rather than merging element by element.
	if k.Exists(listFields) {
		cfg.Segments = nil
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errs.Wrap(op, ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and the segment layout.
func (c *Config) Validate() error {
	const op = "config.validate"
	if err := validator.New().Struct(c); err != nil {
		return errs.Wrap(op, ErrInvalidConfig, err)
	}
	if err := c.Layout().Validate(); err != nil {
		return errs.Wrap(op, ErrInvalidConfig, err)
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
