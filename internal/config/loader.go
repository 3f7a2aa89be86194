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

	"github.com/okian/obituary/internal/domain/history"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if OBITUARY_CONFIG is set
//  3. env (prefix OBITUARY_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("OBITUARY_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// Map env keys like OBITUARY_RETRY_DELAY -> retry_delay (flat keys).
	// List keys take comma-separated values.
	envProvider := env.ProviderWithValue("OBITUARY_", ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), "obituary_")
		if _, ok := listKeys[key]; ok {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	// Lists given in a layer replace the default list instead of being
	// merged into it element by element.
	if k.Exists("fallback_langs") {
		cfg.FallbackLangs = nil
	}
	if k.Exists("historical_epochs") {
		cfg.HistoricalEpochs = nil
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// listKeys are the keys whose env values are comma-separated lists.
var listKeys = map[string]struct{}{
	"fallback_langs":    {},
	"historical_epochs": {},
}

// splitList splits a comma-separated value, trimming entries and dropping
// empty ones.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) normalize() {
	c.PrimaryLang = strings.ToLower(strings.TrimSpace(c.PrimaryLang))
	langs := c.FallbackLangs[:0]
	for _, l := range c.FallbackLangs {
		if l = strings.ToLower(strings.TrimSpace(l)); l != "" {
			langs = append(langs, l)
		}
	}
	c.FallbackLangs = langs
}

// Validate reports the first rule the configuration breaks.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.RegistryFile) == "":
		return fmt.Errorf("%w: registry_file must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.PrimaryLang) == "":
		return fmt.Errorf("%w: primary_lang must not be empty", ErrInvalidConfig)
	case c.RetryAttempts < 0:
		return fmt.Errorf("%w: retry_attempts must not be negative", ErrInvalidConfig)
	case c.MinExtractLength < 0:
		return fmt.Errorf("%w: min_extract_length must not be negative", ErrInvalidConfig)
	case c.SearchLimit < 0:
		return fmt.Errorf("%w: search_limit must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Epochs(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Epochs parses HistoricalEpochs.
func (c *Config) Epochs() ([]history.Epoch, error) {
	return history.ParseEpochs(c.HistoricalEpochs)
}
