// Package config defines process configuration and its loading.
//
// Conventions:
// - New() returns the defaults; Load layers a YAML file and env on top.
// - Durations accept Go duration strings ("10s", "500ms").
// - List values accept YAML lists or comma-separated env values.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// RegistryFile is the JSON array of person records.
	RegistryFile string `koanf:"registry_file"`

	// AnalyticsFile is the JSON object of view counters.
	AnalyticsFile string `koanf:"analytics_file"`

	// MetricsFile, when set, receives a Prometheus textfile at the end of a run.
	MetricsFile string `koanf:"metrics_file"`

	// Command is the command string used when none is given on the command line.
	Command string `koanf:"command"`

	// PrimaryLang and FallbackLangs rank the encyclopedia editions searched.
	PrimaryLang   string   `koanf:"primary_lang"`
	FallbackLangs []string `koanf:"fallback_langs"`

	// SearchLimit caps the search expansion per language.
	SearchLimit int `koanf:"search_limit"`

	// MinExtractLength is the extract length a page must exceed to be accepted.
	MinExtractLength int `koanf:"min_extract_length"`

	// MaxVariantExtraRunes bounds how much longer a fuzzy spelling variant may be.
	MaxVariantExtraRunes int `koanf:"max_variant_extra_runes"`

	// RequestTimeout bounds each external call; RequestDelay spaces them out.
	RequestTimeout time.Duration `koanf:"request_timeout"`
	RequestDelay   time.Duration `koanf:"request_delay"`

	// RetryAttempts failed calls are retried, RetryDelay apart.
	RetryAttempts int           `koanf:"retry_attempts"`
	RetryDelay    time.Duration `koanf:"retry_delay"`

	UserAgent        string `koanf:"user_agent"`
	WikipediaBaseURL string `koanf:"wikipedia_base_url"`
	SPARQLEndpoint   string `koanf:"sparql_endpoint"`

	// HistoricalMinSitelinks is the fame threshold of the historical import.
	HistoricalMinSitelinks int `koanf:"historical_min_sitelinks"`

	// HistoricalLimit caps the rows fetched per epoch.
	HistoricalLimit int `koanf:"historical_limit"`

	// HistoricalEpochs lists death-year slices as "FROM-TO".
	HistoricalEpochs []string `koanf:"historical_epochs"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		RegistryFile:           "library.json",
		AnalyticsFile:          "analytics.json",
		PrimaryLang:            "it",
		FallbackLangs:          []string{"en"},
		SearchLimit:            5,
		MinExtractLength:       30,
		MaxVariantExtraRunes:   3,
		RequestTimeout:         10 * time.Second,
		RequestDelay:           500 * time.Millisecond,
		RetryAttempts:          3,
		RetryDelay:             2 * time.Second,
		UserAgent:              "obituary/1.0",
		WikipediaBaseURL:       "https://{lang}.wikipedia.org",
		SPARQLEndpoint:         "https://query.wikidata.org/sparql",
		HistoricalMinSitelinks: 50,
		HistoricalLimit:        200,
		HistoricalEpochs: []string{
			"1800-1900", "1900-1950", "1950-1970", "1970-1990",
			"1990-2000", "2000-2010", "2010-2020", "2020-2030",
		},
	}
}
