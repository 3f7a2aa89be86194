package resolve

import (
	"strings"

	"github.com/okian/obituary/pkg/logger"
)

const (
	defaultPrimaryLang   = "it"
	defaultSearchLimit   = 5
	defaultMinExtract    = 30
	defaultMaxExtraRunes = 3
)

// Option applies a configuration option to the Resolver.
type Option func(*options)

type options struct {
	langs         []string
	searchLimit   int
	minExtract    int
	maxExtraRunes int
	logger        logger.Logger
}

func defaultOptions() options {
	return options{
		langs:         []string{defaultPrimaryLang, "en"},
		searchLimit:   defaultSearchLimit,
		minExtract:    defaultMinExtract,
		maxExtraRunes: defaultMaxExtraRunes,
		logger:        logger.Get().Named("resolver"),
	}
}

// WithLanguages sets the primary language followed by fallbacks, in order.
// Blank and repeated codes are dropped.
func WithLanguages(primary string, fallbacks ...string) Option {
	return func(o *options) {
		var langs []string
		seen := map[string]struct{}{}
		for _, l := range append([]string{primary}, fallbacks...) {
			l = strings.ToLower(strings.TrimSpace(l))
			if l == "" {
				continue
			}
			if _, ok := seen[l]; ok {
				continue
			}
			seen[l] = struct{}{}
			langs = append(langs, l)
		}
		if len(langs) > 0 {
			o.langs = langs
		}
	}
}

// WithSearchLimit sets how many search titles are examined per language.
// Zero disables the search expansion.
func WithSearchLimit(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.searchLimit = n
		}
	}
}

// WithMinExtractLength sets the extract length a summary must exceed.
func WithMinExtractLength(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.minExtract = n
		}
	}
}

// WithMaxVariantExtraRunes sets how much longer than the query a fuzzy
// spelling variant may be.
func WithMaxVariantExtraRunes(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxExtraRunes = n
		}
	}
}

// WithLogger sets a custom logger for the resolver.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
