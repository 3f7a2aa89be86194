package history

import (
	"strings"

	"github.com/okian/obituary/pkg/logger"
)

const (
	defaultMinSitelinks = 50
	defaultLimit        = 200
	defaultProvenance   = "Wikidata historical import"
)

// Option applies a configuration option to the Importer.
type Option func(*options)

type options struct {
	epochs       []Epoch
	lang         string
	minSitelinks int
	limit        int
	provenance   string
	logger       logger.Logger
}

func defaultOptions() options {
	return options{
		epochs:       DefaultEpochs(),
		lang:         "it",
		minSitelinks: defaultMinSitelinks,
		limit:        defaultLimit,
		provenance:   defaultProvenance,
		logger:       logger.Get().Named("historical"),
	}
}

// WithEpochs sets the death-year slices to import.
func WithEpochs(epochs ...Epoch) Option {
	return func(o *options) {
		if len(epochs) > 0 {
			o.epochs = epochs
		}
	}
}

// WithLanguage sets the language whose article a person must have.
func WithLanguage(lang string) Option {
	return func(o *options) {
		if l := strings.ToLower(strings.TrimSpace(lang)); l != "" {
			o.lang = l
		}
	}
}

// WithMinSitelinks sets the fame threshold.
func WithMinSitelinks(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.minSitelinks = n
		}
	}
}

// WithLimit caps the rows fetched per epoch.
func WithLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.limit = n
		}
	}
}

// WithProvenance sets the source note written into imported bios.
func WithProvenance(source string) Option {
	return func(o *options) {
		if strings.TrimSpace(source) != "" {
			o.provenance = source
		}
	}
}

// WithLogger sets a custom logger for the importer.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
