package wiki

import (
	"net/http"
	"strings"
	"time"

	"github.com/okian/obituary/pkg/logger"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultRequestDelay = 500 * time.Millisecond
	defaultRetries      = 3
	defaultRetryDelay   = 2 * time.Second
	defaultUserAgent    = "obituary/1.0"

	// DefaultWikipediaBaseURL is expanded per language.
	DefaultWikipediaBaseURL = "https://{lang}.wikipedia.org"
	// DefaultSPARQLEndpoint is the public Wikidata query service.
	DefaultSPARQLEndpoint = "https://query.wikidata.org/sparql"
)

// Option applies a configuration option to a wiki client.
type Option func(*options)

type options struct {
	httpClient   *http.Client
	timeout      time.Duration
	userAgent    string
	requestDelay time.Duration
	retries      int
	retryDelay   time.Duration
	baseURL      string
	endpoint     string
	logger       logger.Logger
}

func defaultOptions(name string) options {
	return options{
		timeout:      defaultTimeout,
		userAgent:    defaultUserAgent,
		requestDelay: defaultRequestDelay,
		retries:      defaultRetries,
		retryDelay:   defaultRetryDelay,
		baseURL:      DefaultWikipediaBaseURL,
		endpoint:     DefaultSPARQLEndpoint,
		logger:       logger.Get().Named(name),
	}
}

// WithHTTPClient replaces the HTTP client. Its timeout is left unchanged.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithTimeout bounds every call.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header sent with each call.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		if strings.TrimSpace(ua) != "" {
			o.userAgent = ua
		}
	}
}

// WithRequestDelay sets the fixed pause between successive calls.
func WithRequestDelay(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.requestDelay = d
		}
	}
}

// WithRetry sets how many times a failed call is retried and the fixed
// delay between attempts.
func WithRetry(retries int, delay time.Duration) Option {
	return func(o *options) {
		if retries >= 0 {
			o.retries = retries
		}
		if delay >= 0 {
			o.retryDelay = delay
		}
	}
}

// WithBaseURL sets the Wikipedia base URL. A "{lang}" placeholder is
// replaced by the language code.
func WithBaseURL(u string) Option {
	return func(o *options) {
		if strings.TrimSpace(u) != "" {
			o.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithEndpoint sets the SPARQL endpoint.
func WithEndpoint(u string) Option {
	return func(o *options) {
		if strings.TrimSpace(u) != "" {
			o.endpoint = u
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
