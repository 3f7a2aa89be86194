// Package dedupe defines the interface for identity tracking.
package dedupe

import (
	"context"
	"strings"
)

// Deduper records seen identity keys so the same subject is processed once.
type Deduper interface {
	// SeenAndRecord checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Seen reports whether id was recorded, without recording it.
	Seen(ctx context.Context, id string) bool
}

// Normalizer maps a raw identity to its comparison key.
type Normalizer func(string) string

// inMemoryDeduper implements Deduper with a map keyed by normalized ids.
// Blank ids are never recorded and never reported as seen. It lives for one
// request and is not safe for concurrent use.
type inMemoryDeduper struct {
	seen      map[string]struct{}
	normalize Normalizer
	pending   []string // seed ids applied once options are set
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		seen:      make(map[string]struct{}),
		normalize: strings.TrimSpace,
	}

	for _, opt := range opts {
		opt(d)
	}

	for _, id := range d.pending {
		d.SeenAndRecord(context.Background(), id)
	}
	d.pending = nil

	return d
}

// SeenAndRecord checks if id was seen and records it if not.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	k := d.normalize(id)
	if k == "" {
		return false
	}
	if _, exists := d.seen[k]; exists {
		return true
	}
	d.seen[k] = struct{}{}
	return false
}

// Seen reports whether id was recorded.
func (d *inMemoryDeduper) Seen(_ context.Context, id string) bool {
	k := d.normalize(id)
	if k == "" {
		return false
	}
	_, exists := d.seen[k]
	return exists
}
