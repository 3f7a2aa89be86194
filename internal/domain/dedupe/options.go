// Package dedupe defines the interface for identity tracking.
package dedupe

// Option applies a configuration option to the InMemoryDeduper.
type Option func(*inMemoryDeduper)

// WithNormalizer sets the function that maps ids to comparison keys.
func WithNormalizer(fn Normalizer) Option {
	return func(d *inMemoryDeduper) {
		if fn != nil {
			d.normalize = fn
		}
	}
}

// WithSeed pre-records ids, typically the keys already present in a store.
func WithSeed(ids ...string) Option {
	return func(d *inMemoryDeduper) {
		d.pending = append(d.pending, ids...)
	}
}
