package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/okian/obituary/pkg/logger"
	"github.com/okian/obituary/pkg/metrics"
)

// ViewStats is the engagement aggregate kept per display name.
type ViewStats struct {
	Views int `json:"views"`
	Time  int `json:"time"`
}

// AnalyticsStore keeps view counts in a JSON object keyed by display name,
// independent of the registry file.
type AnalyticsStore struct {
	path string
	opts fileOptions
}

// NewAnalyticsStore creates an analytics store backed by path.
func NewAnalyticsStore(path string, opts ...Option) *AnalyticsStore {
	o := defaultFileOptions("analytics")
	for _, opt := range opts {
		opt(&o)
	}
	return &AnalyticsStore{path: path, opts: o}
}

// Load reads the aggregate. A missing or malformed file yields an empty map.
func (a *AnalyticsStore) Load(ctx context.Context) (map[string]ViewStats, error) {
	stats := map[string]ViewStats{}
	_, err := readJSON(a.path, &stats)
	switch {
	case errors.Is(err, ErrReadFailed):
		return nil, err
	case err != nil:
		a.opts.logger.Warn(ctx, "analytics file unreadable, starting empty",
			logger.String("path", a.path),
			logger.Error(err),
		)
		stats = map[string]ViewStats{}
	}
	if stats == nil {
		stats = map[string]ViewStats{}
	}
	return stats, nil
}

// RecordView adds one view and seconds of engagement to name. Counters only
// ever grow; negative durations are ignored.
func (a *AnalyticsStore) RecordView(ctx context.Context, name string, seconds int) (ViewStats, error) {
	name = strings.TrimSpace(name)
	stats, err := a.Load(ctx)
	if err != nil {
		return ViewStats{}, err
	}
	if seconds < 0 {
		seconds = 0
	}
	s := stats[name]
	s.Views++
	s.Time += seconds
	stats[name] = s

	if err := writeJSON(a.path, stats, a.opts.perm); err != nil {
		metrics.RecordStoreWrite("analytics", false)
		return ViewStats{}, err
	}
	metrics.RecordStoreWrite("analytics", true)
	return s, nil
}
