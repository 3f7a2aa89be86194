package repository

import (
	"context"
	"errors"

	"github.com/okian/obituary/internal/domain/model"
	"github.com/okian/obituary/pkg/logger"
	"github.com/okian/obituary/pkg/metrics"
)

// Store loads and persists the registry as one unit.
type Store interface {
	// Load returns the persisted registry. A missing or malformed file
	// yields an empty registry.
	Load(ctx context.Context) (*Registry, error)
	// Save overwrites the backing file with reg, sorted by death date.
	Save(ctx context.Context, reg *Registry) error
	// Mutate loads, applies fn and saves when fn reports a change.
	Mutate(ctx context.Context, fn func(reg *Registry) (bool, error)) (bool, error)
}

// FileStore persists the registry as a JSON array. It assumes a single
// writer; concurrent runs against the same file are last-writer-wins.
type FileStore struct {
	path string
	opts fileOptions
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string, opts ...Option) *FileStore {
	o := defaultFileOptions("registry")
	for _, opt := range opts {
		opt(&o)
	}
	return &FileStore{path: path, opts: o}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Load reads the registry file.
func (s *FileStore) Load(ctx context.Context) (*Registry, error) {
	var records []model.PersonRecord
	found, err := readJSON(s.path, &records)
	switch {
	case errors.Is(err, ErrReadFailed):
		return nil, err
	case err != nil:
		s.opts.logger.Warn(ctx, "registry file unreadable, starting empty",
			logger.String("path", s.path),
			logger.Error(err),
		)
		records = nil
	case !found:
		s.opts.logger.Info(ctx, "registry file missing, starting empty", logger.String("path", s.path))
	}

	for i := range records {
		if records[i].Slugs == nil {
			records[i].Slugs = map[string]string{}
		}
		records[i].Kind = records[i].EffectiveKind()
	}

	reg := NewRegistry(records)
	metrics.UpdateRegistryStats(reg.Len(), reg.Pending())
	return reg, nil
}

// Save writes reg in full.
func (s *FileStore) Save(ctx context.Context, reg *Registry) error {
	reg.Sort()
	records := reg.Records()
	if records == nil {
		records = []model.PersonRecord{}
	}
	if err := writeJSON(s.path, records, s.opts.perm); err != nil {
		metrics.RecordStoreWrite("registry", false)
		return err
	}
	metrics.RecordStoreWrite("registry", true)
	metrics.UpdateRegistryStats(reg.Len(), reg.Pending())
	s.opts.logger.Debug(ctx, "registry saved",
		logger.String("path", s.path),
		logger.Int("records", reg.Len()),
	)
	return nil
}

// Mutate runs one logical change as a load-apply-save transaction.
func (s *FileStore) Mutate(ctx context.Context, fn func(reg *Registry) (bool, error)) (bool, error) {
	reg, err := s.Load(ctx)
	if err != nil {
		return false, err
	}
	changed, err := fn(reg)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}
	if err := s.Save(ctx, reg); err != nil {
		return false, err
	}
	return true, nil
}
