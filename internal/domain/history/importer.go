// Package history bulk-imports famous people who died in past epochs.
package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/obituary/internal/domain/model"
	"github.com/okian/obituary/pkg/logger"
	"github.com/okian/obituary/pkg/metrics"
)

// Query selects one slice of the historical source.
type Query struct {
	Epoch        Epoch
	Lang         string
	MinSitelinks int
	Limit        int
}

// Row is one person returned by the historical source.
type Row struct {
	Title       string
	Slug        string
	Birth       string
	Death       string
	ImageURL    string
	Description string
}

// Source is the linked-data service queried for notable deaths.
type Source interface {
	// Probe checks the service is reachable before any slice is fetched.
	Probe(ctx context.Context) error
	// People returns the people matching q.
	People(ctx context.Context, q Query) ([]Row, error)
}

// Report counts what one import collected.
type Report struct {
	Epochs  int
	Failed  int
	Rows    int
	Dropped int
}

// Importer walks the configured epochs and turns rows into records.
type Importer struct {
	source Source
	opts   options
}

// New creates an importer over source.
func New(source Source, opts ...Option) *Importer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Importer{source: source, opts: o}
}

// Collect probes the source and fetches every epoch. A failed probe aborts
// with model.ErrSourceUnavailable; a failed epoch is logged and skipped.
func (i *Importer) Collect(ctx context.Context) ([]model.PersonRecord, Report, error) {
	var report Report
	if err := i.source.Probe(ctx); err != nil {
		i.opts.logger.Error(ctx, "historical source unreachable", logger.Error(err))
		return nil, report, fmt.Errorf("%w: %w", model.ErrSourceUnavailable, err)
	}

	var out []model.PersonRecord
	for _, e := range i.opts.epochs {
		if err := ctx.Err(); err != nil {
			return out, report, err
		}
		report.Epochs++
		rows, err := i.source.People(ctx, Query{
			Epoch:        e,
			Lang:         i.opts.lang,
			MinSitelinks: i.opts.minSitelinks,
			Limit:        i.opts.limit,
		})
		if err != nil {
			report.Failed++
			metrics.RecordHistoricalEpoch("failed")
			i.opts.logger.Warn(ctx, "epoch skipped",
				logger.String("epoch", e.String()),
				logger.Error(err),
			)
			continue
		}
		metrics.RecordHistoricalEpoch("ok")

		kept := 0
		for _, row := range rows {
			rec, ok := i.record(row)
			if !ok {
				report.Dropped++
				continue
			}
			out = append(out, rec)
			kept++
		}
		report.Rows += kept
		i.opts.logger.Info(ctx, "epoch fetched",
			logger.String("epoch", e.String()),
			logger.Int("rows", len(rows)),
			logger.Int("kept", kept),
		)
	}
	return out, report, nil
}

func (i *Importer) record(row Row) (model.PersonRecord, bool) {
	name := model.DisplayName(row.Title)
	slug := strings.TrimSpace(row.Slug)
	if slug == "" {
		slug = model.SlugFromQuery(name)
	}
	death, ok := model.NormalizeDate(row.Death)
	if name == "" || slug == "" || !ok {
		return model.PersonRecord{}, false
	}
	birth, _ := model.NormalizeDate(row.Birth)

	return model.PersonRecord{
		Name:      name,
		Slugs:     map[string]string{strings.ToUpper(i.opts.lang): slug},
		Bio:       model.ComposeBio([]string{model.ProvenanceFact(i.opts.provenance)}, row.Description),
		BirthDate: birth,
		DeathDate: &death,
		ImageURL:  model.StringPtr(row.ImageURL),
		Approved:  model.RoleHistorical.AutoApproved(),
		Kind:      model.KindNormal,
	}, true
}
