// Package reconcile decides which verified candidates become registry
// records and when a failed resolution is recorded as a sentinel.
package reconcile

import (
	"context"
	"strings"
	"time"

	"github.com/okian/obituary/internal/domain/dedupe"
	"github.com/okian/obituary/internal/domain/model"
	"github.com/okian/obituary/pkg/logger"
)

// Outcome summarises what an add request did to the registry.
type Outcome string

// Add outcomes.
const (
	OutcomeInserted      Outcome = "inserted"
	OutcomeDuplicate     Outcome = "duplicate"
	OutcomeAliveSentinel Outcome = "alive_sentinel"
	OutcomeErrorSentinel Outcome = "error_sentinel"
)

// Index is the read-only view of the registry used for duplicate checks.
type Index interface {
	SlugKeys() []string
	NameKeys() []string
	HasName(name string) bool
}

// Plan lists the records to insert for one request. An empty Inserts
// means the registry stays as it is.
type Plan struct {
	Outcome Outcome
	Inserts []model.PersonRecord
	// Skipped names the candidates dropped as duplicates.
	Skipped []string
}

// Changed reports whether applying the plan alters the registry.
func (p Plan) Changed() bool { return len(p.Inserts) > 0 }

// Err maps the outcome to the resolution error taxonomy.
func (p Plan) Err() error {
	switch p.Outcome {
	case OutcomeDuplicate:
		return model.ErrDuplicate
	case OutcomeAliveSentinel:
		return model.ErrStillAlive
	case OutcomeErrorSentinel:
		return model.ErrNotFound
	default:
		return nil
	}
}

// Reconciler merges verified candidates into a registry snapshot.
type Reconciler struct {
	now    func() time.Time
	logger logger.Logger
}

// Option applies a configuration option to the Reconciler.
type Option func(*Reconciler)

// WithClock sets the clock used to date sentinels.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets a custom logger for the reconciler.
func WithLogger(l logger.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a reconciler.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{
		now:    time.Now,
		logger: logger.Get().Named("reconciler"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile builds the plan for one add request. Every verified-deceased
// candidate whose slug and name are new becomes a record, approved when
// the role is trusted. When none was confirmed deceased a single sentinel
// is planned: alive if a literal match was found alive, error otherwise.
// A sentinel already present for the same query is not planned again.
func (r *Reconciler) Reconcile(ctx context.Context, query string, role model.Role, vs []model.Verification, idx Index) Plan {
	slugs, names := r.indexes(idx)
	var plan Plan

	deceased, aliveLiteral := 0, false
	for _, v := range vs {
		if v.Status == model.StatusAlive && v.Candidate.LiteralMatch {
			aliveLiteral = true
		}
		if !v.Deceased() {
			continue
		}
		deceased++

		rec := newRecord(v, role)
		if r.duplicate(ctx, slugs, names, v.Candidate.Slug, rec.Name) {
			plan.Skipped = append(plan.Skipped, rec.Name)
			r.logger.Info(ctx, "candidate already in registry",
				logger.String("name", rec.Name),
				logger.String("slug", v.Candidate.Slug),
			)
			continue
		}
		plan.Inserts = append(plan.Inserts, rec)
	}

	switch {
	case len(plan.Inserts) > 0:
		plan.Outcome = OutcomeInserted
	case deceased > 0:
		plan.Outcome = OutcomeDuplicate
	case aliveLiteral:
		plan = r.sentinel(ctx, idx, model.KindAliveSentinel, query, "Subject is still alive according to the death oracle.")
	case len(vs) == 0:
		plan = r.sentinel(ctx, idx, model.KindErrorSentinel, query, "No encyclopedia page qualified for this name.")
	default:
		plan = r.sentinel(ctx, idx, model.KindErrorSentinel, query, "Death could not be verified for any candidate.")
	}
	return plan
}

// Admit filters pre-built records, such as bulk historical rows, against
// the registry and against each other. Admitted records take the approval
// default of role.
func (r *Reconciler) Admit(ctx context.Context, role model.Role, recs []model.PersonRecord, idx Index) Plan {
	slugs, names := r.indexes(idx)
	plan := Plan{Outcome: OutcomeDuplicate}
	for _, rec := range recs {
		if rec.DeathDate == nil || !rec.HasSlug() {
			plan.Skipped = append(plan.Skipped, rec.Name)
			continue
		}
		dup := names.Seen(ctx, rec.Name)
		for _, s := range rec.Slugs {
			if slugs.Seen(ctx, s) {
				dup = true
			}
		}
		if dup {
			plan.Skipped = append(plan.Skipped, rec.Name)
			continue
		}
		for _, s := range rec.Slugs {
			slugs.SeenAndRecord(ctx, s)
		}
		names.SeenAndRecord(ctx, rec.Name)

		rec.Approved = role.AutoApproved()
		rec.Kind = model.KindNormal
		plan.Inserts = append(plan.Inserts, rec)
	}
	if len(plan.Inserts) > 0 {
		plan.Outcome = OutcomeInserted
	}
	return plan
}

func (r *Reconciler) indexes(idx Index) (slugs, names dedupe.Deduper) {
	slugs = dedupe.NewInMemoryDeduper(
		dedupe.WithNormalizer(model.SlugKey),
		dedupe.WithSeed(idx.SlugKeys()...),
	)
	names = dedupe.NewInMemoryDeduper(
		dedupe.WithNormalizer(model.NormalizeName),
		dedupe.WithSeed(idx.NameKeys()...),
	)
	return slugs, names
}

// duplicate records slug and name and reports whether either was known.
func (r *Reconciler) duplicate(ctx context.Context, slugs, names dedupe.Deduper, slug, name string) bool {
	if slugs.Seen(ctx, slug) || names.Seen(ctx, name) {
		return true
	}
	slugs.SeenAndRecord(ctx, slug)
	names.SeenAndRecord(ctx, name)
	return false
}

func (r *Reconciler) sentinel(ctx context.Context, idx Index, kind model.RecordKind, query, reason string) Plan {
	outcome := OutcomeErrorSentinel
	if kind == model.KindAliveSentinel {
		outcome = OutcomeAliveSentinel
	}
	rec := model.NewSentinel(kind, query, reason, r.now())
	if idx.HasName(rec.Name) {
		r.logger.Info(ctx, "sentinel already queued", logger.String("name", rec.Name))
		return Plan{Outcome: outcome, Skipped: []string{rec.Name}}
	}
	r.logger.Warn(ctx, "queuing sentinel for review",
		logger.String("name", rec.Name),
		logger.String("kind", string(kind)),
	)
	return Plan{Outcome: outcome, Inserts: []model.PersonRecord{rec}}
}

func newRecord(v model.Verification, role model.Role) model.PersonRecord {
	c := v.Candidate
	var facts []string
	if v.CauseOfDeath != "" {
		facts = append(facts, model.CauseOfDeathFact(v.CauseOfDeath))
	}
	death := *v.DeathDate
	return model.PersonRecord{
		Name:      model.DisplayName(c.Title),
		Slugs:     map[string]string{strings.ToUpper(c.Lang): c.Slug},
		Bio:       model.ComposeBio(facts, c.Extract),
		BirthDate: v.BirthDate,
		DeathDate: &death,
		ImageURL:  c.ImageURL,
		Approved:  role.AutoApproved(),
		Kind:      model.KindNormal,
	}
}
