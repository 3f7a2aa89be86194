// Package verify checks resolved candidates against an independent source
// of birth and death dates.
package verify

import (
	"context"
	"strings"

	"github.com/okian/obituary/internal/domain/model"
	"github.com/okian/obituary/pkg/logger"
)

// Dates is the raw answer of a death oracle. A nil Death means the subject
// is believed alive.
type Dates struct {
	Birth        string
	Death        *string
	CauseOfDeath string
}

// DeathOracle looks up life dates for an encyclopedia page.
type DeathOracle interface {
	Dates(ctx context.Context, slug, lang string) (Dates, error)
}

// Verifier applies a DeathOracle to candidates.
type Verifier struct {
	oracle DeathOracle
	logger logger.Logger
}

// Option applies a configuration option to the Verifier.
type Option func(*Verifier)

// WithLogger sets a custom logger for the verifier.
func WithLogger(l logger.Logger) Option {
	return func(v *Verifier) {
		if l != nil {
			v.logger = l
		}
	}
}

// New creates a verifier over oracle.
func New(oracle DeathOracle, opts ...Option) *Verifier {
	v := &Verifier{
		oracle: oracle,
		logger: logger.Get().Named("verifier"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify asks the oracle about one candidate. Oracle failures and death
// dates that cannot be normalized yield StatusUnverifiable rather than an
// error; a missing death date yields StatusAlive.
func (v *Verifier) Verify(ctx context.Context, c model.Candidate) model.Verification {
	out := model.Verification{Candidate: c, Status: model.StatusUnverifiable}

	d, err := v.oracle.Dates(ctx, c.Slug, c.Lang)
	if err != nil {
		v.logger.Warn(ctx, "death oracle unavailable",
			logger.String("slug", c.Slug),
			logger.String("lang", c.Lang),
			logger.Error(err),
		)
		return out
	}

	if birth, ok := model.NormalizeDate(d.Birth); ok {
		out.BirthDate = birth
	}

	if d.Death == nil || strings.TrimSpace(*d.Death) == "" {
		out.Status = model.StatusAlive
		v.logger.Info(ctx, "subject has no death date",
			logger.String("slug", c.Slug),
			logger.String("lang", c.Lang),
		)
		return out
	}

	death, ok := model.NormalizeDate(*d.Death)
	if !ok {
		v.logger.Warn(ctx, "death date not usable",
			logger.String("slug", c.Slug),
			logger.String("raw", *d.Death),
		)
		return out
	}

	out.Status = model.StatusDeceased
	out.DeathDate = &death
	out.CauseOfDeath = strings.TrimSpace(d.CauseOfDeath)
	return out
}

// VerifyAll verifies every candidate in order, one oracle call each.
func (v *Verifier) VerifyAll(ctx context.Context, cands []model.Candidate) []model.Verification {
	out := make([]model.Verification, 0, len(cands))
	for _, c := range cands {
		out = append(out, v.Verify(ctx, c))
	}
	return out
}
