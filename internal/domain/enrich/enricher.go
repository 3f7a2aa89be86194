// Package enrich refreshes bios and images of existing registry records.
// It never touches identity or approval state.
package enrich

import (
	"context"
	"sort"
	"strings"

	"github.com/okian/obituary/internal/domain/model"
	"github.com/okian/obituary/pkg/logger"
	"github.com/okian/obituary/pkg/metrics"
)

// PageSource returns encyclopedia page summaries.
type PageSource interface {
	Summary(ctx context.Context, slug, lang string) (model.Summary, error)
}

// ImageOracle returns the linked-data image of a page, or "".
type ImageOracle interface {
	Image(ctx context.Context, slug, lang string) (string, error)
}

// Records is the mutable registry view enrichment works on. Update passes
// each record to fn and keeps the bio and image changes fn reports.
type Records interface {
	Update(fn func(rec *model.PersonRecord) bool) int
}

// Enricher runs the enrichment jobs.
type Enricher struct {
	pages  PageSource
	images ImageOracle
	lang   string
	logger logger.Logger
}

// Option applies a configuration option to the Enricher.
type Option func(*Enricher)

// WithPrimaryLanguage sets the language preferred when refreshing bios.
func WithPrimaryLanguage(lang string) Option {
	return func(e *Enricher) {
		if l := strings.TrimSpace(lang); l != "" {
			e.lang = strings.ToLower(l)
		}
	}
}

// WithImageOracle sets the last-resort image lookup.
func WithImageOracle(o ImageOracle) Option {
	return func(e *Enricher) {
		e.images = o
	}
}

// WithLogger sets a custom logger for the enricher.
func WithLogger(l logger.Logger) Option {
	return func(e *Enricher) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an enricher over pages.
func New(pages PageSource, opts ...Option) *Enricher {
	e := &Enricher{
		pages:  pages,
		lang:   "it",
		logger: logger.Get().Named("enrich"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RepairImages fills missing images of normal records and returns how many
// were repaired.
func (e *Enricher) RepairImages(ctx context.Context, recs Records) int {
	return recs.Update(func(rec *model.PersonRecord) bool {
		if ctx.Err() != nil || rec.IsSentinel() || rec.ImageURL != nil {
			return false
		}
		url := e.findImage(ctx, *rec)
		if url == "" {
			return false
		}
		rec.ImageURL = &url
		metrics.RecordEnrichment("image")
		e.logger.Info(ctx, "image repaired", logger.String("name", rec.Name))
		return true
	})
}

// findImage tries the summary image of each slug, English first, then the
// image oracle on the preferred slug.
func (e *Enricher) findImage(ctx context.Context, rec model.PersonRecord) string {
	for _, ls := range imageOrder(rec.Slugs) {
		s, err := e.pages.Summary(ctx, ls.slug, ls.lang)
		if err != nil {
			e.logger.Debug(ctx, "summary unavailable",
				logger.String("slug", ls.slug),
				logger.String("lang", ls.lang),
				logger.Error(err),
			)
			continue
		}
		if s.ImageURL != nil && *s.ImageURL != "" {
			return *s.ImageURL
		}
	}

	if e.images == nil {
		return ""
	}
	ls, ok := e.preferred(rec.Slugs)
	if !ok {
		return ""
	}
	url, err := e.images.Image(ctx, ls.slug, ls.lang)
	if err != nil {
		e.logger.Debug(ctx, "image oracle unavailable",
			logger.String("slug", ls.slug),
			logger.Error(err),
		)
		return ""
	}
	return strings.TrimSpace(url)
}

// RefreshBios re-reads the preferred page of every normal record, replaces
// the bio text when it changed and fills a missing image. The fact block
// at the head of a bio is kept. It returns how many records changed.
func (e *Enricher) RefreshBios(ctx context.Context, recs Records) int {
	return recs.Update(func(rec *model.PersonRecord) bool {
		if ctx.Err() != nil || rec.IsSentinel() {
			return false
		}
		ls, ok := e.preferred(rec.Slugs)
		if !ok {
			return false
		}
		s, err := e.pages.Summary(ctx, ls.slug, ls.lang)
		if err != nil {
			e.logger.Debug(ctx, "summary unavailable",
				logger.String("slug", ls.slug),
				logger.Error(err),
			)
			return false
		}

		changed := false
		if body := strings.TrimSpace(s.Extract); body != "" && !s.IsDisambiguation() {
			if bio := model.ReplaceBioBody(rec.Bio, body); bio != rec.Bio {
				rec.Bio = bio
				changed = true
				metrics.RecordEnrichment("bio")
			}
		}
		if rec.ImageURL == nil && s.ImageURL != nil && *s.ImageURL != "" {
			url := *s.ImageURL
			rec.ImageURL = &url
			changed = true
			metrics.RecordEnrichment("image")
		}
		if changed {
			e.logger.Info(ctx, "profile refreshed", logger.String("name", rec.Name))
		}
		return changed
	})
}

type langSlug struct {
	lang string
	slug string
}

// slugList returns the non-empty slugs sorted by language code.
func slugList(slugs map[string]string) []langSlug {
	out := make([]langSlug, 0, len(slugs))
	for lang, slug := range slugs {
		if strings.TrimSpace(slug) == "" {
			continue
		}
		out = append(out, langSlug{lang: strings.ToLower(lang), slug: slug})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].lang < out[j].lang })
	return out
}

// imageOrder puts English first, then the rest by language code.
func imageOrder(slugs map[string]string) []langSlug {
	list := slugList(slugs)
	sort.SliceStable(list, func(i, j int) bool { return list[i].lang == "en" && list[j].lang != "en" })
	return list
}

// preferred picks the primary-language slug, then English, then any.
func (e *Enricher) preferred(slugs map[string]string) (langSlug, bool) {
	list := slugList(slugs)
	if len(list) == 0 {
		return langSlug{}, false
	}
	for _, want := range []string{e.lang, "en"} {
		for _, ls := range list {
			if ls.lang == want {
				return ls, true
			}
		}
	}
	return list[0], true
}
