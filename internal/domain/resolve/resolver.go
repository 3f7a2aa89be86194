// Package resolve turns a free-text name into the distinct encyclopedia
// pages it may refer to.
package resolve

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"

	"github.com/okian/obituary/internal/domain/dedupe"
	"github.com/okian/obituary/internal/domain/model"
	"github.com/okian/obituary/pkg/logger"
)

// CandidateSource is the encyclopedia the resolver searches.
type CandidateSource interface {
	// Summary returns the page addressed by slug in lang.
	Summary(ctx context.Context, slug, lang string) (model.Summary, error)
	// Search returns up to limit page titles for query, best first.
	Search(ctx context.Context, query, lang string, limit int) ([]string, error)
	// Suggest returns a did-you-mean correction for query, or "".
	Suggest(ctx context.Context, query, lang string) (string, error)
}

// Resolver finds candidate identities for a name across languages.
type Resolver struct {
	source CandidateSource
	opts   options
}

// New creates a resolver over source.
func New(source CandidateSource, opts ...Option) *Resolver {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Resolver{source: source, opts: o}
}

// Languages returns the ranked language list the resolver walks.
func (r *Resolver) Languages() []string {
	return append([]string(nil), r.opts.langs...)
}

// Resolve returns the accepted candidates for query, deduplicated by slug
// in discovery order. Languages are tried in rank order and the walk stops
// at the first language that yields anything. Source failures are logged
// and treated as empty results, so the result may be empty but never fails.
func (r *Resolver) Resolve(ctx context.Context, query string) []model.Candidate {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	seen := dedupe.NewInMemoryDeduper(dedupe.WithNormalizer(model.SlugKey))

	for _, lang := range r.opts.langs {
		if ctx.Err() != nil {
			return nil
		}
		found := r.resolveLang(ctx, query, lang, seen)
		if len(found) == 0 {
			found = r.correct(ctx, query, lang, seen)
		}
		if len(found) > 0 {
			r.opts.logger.Debug(ctx, "candidates resolved",
				logger.String("query", query),
				logger.String("lang", lang),
				logger.Int("count", len(found)),
			)
			return found
		}
	}

	r.opts.logger.Info(ctx, "no candidate accepted", logger.String("query", query))
	return nil
}

// correct runs one did-you-mean pass for lang.
func (r *Resolver) correct(ctx context.Context, query, lang string, seen dedupe.Deduper) []model.Candidate {
	suggestion, err := r.source.Suggest(ctx, query, lang)
	if err != nil {
		r.opts.logger.Debug(ctx, "suggestion lookup failed",
			logger.String("lang", lang),
			logger.Error(err),
		)
		return nil
	}
	suggestion = strings.TrimSpace(suggestion)
	if suggestion == "" || model.NormalizeName(suggestion) == model.NormalizeName(query) {
		return nil
	}
	r.opts.logger.Info(ctx, "retrying with suggestion",
		logger.String("query", query),
		logger.String("suggestion", suggestion),
		logger.String("lang", lang),
	)
	return r.resolveLang(ctx, suggestion, lang, seen)
}

// resolveLang tries the literal slug first, then the search expansion.
func (r *Resolver) resolveLang(ctx context.Context, query, lang string, seen dedupe.Deduper) []model.Candidate {
	var out []model.Candidate
	tried := map[string]struct{}{}

	try := func(slug string) {
		key := model.SlugKey(slug)
		if key == "" {
			return
		}
		if _, ok := tried[key]; ok {
			return
		}
		tried[key] = struct{}{}

		c, ok := r.fetch(ctx, slug, lang, query)
		if !ok || seen.SeenAndRecord(ctx, c.Slug) {
			return
		}
		out = append(out, c)
	}

	try(model.SlugFromQuery(query))

	if r.opts.searchLimit > 0 {
		titles, err := r.source.Search(ctx, query, lang, r.opts.searchLimit)
		if err != nil {
			r.opts.logger.Debug(ctx, "search failed",
				logger.String("lang", lang),
				logger.Error(err),
			)
		}
		for _, title := range r.neighbors(query, titles) {
			try(model.SlugFromQuery(title))
		}
	}
	return out
}

// fetch loads one summary and applies the acceptance rules.
func (r *Resolver) fetch(ctx context.Context, slug, lang, query string) (model.Candidate, bool) {
	s, err := r.source.Summary(ctx, slug, lang)
	if err != nil {
		r.opts.logger.Debug(ctx, "summary unavailable",
			logger.String("slug", slug),
			logger.String("lang", lang),
			logger.Error(err),
		)
		return model.Candidate{}, false
	}
	if !r.accept(s) {
		return model.Candidate{}, false
	}

	canonical := strings.TrimSpace(s.CanonicalSlug)
	if canonical == "" {
		canonical = slug
	}
	title := model.DisplayName(s.Title)
	if title == "" {
		title = model.DisplayName(canonical)
	}
	return model.Candidate{
		Title:        title,
		Slug:         canonical,
		Lang:         lang,
		Extract:      s.Extract,
		ImageURL:     s.ImageURL,
		LiteralMatch: model.MatchesQuery(title, query),
	}, true
}

// accept rejects placeholder pages: short extracts and disambiguation lists.
func (r *Resolver) accept(s model.Summary) bool {
	if s.IsDisambiguation() {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(s.Extract)) > r.opts.minExtract
}

// neighbors keeps the search titles that are homonyms of query (same base
// title) or close spelling variants of it, in search order.
func (r *Resolver) neighbors(query string, titles []string) []string {
	if len(titles) == 0 {
		return nil
	}
	pattern := model.NormalizeName(query)
	bases := make([]string, len(titles))
	for i, t := range titles {
		bases[i] = model.NormalizeName(model.BaseTitle(model.DisplayName(t)))
	}

	keep := make([]bool, len(titles))
	for i, b := range bases {
		keep[i] = b == pattern
	}
	limit := utf8.RuneCountInString(pattern) + r.opts.maxExtraRunes
	for _, m := range fuzzy.Find(pattern, bases) {
		if utf8.RuneCountInString(m.Str) <= limit {
			keep[m.Index] = true
		}
	}

	var out []string
	for i, t := range titles {
		if keep[i] {
			out = append(out, t)
		}
	}
	return out
}
