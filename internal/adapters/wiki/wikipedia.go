package wiki

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/obituary/internal/domain/model"
)

// Wikipedia reads page summaries and search results. It satisfies the
// candidate source of the resolver and the page source of enrichment.
type Wikipedia struct {
	c *client
}

// NewWikipedia creates a Wikipedia client.
func NewWikipedia(opts ...Option) *Wikipedia {
	o := defaultOptions("wikipedia")
	for _, opt := range opts {
		opt(&o)
	}
	return &Wikipedia{c: newClient("wikipedia", o)}
}

type summaryResponse struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Extract string `json:"extract"`
	Titles  struct {
		Canonical string `json:"canonical"`
	} `json:"titles"`
	OriginalImage *struct {
		Source string `json:"source"`
	} `json:"originalimage"`
}

type searchResponse struct {
	Query struct {
		SearchInfo struct {
			Suggestion string `json:"suggestion"`
		} `json:"searchinfo"`
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

func (w *Wikipedia) base(lang string) string {
	return strings.ReplaceAll(w.c.opts.baseURL, "{lang}", url.PathEscape(strings.ToLower(lang)))
}

// Summary fetches the REST summary of slug in lang.
func (w *Wikipedia) Summary(ctx context.Context, slug, lang string) (model.Summary, error) {
	u := w.base(lang) + "/api/rest_v1/page/summary/" + url.PathEscape(model.SlugFromQuery(slug))

	var resp summaryResponse
	if err := w.c.getJSON(ctx, u, "application/json", &resp); err != nil {
		return model.Summary{}, err
	}

	s := model.Summary{
		Title:         resp.Title,
		CanonicalSlug: resp.Titles.Canonical,
		Extract:       resp.Extract,
		PageType:      resp.Type,
	}
	if resp.OriginalImage != nil {
		s.ImageURL = model.StringPtr(resp.OriginalImage.Source)
	}
	return s, nil
}

func (w *Wikipedia) search(ctx context.Context, query, lang string, limit int) (searchResponse, error) {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("list", "search")
	q.Set("srsearch", query)
	q.Set("srlimit", strconv.Itoa(limit))
	q.Set("srinfo", "suggestion")
	q.Set("srprop", "")
	q.Set("format", "json")
	q.Set("formatversion", "2")

	var resp searchResponse
	err := w.c.getJSON(ctx, w.base(lang)+"/w/api.php?"+q.Encode(), "application/json", &resp)
	return resp, err
}

// Search returns up to limit titles matching query, best first.
func (w *Wikipedia) Search(ctx context.Context, query, lang string, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	resp, err := w.search(ctx, query, lang, limit)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(resp.Query.Search))
	for _, r := range resp.Query.Search {
		if t := strings.TrimSpace(r.Title); t != "" {
			titles = append(titles, t)
		}
	}
	return titles, nil
}

// Suggest returns the did-you-mean correction for query, or "".
func (w *Wikipedia) Suggest(ctx context.Context, query, lang string) (string, error) {
	resp, err := w.search(ctx, query, lang, 1)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Query.SearchInfo.Suggestion), nil
}
