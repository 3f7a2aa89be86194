package wiki

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/obituary/internal/domain/history"
	"github.com/okian/obituary/internal/domain/verify"
)

const sparqlAccept = "application/sparql-results+json"

// Wikidata answers SPARQL queries. It is the death oracle, the image
// oracle and the historical source.
type Wikidata struct {
	c *client
}

// NewWikidata creates a Wikidata client.
func NewWikidata(opts ...Option) *Wikidata {
	o := defaultOptions("wikidata")
	for _, opt := range opts {
		opt(&o)
	}
	return &Wikidata{c: newClient("wikidata", o)}
}

type binding map[string]struct {
	Value string `json:"value"`
}

func (b binding) value(key string) string {
	return strings.TrimSpace(b[key].Value)
}

type sparqlResponse struct {
	Boolean *bool `json:"boolean"`
	Results struct {
		Bindings []binding `json:"bindings"`
	} `json:"results"`
}

func (d *Wikidata) query(ctx context.Context, sparql string) (sparqlResponse, error) {
	q := url.Values{}
	q.Set("query", sparql)
	q.Set("format", "json")

	sep := "?"
	if strings.Contains(d.c.opts.endpoint, "?") {
		sep = "&"
	}
	var resp sparqlResponse
	err := d.c.getJSON(ctx, d.c.opts.endpoint+sep+q.Encode(), sparqlAccept, &resp)
	return resp, err
}

// articleEscaper undoes the escapes MediaWiki leaves out of article URLs.
var articleEscaper = strings.NewReplacer(
	"%28", "(", "%29", ")", "%2C", ",", "%3B", ";", "%21", "!", "%2A", "*", "%2F", "/",
)

// ArticleIRI is the sitelink URL Wikidata stores for slug in lang.
func ArticleIRI(lang, slug string) string {
	path := articleEscaper.Replace(url.PathEscape(strings.ReplaceAll(strings.TrimSpace(slug), " ", "_")))
	return "https://" + strings.ToLower(lang) + ".wikipedia.org/wiki/" + path
}

// slugFromArticle extracts the page slug from a sitelink URL.
func slugFromArticle(article string) string {
	_, path, ok := strings.Cut(article, "/wiki/")
	if !ok {
		return ""
	}
	if s, err := url.PathUnescape(path); err == nil {
		return s
	}
	return path
}

func literal(s string) string {
	return strconv.Quote(s)
}

// Dates returns the life dates and cause of death of the page.
func (d *Wikidata) Dates(ctx context.Context, slug, lang string) (verify.Dates, error) {
	sparql := fmt.Sprintf(`SELECT ?birth ?death ?causeLabel WHERE {
  <%s> schema:about ?item .
  OPTIONAL { ?item wdt:P569 ?birth . }
  OPTIONAL { ?item wdt:P570 ?death . }
  OPTIONAL { ?item wdt:P509 ?cause . ?cause rdfs:label ?causeLabel . FILTER(LANG(?causeLabel) = %s) }
} LIMIT 1`, ArticleIRI(lang, slug), literal(strings.ToLower(lang)))

	resp, err := d.query(ctx, sparql)
	if err != nil {
		return verify.Dates{}, err
	}
	if len(resp.Results.Bindings) == 0 {
		return verify.Dates{}, fmt.Errorf("%w: no item for %s", ErrNotFound, slug)
	}
	b := resp.Results.Bindings[0]
	out := verify.Dates{
		Birth:        b.value("birth"),
		CauseOfDeath: b.value("causeLabel"),
	}
	if death := b.value("death"); death != "" {
		out.Death = &death
	}
	return out, nil
}

// Image returns the P18 image of the page, or "".
func (d *Wikidata) Image(ctx context.Context, slug, lang string) (string, error) {
	sparql := fmt.Sprintf(`SELECT ?image WHERE {
  <%s> schema:about ?item .
  ?item wdt:P18 ?image .
} LIMIT 1`, ArticleIRI(lang, slug))

	resp, err := d.query(ctx, sparql)
	if err != nil {
		return "", err
	}
	if len(resp.Results.Bindings) == 0 {
		return "", nil
	}
	return resp.Results.Bindings[0].value("image"), nil
}

// Probe checks that the endpoint answers a trivial query.
func (d *Wikidata) Probe(ctx context.Context) error {
	resp, err := d.query(ctx, `ASK { wd:Q42 wdt:P31 wd:Q5 }`)
	if err != nil {
		return err
	}
	if resp.Boolean == nil {
		return fmt.Errorf("%w: probe answered without a boolean", ErrBadResponse)
	}
	return nil
}

// People returns humans who died within q.Epoch, are linked from at least
// q.MinSitelinks wikis and have an article in q.Lang, most linked first.
func (d *Wikidata) People(ctx context.Context, q history.Query) ([]history.Row, error) {
	lang := strings.ToLower(q.Lang)
	sparql := fmt.Sprintf(`SELECT ?item ?title ?article ?birth ?death ?image ?description WHERE {
  ?item wdt:P31 wd:Q5 ;
        wdt:P570 ?death ;
        wikibase:sitelinks ?links .
  FILTER(?links >= %d)
  FILTER(YEAR(?death) >= %d && YEAR(?death) < %d)
  ?article schema:about ?item ;
           schema:isPartOf <https://%s.wikipedia.org/> ;
           schema:name ?title .
  OPTIONAL { ?item wdt:P569 ?birth . }
  OPTIONAL { ?item wdt:P18 ?image . }
  OPTIONAL { ?item schema:description ?description . FILTER(LANG(?description) = %s) }
}
ORDER BY DESC(?links)
LIMIT %d`, q.MinSitelinks, q.Epoch.From, q.Epoch.To, lang, literal(lang), q.Limit)

	resp, err := d.query(ctx, sparql)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	rows := make([]history.Row, 0, len(resp.Results.Bindings))
	for _, b := range resp.Results.Bindings {
		item := b.value("item")
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		rows = append(rows, history.Row{
			Title:       b.value("title"),
			Slug:        slugFromArticle(b.value("article")),
			Birth:       b.value("birth"),
			Death:       b.value("death"),
			ImageURL:    b.value("image"),
			Description: b.value("description"),
		})
	}
	return rows, nil
}
