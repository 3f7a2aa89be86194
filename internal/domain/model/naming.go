package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NameKey folds case, turns underscores into spaces and collapses runs of
// whitespace. Two names with equal keys address the same registry entry.
func NameKey(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.Join(strings.Fields(s), " ")
	return cases.Fold().String(s)
}

// SlugKey is the case-insensitive identity of a canonical page slug.
func SlugKey(slug string) string {
	return NameKey(slug)
}

// NormalizeName is NameKey with diacritics removed, used when matching
// free-text queries against titles and existing records.
func NormalizeName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return NameKey(stripped)
}

// DisplayName renders a page title or slug for humans.
func DisplayName(title string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(title, "_", " ")), " ")
}

// SlugFromQuery turns a free-text query into a page slug.
func SlugFromQuery(query string) string {
	return strings.Join(strings.Fields(query), "_")
}

// BaseTitle drops a trailing parenthetical qualifier, so that
// "John Smith (footballer)" yields "John Smith".
func BaseTitle(title string) string {
	t := strings.TrimSpace(title)
	if !strings.HasSuffix(t, ")") {
		return t
	}
	open := strings.LastIndex(t, "(")
	if open <= 0 {
		return t
	}
	return strings.TrimSpace(t[:open])
}

// MatchesQuery reports whether title names the query, ignoring any
// qualifier, case, diacritics and underscore/space differences.
func MatchesQuery(title, query string) bool {
	q := NormalizeName(query)
	return q != "" && NormalizeName(BaseTitle(DisplayName(title))) == q
}
