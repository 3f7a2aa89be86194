package model

import "strings"

const factSeparator = "\n\n"

// CauseOfDeathFact formats the structured fact prepended to a bio.
func CauseOfDeathFact(cause string) string {
	return "[Cause of death: " + strings.TrimSpace(cause) + "]"
}

// ProvenanceFact formats a source annotation for a bio.
func ProvenanceFact(source string) string {
	return "[Source: " + strings.TrimSpace(source) + "]"
}

// ComposeBio prefixes body with a block of bracketed facts terminated by a
// blank line. Empty facts are dropped.
func ComposeBio(facts []string, body string) string {
	kept := make([]string, 0, len(facts))
	for _, f := range facts {
		if strings.TrimSpace(f) != "" {
			kept = append(kept, f)
		}
	}
	body = strings.TrimSpace(body)
	if len(kept) == 0 {
		return body
	}
	return strings.Join(kept, "\n") + factSeparator + body
}

// SplitBio separates the leading fact block from the free text.
func SplitBio(bio string) (facts []string, body string) {
	head, rest, found := strings.Cut(bio, factSeparator)
	if !found {
		return nil, bio
	}
	lines := strings.Split(head, "\n")
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if !strings.HasPrefix(l, "[") || !strings.HasSuffix(l, "]") {
			return nil, bio
		}
	}
	return lines, rest
}

// ReplaceBioBody swaps the free text of bio and keeps its fact block.
func ReplaceBioBody(bio, body string) string {
	facts, _ := SplitBio(bio)
	return ComposeBio(facts, body)
}
