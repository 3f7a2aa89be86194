// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// RecordKind tags what a registry entry represents.
type RecordKind string

// Record kinds. Sentinels stand in for failed or blocked resolutions so a
// reviewer can see and delete them like any other record.
const (
	KindNormal        RecordKind = "normal"
	KindAliveSentinel RecordKind = "alive"
	KindErrorSentinel RecordKind = "error"
)

// Visible name prefixes carried by sentinel records.
const (
	AliveMarker = "💚 ALIVE: "
	ErrorMarker = "❌ ERROR: "
)

// DateLayout is the ISO calendar date used for birth and death dates.
const DateLayout = "2006-01-02"

// PersonRecord is the unit of the registry.
type PersonRecord struct {
	Name      string            `json:"name"`
	Slugs     map[string]string `json:"slugs"`
	Bio       string            `json:"bio"`
	BirthDate string            `json:"birthDate"`
	DeathDate *string           `json:"deathDate"`
	ImageURL  *string           `json:"imageUrl"`
	Approved  bool              `json:"approved"`
	Kind      RecordKind        `json:"kind,omitempty"`
}

// SortKey returns the death date used to order the registry.
func (p PersonRecord) SortKey() string {
	if p.DeathDate == nil {
		return ""
	}
	return *p.DeathDate
}

// IsSentinel reports whether the record is an alive or error placeholder.
func (p PersonRecord) IsSentinel() bool {
	k := p.EffectiveKind()
	return k == KindAliveSentinel || k == KindErrorSentinel
}

// EffectiveKind resolves the kind, inferring it from the name marker for
// files written before the kind field existed.
func (p PersonRecord) EffectiveKind() RecordKind {
	switch p.Kind {
	case KindNormal, KindAliveSentinel, KindErrorSentinel:
		return p.Kind
	}
	if _, kind := StripMarker(p.Name); kind != KindNormal {
		return kind
	}
	return KindNormal
}

// HasSlug reports whether any language slug is non-empty.
func (p PersonRecord) HasSlug() bool {
	for _, s := range p.Slugs {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}

// Validate checks the structural rules a persisted record must satisfy.
func (p PersonRecord) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidRecord
	}
	if p.IsSentinel() {
		if p.Approved {
			return ErrInvalidRecord
		}
		return nil
	}
	if !p.HasSlug() {
		return ErrInvalidRecord
	}
	if p.Approved && p.DeathDate == nil {
		return ErrInvalidRecord
	}
	return nil
}

// SentinelName wraps a query in the visible marker for kind.
func SentinelName(kind RecordKind, query string) string {
	q := strings.TrimSpace(query)
	switch kind {
	case KindAliveSentinel:
		return AliveMarker + q
	case KindErrorSentinel:
		return ErrorMarker + q
	default:
		return q
	}
}

// StripMarker removes a sentinel marker and reports which one was present.
func StripMarker(name string) (string, RecordKind) {
	switch {
	case strings.HasPrefix(name, AliveMarker):
		return strings.TrimPrefix(name, AliveMarker), KindAliveSentinel
	case strings.HasPrefix(name, ErrorMarker):
		return strings.TrimPrefix(name, ErrorMarker), KindErrorSentinel
	default:
		return name, KindNormal
	}
}

// NewSentinel builds an unapproved placeholder dated at detection time.
func NewSentinel(kind RecordKind, query, reason string, detected time.Time) PersonRecord {
	date := DetectionDate(detected)
	return PersonRecord{
		Name:      SentinelName(kind, query),
		Slugs:     map[string]string{},
		Bio:       reason,
		DeathDate: &date,
		Approved:  false,
		Kind:      kind,
	}
}

// DetectionDate formats t as a registry date.
func DetectionDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// StringPtr returns a pointer to s, or nil when s is blank.
func StringPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
