// Package repository holds the person registry and its JSON-file persistence.
package repository

import (
	"slices"
	"strings"

	"github.com/okian/obituary/internal/domain/model"
)

// Registry is the ordered in-memory collection of person records for one
// command invocation. It is not safe for concurrent use.
type Registry struct {
	records []model.PersonRecord
}

// NewRegistry builds a registry from records, sorted by death date.
func NewRegistry(records []model.PersonRecord) *Registry {
	r := &Registry{records: slices.Clone(records)}
	r.Sort()
	return r
}

// Records returns a copy of the records in their current order.
func (r *Registry) Records() []model.PersonRecord {
	return slices.Clone(r.records)
}

// Len returns the number of records.
func (r *Registry) Len() int { return len(r.records) }

// Pending returns the number of records awaiting approval.
func (r *Registry) Pending() int {
	n := 0
	for _, rec := range r.records {
		if !rec.Approved {
			n++
		}
	}
	return n
}

// Insert appends rec. Ordering is restored by Sort, which Save always runs.
func (r *Registry) Insert(rec model.PersonRecord) {
	if rec.Slugs == nil {
		rec.Slugs = map[string]string{}
	}
	r.records = append(r.records, rec)
}

// Sort orders records by death date ascending. The sort is stable so
// records sharing a date keep their insertion order.
func (r *Registry) Sort() {
	slices.SortStableFunc(r.records, func(a, b model.PersonRecord) int {
		return strings.Compare(a.SortKey(), b.SortKey())
	})
}

// ApproveByName approves the first non-sentinel record, in registry
// order, whose name matches in exact or underscore-normalized form. When
// that record is already approved nothing changes. It returns how many
// records changed, at most one.
func (r *Registry) ApproveByName(name string) int {
	key := model.NameKey(name)
	if key == "" {
		return 0
	}
	idx := slices.IndexFunc(r.records, func(rec model.PersonRecord) bool {
		return !rec.IsSentinel() && model.NameKey(rec.Name) == key
	})
	if idx < 0 || r.records[idx].Approved {
		return 0
	}
	r.records[idx].Approved = true
	return 1
}

// ApproveByNames approves each listed name.
func (r *Registry) ApproveByNames(names []string) int {
	changed := 0
	for _, n := range names {
		changed += r.ApproveByName(n)
	}
	return changed
}

// ApproveAll approves every non-sentinel record.
func (r *Registry) ApproveAll() int {
	changed := 0
	for i := range r.records {
		rec := &r.records[i]
		if rec.IsSentinel() || rec.Approved {
			continue
		}
		rec.Approved = true
		changed++
	}
	return changed
}

// DeleteByName removes every record whose name matches the target in
// exact, underscore-normalized or sentinel-wrapped form.
func (r *Registry) DeleteByName(name string) int {
	key := model.NameKey(name)
	if key == "" {
		return 0
	}
	kept := r.records[:0]
	removed := 0
	for _, rec := range r.records {
		if deleteMatch(rec, key) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	r.records = kept
	if removed > 0 {
		r.Sort()
	}
	return removed
}

// DeleteByNames removes exactly one matching record per entry in names,
// the first in registry order. A name listed twice removes two records,
// which is how duplicate homonym sentinels are cleared one at a time.
func (r *Registry) DeleteByNames(names []string) int {
	removed := 0
	for _, n := range names {
		key := model.NameKey(n)
		if key == "" {
			continue
		}
		idx := slices.IndexFunc(r.records, func(rec model.PersonRecord) bool {
			return deleteMatch(rec, key)
		})
		if idx < 0 {
			continue
		}
		r.records = slices.Delete(r.records, idx, idx+1)
		removed++
	}
	if removed > 0 {
		r.Sort()
	}
	return removed
}

// HasSlug reports whether any record carries slug in any language.
func (r *Registry) HasSlug(slug string) bool {
	key := model.SlugKey(slug)
	if key == "" {
		return false
	}
	for _, rec := range r.records {
		for _, s := range rec.Slugs {
			if model.SlugKey(s) == key {
				return true
			}
		}
	}
	return false
}

// HasName reports whether a record with this exact display name exists,
// sentinel markers included, ignoring case, diacritics and underscores.
func (r *Registry) HasName(name string) bool {
	key := model.NormalizeName(name)
	if key == "" {
		return false
	}
	for _, rec := range r.records {
		if model.NormalizeName(rec.Name) == key {
			return true
		}
	}
	return false
}

// SlugKeys returns every non-empty slug in the registry.
func (r *Registry) SlugKeys() []string {
	var out []string
	for _, rec := range r.records {
		for _, s := range rec.Slugs {
			if strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// NameKeys returns the display names of all normal records.
func (r *Registry) NameKeys() []string {
	out := make([]string, 0, len(r.records))
	for _, rec := range r.records {
		if !rec.IsSentinel() {
			out = append(out, rec.Name)
		}
	}
	return out
}

// Update calls fn with a copy of each record and keeps only the bio and
// image changes it makes; identity and approval state are never written
// back. It returns how many records fn reported as changed.
func (r *Registry) Update(fn func(rec *model.PersonRecord) bool) int {
	changed := 0
	for i := range r.records {
		rec := r.records[i]
		if !fn(&rec) {
			continue
		}
		r.records[i].Bio = rec.Bio
		r.records[i].ImageURL = rec.ImageURL
		changed++
	}
	return changed
}

func deleteMatch(rec model.PersonRecord, key string) bool {
	if model.NameKey(rec.Name) == key {
		return true
	}
	bare, kind := model.StripMarker(rec.Name)
	return kind != model.KindNormal && model.NameKey(bare) == key
}
