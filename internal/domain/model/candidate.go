package model

import "strings"

// PageTypeDisambiguation marks a page listing several subjects.
const PageTypeDisambiguation = "disambiguation"

// Summary is what a candidate source returns for one encyclopedia page.
type Summary struct {
	Title         string
	CanonicalSlug string
	Extract       string
	PageType      string
	ImageURL      *string
}

// IsDisambiguation reports whether the page lists several subjects.
func (s Summary) IsDisambiguation() bool {
	return strings.Contains(strings.ToLower(s.PageType), PageTypeDisambiguation)
}

// Candidate is a distinct identity found while resolving a query.
type Candidate struct {
	Title    string
	Slug     string
	Lang     string
	Extract  string
	ImageURL *string

	// LiteralMatch is set when the page title, qualifier removed, names the
	// query itself rather than a spelling variant.
	LiteralMatch bool
}

// VerificationStatus is the outcome of checking a candidate against the
// death oracle.
type VerificationStatus int

// Verification statuses.
const (
	StatusUnverifiable VerificationStatus = iota
	StatusAlive
	StatusDeceased
)

// String implements fmt.Stringer.
func (s VerificationStatus) String() string {
	switch s {
	case StatusAlive:
		return "alive"
	case StatusDeceased:
		return "deceased"
	default:
		return "unverifiable"
	}
}

// Verification pairs a candidate with its oracle result.
type Verification struct {
	Candidate    Candidate
	Status       VerificationStatus
	BirthDate    string
	DeathDate    *string
	CauseOfDeath string
}

// Deceased reports whether the oracle confirmed a death date.
func (v Verification) Deceased() bool {
	return v.Status == StatusDeceased && v.DeathDate != nil
}

// Role identifies who submitted an add request.
type Role string

// Submitter roles.
const (
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
	RoleHistorical Role = "historical"
)

// AutoApproved reports whether records from this role skip review.
func (r Role) AutoApproved() bool {
	return r == RoleAdmin || r == RoleHistorical
}
