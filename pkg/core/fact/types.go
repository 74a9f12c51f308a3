// Package fact defines the raw reported values the aggregator consumes.
// A RawFact is one financial value lifted out of a filing's structured
// (XBRL) data, together with the period context the filing asserted for it.
// Facts are immutable once produced by the ingest boundary.
package fact

import "time"

// FilingType identifies the SEC form a fact originated from.
type FilingType string

const (
	Form10K    FilingType = "10-K"
	Form10Q    FilingType = "10-Q"
	Form8K     FilingType = "8-K"
	FormDEF14A FilingType = "DEF 14A"
	Form13FHR  FilingType = "13F-HR"
	Form4      FilingType = "4"
	FormS1     FilingType = "S-1"
)

// AuthorityRank orders forms by how authoritative they are for financial
// facts: annual and quarterly reports outrank event-driven filings.
// Used as the last deduplication tie-break.
func (t FilingType) AuthorityRank() int {
	switch t {
	case Form10K:
		return 3
	case Form10Q:
		return 2
	case Form8K:
		return 1
	default:
		return 0
	}
}

// RawFact is one reported financial value extracted from a filing.
// ContextStart/ContextEnd carry the XBRL context period when the filing
// asserted one; either may be nil for instant or malformed contexts.
// FilingDate is the submission date and is the fallback temporal anchor.
type RawFact struct {
	Concept        string     `json:"concept"`
	Value          float64    `json:"value"`
	Unit           string     `json:"unit"`
	ContextStart   *time.Time `json:"context_start,omitempty"`
	ContextEnd     *time.Time `json:"context_end,omitempty"`
	FilingDate     time.Time  `json:"filing_date"` // zero value means absent
	FilingType     FilingType `json:"filing_type"`
	SourceFilingID string     `json:"source_filing_id"`
}

// HasContext reports whether both context boundaries are present.
func (f RawFact) HasContext() bool {
	return f.ContextStart != nil && f.ContextEnd != nil
}
