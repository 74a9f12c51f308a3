// Package series assembles per-concept financial time series across many
// filings of one entity. It owns deduplication of facts that resolve to the
// same canonical period (restatements, re-reported values) and the
// gap/overlap diagnostics run over the finished series.
package series

import (
	"time"

	"edgar_dashboard/pkg/core/fact"
	"edgar_dashboard/pkg/core/period"
)

// Key is the canonical identity of one series entry. The builder keeps at
// most one entry per key; everything else that resolves to the same key is
// deduplicated into provenance.
type Key struct {
	Concept       string
	Type          period.Type
	FiscalYear    int
	FiscalQuarter int
}

// Provenance is the retained trace of a superseded fact. Losing facts are
// never discarded silently; callers can inspect what a restatement replaced.
type Provenance struct {
	Value          float64           `json:"value"`
	SourceFilingID string            `json:"source_filing_id"`
	FilingDate     time.Time         `json:"filing_date"`
	FilingType     fact.FilingType   `json:"filing_type"`
	Confidence     period.Confidence `json:"confidence"`
}

// Entry is one reconciled point of a series: the winning value for a
// canonical period, plus the provenance of every value it displaced.
type Entry struct {
	Period         period.Resolved `json:"period"`
	Value          float64         `json:"value"`
	Unit           string          `json:"unit"`
	SourceFilingID string          `json:"source_filing_id"`
	FilingDate     time.Time       `json:"filing_date"`
	FilingType     fact.FilingType `json:"filing_type"`
	Superseded     []Provenance    `json:"superseded,omitempty"`
}

// Aggregated is one concept's reconciled time series, sorted ascending by
// period end with at most one entry per canonical period key.
type Aggregated struct {
	Concept string  `json:"concept"`
	Entries []Entry `json:"entries"`
}

// AmbiguousFact pairs a fact with the ambiguous period it resolved to, for
// caller review. Ambiguity is data, not an error: the engine never guesses
// a standard period for a window that fits none.
type AmbiguousFact struct {
	Fact   fact.RawFact    `json:"fact"`
	Period period.Resolved `json:"period"`
}

// IngestResult reports what one batch changed. Malformed facts never abort
// the batch; they surface here as warnings instead.
type IngestResult struct {
	// Concepts whose exported series changed (new period or replaced value).
	Updated []string
	// Resolutions flagged AMBIGUOUS, for downstream review.
	Ambiguous []AmbiguousFact
	// One message per skipped or otherwise degraded fact.
	Warnings []string
}

// TieBreakPolicy selects how filing recency breaks deduplication ties.
type TieBreakPolicy int

const (
	// PreferLatestFiled models restatements: the most recently filed value
	// for a period wins. This is the default.
	PreferLatestFiled TieBreakPolicy = iota
	// PreferFirstFiled keeps the originally reported value and records
	// restatements as provenance only.
	PreferFirstFiled
)

// FindingKind classifies a diagnostic from Validate.
type FindingKind string

const (
	// FindingGap is a missing quarter between two known quarters of the
	// same fiscal year. Expected in sparse real-world data.
	FindingGap FindingKind = "GAP"
	// FindingOverlap is a pair of same-type periods whose date ranges
	// overlap even though their canonical keys differ.
	FindingOverlap FindingKind = "OVERLAP"
	// FindingIntegrity is a violated deduplication invariant: two entries
	// claiming one canonical key, or a malformed quarter label. Indicates a
	// bug in the merger and should fail loudly in tests.
	FindingIntegrity FindingKind = "INTEGRITY"
)

// Finding is one diagnostic produced by Validate. Findings are reported,
// never raised.
type Finding struct {
	Kind       FindingKind `json:"kind"`
	Concept    string      `json:"concept"`
	FiscalYear int         `json:"fiscal_year,omitempty"`
	Detail     string      `json:"detail"`
}
