package series

import (
	"errors"
	"fmt"
	"sort"

	"edgar_dashboard/pkg/core/fact"
	"edgar_dashboard/pkg/core/period"
)

// ErrUnknownConcept is returned by Export for a concept never ingested.
var ErrUnknownConcept = errors.New("concept was never ingested")

// Builder accumulates one entity's aggregated series. It is the only
// mutable state in the engine and is scoped to a single aggregation
// session: construct one per entity, ingest filings in order, then export.
//
// Builder is not safe for concurrent use. Entities are independent, so
// parallelism belongs above this type (one builder per goroutine), never
// inside it.
type Builder struct {
	resolver *period.Resolver
	policy   TieBreakPolicy
	entries  map[Key]*Entry
	concepts map[string]struct{}
}

// NewBuilder creates an empty aggregation session using the given per-entity
// resolver and tie-break policy.
func NewBuilder(resolver *period.Resolver, policy TieBreakPolicy) *Builder {
	return &Builder{
		resolver: resolver,
		policy:   policy,
		entries:  make(map[Key]*Entry),
		concepts: make(map[string]struct{}),
	}
}

// Ingest resolves and merges one filing's facts into the session.
//
// Individual malformed facts are skipped with a warning; the rest of the
// batch always proceeds. Ambiguous resolutions are merged (they can still be
// superseded by better-dated facts) and surfaced in the result for review.
func (b *Builder) Ingest(facts []fact.RawFact) IngestResult {
	var res IngestResult
	touched := make(map[string]struct{})

	for _, f := range facts {
		if f.Concept == "" {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("skipping fact from filing %q: empty concept", f.SourceFilingID))
			continue
		}
		p, err := b.resolver.Resolve(f)
		if err != nil {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("skipping %s fact from filing %q: %v", f.Concept, f.SourceFilingID, err))
			continue
		}
		if p.Confidence == period.Ambiguous {
			res.Ambiguous = append(res.Ambiguous, AmbiguousFact{Fact: f, Period: p})
		}
		if b.merge(f, p) {
			touched[f.Concept] = struct{}{}
		}
	}

	res.Updated = make([]string, 0, len(touched))
	for c := range touched {
		res.Updated = append(res.Updated, c)
	}
	sort.Strings(res.Updated)
	return res
}

// merge folds one resolved fact into the series. It reports whether the
// exported series changed; a fact that only lands in provenance does not
// count as an update.
func (b *Builder) merge(f fact.RawFact, p period.Resolved) bool {
	k := Key{Concept: f.Concept, Type: p.Type, FiscalYear: p.FiscalYear, FiscalQuarter: p.FiscalQuarter}
	challenger := Entry{
		Period:         p,
		Value:          f.Value,
		Unit:           f.Unit,
		SourceFilingID: f.SourceFilingID,
		FilingDate:     f.FilingDate,
		FilingType:     f.FilingType,
	}

	incumbent, ok := b.entries[k]
	if !ok {
		b.entries[k] = &challenger
		b.concepts[f.Concept] = struct{}{}
		return true
	}
	if sameObservation(*incumbent, challenger) {
		return false
	}
	if supersedes(*incumbent, challenger, b.policy) {
		challenger.Superseded = append(append([]Provenance(nil), incumbent.Superseded...), provenanceOf(*incumbent))
		*incumbent = challenger
		return true
	}
	if prov := provenanceOf(challenger); !alreadyRecorded(incumbent.Superseded, prov) {
		incumbent.Superseded = append(incumbent.Superseded, prov)
	}
	return false
}

// Concepts lists every ingested concept, sorted.
func (b *Builder) Concepts() []string {
	out := make([]string, 0, len(b.concepts))
	for c := range b.concepts {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Export returns the aggregated series for one concept, sorted ascending by
// period end. The returned entries are copies; mutating them does not affect
// the session.
func (b *Builder) Export(concept string) (Aggregated, error) {
	if _, ok := b.concepts[concept]; !ok {
		return Aggregated{}, fmt.Errorf("%q: %w", concept, ErrUnknownConcept)
	}

	agg := Aggregated{Concept: concept}
	for k, e := range b.entries {
		if k.Concept != concept {
			continue
		}
		entry := *e
		entry.Superseded = append([]Provenance(nil), e.Superseded...)
		agg.Entries = append(agg.Entries, entry)
	}
	sort.Slice(agg.Entries, func(i, j int) bool {
		a, c := agg.Entries[i], agg.Entries[j]
		if !a.Period.End.Equal(c.Period.End) {
			return a.Period.End.Before(c.Period.End)
		}
		if a.Period.Type != c.Period.Type {
			return a.Period.Type < c.Period.Type
		}
		return a.Period.FiscalQuarter < c.Period.FiscalQuarter
	})
	return agg, nil
}

// ExportAll exports every concept's series, sorted by concept name.
func (b *Builder) ExportAll() []Aggregated {
	out := make([]Aggregated, 0, len(b.concepts))
	for _, c := range b.Concepts() {
		agg, err := b.Export(c)
		if err != nil {
			continue // unreachable: Concepts only lists known concepts
		}
		out = append(out, agg)
	}
	return out
}

// Validate scans all series for quarter gaps, overlapping periods and
// violated deduplication invariants. It returns findings and never fails:
// gaps are expected in sparse real-world data, while INTEGRITY findings
// indicate a merger bug and deserve a loud test failure.
func (b *Builder) Validate() []Finding {
	var findings []Finding
	for _, concept := range b.Concepts() {
		agg, err := b.Export(concept)
		if err != nil {
			continue
		}
		findings = append(findings, checkIntegrity(agg)...)
		findings = append(findings, checkQuarterGaps(agg)...)
		findings = append(findings, checkOverlaps(agg)...)
	}
	return findings
}

// checkIntegrity verifies the one-entry-per-canonical-key invariant and the
// quarter-labeling rules over an exported series.
func checkIntegrity(agg Aggregated) []Finding {
	var findings []Finding
	seen := make(map[Key]int)
	for _, e := range agg.Entries {
		k := Key{
			Concept:       agg.Concept,
			Type:          e.Period.Type,
			FiscalYear:    e.Period.FiscalYear,
			FiscalQuarter: e.Period.FiscalQuarter,
		}
		seen[k]++
		if seen[k] == 2 {
			findings = append(findings, Finding{
				Kind:       FindingIntegrity,
				Concept:    agg.Concept,
				FiscalYear: k.FiscalYear,
				Detail:     fmt.Sprintf("duplicate canonical period %s %s", e.Period.Type, e.Period.Label()),
			})
		}
		switch e.Period.Type {
		case period.Annual:
			if e.Period.FiscalQuarter != 0 {
				findings = append(findings, Finding{
					Kind:       FindingIntegrity,
					Concept:    agg.Concept,
					FiscalYear: k.FiscalYear,
					Detail:     fmt.Sprintf("annual period %s carries quarter %d", e.Period.Label(), e.Period.FiscalQuarter),
				})
			}
		case period.Quarterly, period.Interim:
			if e.Period.FiscalQuarter < 1 || e.Period.FiscalQuarter > 4 {
				findings = append(findings, Finding{
					Kind:       FindingIntegrity,
					Concept:    agg.Concept,
					FiscalYear: k.FiscalYear,
					Detail:     fmt.Sprintf("period %s has quarter %d outside 1-4", e.Period.Label(), e.Period.FiscalQuarter),
				})
			}
		}
	}
	return findings
}

// checkQuarterGaps flags fiscal years where a quarter is missing between two
// known quarters of the same year.
func checkQuarterGaps(agg Aggregated) []Finding {
	quarters := make(map[int]map[int]bool) // fiscal year -> quarter set
	for _, e := range agg.Entries {
		if e.Period.Type != period.Quarterly {
			continue
		}
		if quarters[e.Period.FiscalYear] == nil {
			quarters[e.Period.FiscalYear] = make(map[int]bool)
		}
		quarters[e.Period.FiscalYear][e.Period.FiscalQuarter] = true
	}

	years := make([]int, 0, len(quarters))
	for fy := range quarters {
		years = append(years, fy)
	}
	sort.Ints(years)

	var findings []Finding
	for _, fy := range years {
		qs := quarters[fy]
		lo, hi := 5, 0
		for q := range qs {
			if q < lo {
				lo = q
			}
			if q > hi {
				hi = q
			}
		}
		for q := lo + 1; q < hi; q++ {
			if !qs[q] {
				findings = append(findings, Finding{
					Kind:       FindingGap,
					Concept:    agg.Concept,
					FiscalYear: fy,
					Detail:     fmt.Sprintf("missing Q%d between known quarters of FY%d", q, fy),
				})
			}
		}
	}
	return findings
}

// checkOverlaps flags same-type entries whose resolved date ranges overlap
// despite holding distinct canonical keys. INFERRED windows are approximate
// by construction, so only EXACT-vs-EXACT overlaps are reported.
func checkOverlaps(agg Aggregated) []Finding {
	var findings []Finding
	byType := make(map[period.Type][]Entry)
	for _, e := range agg.Entries {
		if e.Period.Confidence != period.Exact {
			continue
		}
		byType[e.Period.Type] = append(byType[e.Period.Type], e)
	}
	for _, entries := range byType {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Period.Start.Before(entries[j].Period.Start)
		})
		// Compare each window against the furthest end seen so far, not just
		// the previous window. A wide window that contains several later
		// disjoint windows must flag every one of them.
		reach := 0
		for i := 1; i < len(entries); i++ {
			prev, cur := entries[reach], entries[i]
			if cur.Period.Start.Before(prev.Period.End) {
				findings = append(findings, Finding{
					Kind:       FindingOverlap,
					Concept:    agg.Concept,
					FiscalYear: cur.Period.FiscalYear,
					Detail: fmt.Sprintf("%s %s overlaps %s %s",
						prev.Period.Type, prev.Period.Label(), cur.Period.Type, cur.Period.Label()),
				})
			}
			if cur.Period.End.After(entries[reach].Period.End) {
				reach = i
			}
		}
	}
	return findings
}
