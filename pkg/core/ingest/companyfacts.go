// Package ingest converts already-retrieved SEC structured-fact documents
// into RawFact batches for the aggregator. It is a boundary decoder only:
// fetching filings from EDGAR is the job of an external filings-access
// layer, which hands fully materialized documents to this package.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"edgar_dashboard/pkg/core/fact"
)

// Document mirrors the SEC companyfacts JSON shape: facts grouped by
// taxonomy, then by concept tag, then by unit.
type Document struct {
	CIK        int64                              `json:"cik"`
	EntityName string                             `json:"entityName"`
	Facts      map[string]map[string]ConceptFacts `json:"facts"`
}

// ConceptFacts is one tag's reported values, keyed by unit (USD, shares...).
type ConceptFacts struct {
	Label string                     `json:"label"`
	Units map[string][]ReportedValue `json:"units"`
}

// ReportedValue is a single observation as the SEC serializes it. Start is
// empty for instant (point-in-time) facts; malformed documents may omit or
// garble any date field.
type ReportedValue struct {
	Start string  `json:"start"`
	End   string  `json:"end"`
	Val   float64 `json:"val"`
	Accn  string  `json:"accn"`
	Form  string  `json:"form"`
	Filed string  `json:"filed"`
	FY    int     `json:"fy"`
	FP    string  `json:"fp"`
}

const dateLayout = "2006-01-02"

// Decode parses a companyfacts document. Real-world documents are noisy, so
// a strict parse failure triggers one repair pass (trailing commas, stray
// quotes and the like) before giving up.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		repaired, repErr := jsonrepair.RepairJSON(string(data))
		if repErr != nil {
			return nil, fmt.Errorf("failed to decode company facts: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &doc); err != nil {
			return nil, fmt.Errorf("failed to decode company facts after repair: %w", err)
		}
	}
	if doc.Facts == nil {
		return nil, fmt.Errorf("document carries no facts section")
	}
	return &doc, nil
}

// DecodeFile reads and decodes a companyfacts document from disk.
func DecodeFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// RawFacts flattens the document into aggregator input. Concepts are
// qualified with their taxonomy (e.g. "us-gaap:Revenues"). Unparseable
// dates degrade to absent rather than dropping the fact: the resolver
// decides what is salvageable. Output order is deterministic.
func (d *Document) RawFacts() []fact.RawFact {
	var out []fact.RawFact

	taxonomies := make([]string, 0, len(d.Facts))
	for tax := range d.Facts {
		taxonomies = append(taxonomies, tax)
	}
	sort.Strings(taxonomies)

	for _, tax := range taxonomies {
		tags := make([]string, 0, len(d.Facts[tax]))
		for tag := range d.Facts[tax] {
			tags = append(tags, tag)
		}
		sort.Strings(tags)

		for _, tag := range tags {
			cf := d.Facts[tax][tag]
			units := make([]string, 0, len(cf.Units))
			for unit := range cf.Units {
				units = append(units, unit)
			}
			sort.Strings(units)

			for _, unit := range units {
				for _, rv := range cf.Units[unit] {
					f := fact.RawFact{
						Concept:        tax + ":" + tag,
						Value:          rv.Val,
						Unit:           unit,
						FilingType:     fact.FilingType(rv.Form),
						SourceFilingID: rv.Accn,
					}
					if t, err := time.Parse(dateLayout, rv.Start); err == nil {
						start := t
						f.ContextStart = &start
					}
					if t, err := time.Parse(dateLayout, rv.End); err == nil {
						end := t
						f.ContextEnd = &end
					}
					if t, err := time.Parse(dateLayout, rv.Filed); err == nil {
						f.FilingDate = t
					}
					out = append(out, f)
				}
			}
		}
	}
	return out
}

// FactsByFiling splits the flattened facts into per-filing batches keyed by
// accession number, preserving the aggregator's filing-at-a-time ingestion
// model. Batches come back ordered by filing date, oldest first, so
// restatement precedence sees filings in submission order.
func (d *Document) FactsByFiling() [][]fact.RawFact {
	byFiling := make(map[string][]fact.RawFact)
	for _, f := range d.RawFacts() {
		byFiling[f.SourceFilingID] = append(byFiling[f.SourceFilingID], f)
	}

	ids := make([]string, 0, len(byFiling))
	for id := range byFiling {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := byFiling[ids[i]][0].FilingDate, byFiling[ids[j]][0].FilingDate
		if !a.Equal(b) {
			return a.Before(b)
		}
		return ids[i] < ids[j]
	})

	out := make([][]fact.RawFact, 0, len(ids))
	for _, id := range ids {
		out = append(out, byFiling[id])
	}
	return out
}
