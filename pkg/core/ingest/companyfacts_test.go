package ingest

import (
	"testing"
	"time"

	"edgar_dashboard/pkg/core/fact"
)

const sampleDoc = `{
	"cik": 320193,
	"entityName": "Apple Inc.",
	"facts": {
		"us-gaap": {
			"Revenues": {
				"label": "Revenues",
				"units": {
					"USD": [
						{"start": "2022-09-25", "end": "2023-09-30", "val": 383285000000,
						 "accn": "0000320193-23-000106", "form": "10-K", "filed": "2023-11-03", "fy": 2023, "fp": "FY"},
						{"start": "2023-10-01", "end": "2023-12-30", "val": 119575000000,
						 "accn": "0000320193-24-000006", "form": "10-Q", "filed": "2024-02-02", "fy": 2024, "fp": "Q1"}
					]
				}
			},
			"CashAndCashEquivalentsAtCarryingValue": {
				"label": "Cash and Cash Equivalents",
				"units": {
					"USD": [
						{"end": "2023-09-30", "val": 29965000000,
						 "accn": "0000320193-23-000106", "form": "10-K", "filed": "2023-11-03", "fy": 2023, "fp": "FY"}
					]
				}
			}
		}
	}
}`

func TestDecodeCompanyFacts(t *testing.T) {
	doc, err := Decode([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if doc.CIK != 320193 || doc.EntityName != "Apple Inc." {
		t.Errorf("Entity header mismatch: %+v", doc)
	}

	facts := doc.RawFacts()
	if len(facts) != 3 {
		t.Fatalf("Expected 3 facts, got %d", len(facts))
	}

	// Sorted taxonomy/tag order puts the instant cash fact first.
	cash := facts[0]
	if cash.Concept != "us-gaap:CashAndCashEquivalentsAtCarryingValue" {
		t.Errorf("Expected taxonomy-qualified concept, got %q", cash.Concept)
	}
	if cash.ContextStart != nil {
		t.Errorf("Instant fact must have no context start, got %v", cash.ContextStart)
	}
	if cash.ContextEnd == nil || !cash.ContextEnd.Equal(time.Date(2023, time.September, 30, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Instant fact context end mismatch: %v", cash.ContextEnd)
	}

	rev := facts[1]
	if rev.Concept != "us-gaap:Revenues" || rev.Value != 383285000000 {
		t.Errorf("Revenue fact mismatch: %+v", rev)
	}
	if rev.Unit != "USD" || rev.FilingType != fact.Form10K {
		t.Errorf("Revenue fact unit/form mismatch: %+v", rev)
	}
	if rev.FilingDate.IsZero() {
		t.Error("Filed date should parse into FilingDate")
	}
	if rev.SourceFilingID != "0000320193-23-000106" {
		t.Errorf("Accession number should become the source filing id, got %q", rev.SourceFilingID)
	}
}

func TestDecodeRepairsMalformedJSON(t *testing.T) {
	// Trailing comma: invalid JSON, recoverable by the repair pass.
	malformed := `{
		"cik": 320193,
		"entityName": "Apple Inc.",
		"facts": {
			"us-gaap": {
				"Revenues": {
					"units": {
						"USD": [
							{"start": "2022-09-25", "end": "2023-09-30", "val": 1000, "accn": "a-1", "form": "10-K", "filed": "2023-11-03"},
						]
					}
				}
			}
		}
	}`

	doc, err := Decode([]byte(malformed))
	if err != nil {
		t.Fatalf("Decode should repair a trailing comma, got: %v", err)
	}
	facts := doc.RawFacts()
	if len(facts) != 1 || facts[0].Value != 1000 {
		t.Errorf("Repaired document should yield the fact, got %+v", facts)
	}
}

func TestDecodeRejectsFactlessDocument(t *testing.T) {
	if _, err := Decode([]byte(`{"cik": 1, "entityName": "X"}`)); err == nil {
		t.Error("A document without a facts section must be rejected")
	}
}

func TestUnparseableDatesDegradeToAbsent(t *testing.T) {
	doc, err := Decode([]byte(`{
		"cik": 1,
		"entityName": "X",
		"facts": {
			"us-gaap": {
				"Revenues": {
					"units": {
						"USD": [
							{"start": "not-a-date", "end": "2023-09-30", "val": 5, "accn": "a-1", "form": "10-K", "filed": ""}
						]
					}
				}
			}
		}
	}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	f := doc.RawFacts()[0]
	if f.ContextStart != nil {
		t.Errorf("Garbled start date must degrade to absent, got %v", f.ContextStart)
	}
	if f.ContextEnd == nil {
		t.Error("Valid end date must survive")
	}
	if !f.FilingDate.IsZero() {
		t.Errorf("Empty filed date must stay zero, got %v", f.FilingDate)
	}
}

func TestFactsByFilingOrdersBySubmission(t *testing.T) {
	doc, err := Decode([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	batches := doc.FactsByFiling()
	if len(batches) != 2 {
		t.Fatalf("Expected 2 filing batches, got %d", len(batches))
	}
	// The 10-K (filed 2023-11-03) precedes the 10-Q (filed 2024-02-02).
	if batches[0][0].SourceFilingID != "0000320193-23-000106" {
		t.Errorf("Oldest filing must come first, got %q", batches[0][0].SourceFilingID)
	}
	if len(batches[0]) != 2 {
		t.Errorf("10-K batch should carry both of its facts, got %d", len(batches[0]))
	}
	if batches[1][0].SourceFilingID != "0000320193-24-000006" {
		t.Errorf("Newest filing must come last, got %q", batches[1][0].SourceFilingID)
	}
}
