package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"edgar_dashboard/pkg/core/fact"
	"edgar_dashboard/pkg/core/period"
	"edgar_dashboard/pkg/core/series"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// memRepo captures persisted series in memory. Mirrors what the Postgres
// SeriesRepo receives without needing a database.
type memRepo struct {
	mu       sync.Mutex
	series   map[string][]series.Aggregated
	findings map[string][]series.Finding
}

func newMemRepo() *memRepo {
	return &memRepo{
		series:   make(map[string][]series.Aggregated),
		findings: make(map[string][]series.Finding),
	}
}

func (m *memRepo) SaveSeries(_ context.Context, ticker string, agg series.Aggregated) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[ticker] = append(m.series[ticker], agg)
	return nil
}

func (m *memRepo) SaveFindings(_ context.Context, ticker string, findings []series.Finding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findings[ticker] = findings
	return nil
}

func annualFact(concept string, filed time.Time, value float64, id string) fact.RawFact {
	return fact.RawFact{
		Concept:        concept,
		Value:          value,
		Unit:           "USD",
		FilingDate:     filed,
		FilingType:     fact.Form10K,
		SourceFilingID: id,
	}
}

func TestRunAggregatesEntitiesIndependently(t *testing.T) {
	jobs := []EntityJob{
		{
			Ticker: "AAPL",
			Config: period.DefaultConfig(time.September, 30),
			Batches: [][]fact.RawFact{
				{annualFact("Revenue", date(2022, time.October, 28), 394328, "aapl-10k-22")},
				{annualFact("Revenue", date(2023, time.November, 3), 383285, "aapl-10k-23")},
			},
		},
		{
			Ticker: "MSFT",
			Config: period.DefaultConfig(time.June, 30),
			Batches: [][]fact.RawFact{
				{annualFact("Revenue", date(2023, time.July, 27), 211915, "msft-10k-23")},
			},
		},
	}

	orch := NewOrchestrator(2, series.PreferLatestFiled)
	run := orch.Run(context.Background(), jobs)

	if run.RunID == "" {
		t.Error("Run must carry an id")
	}
	if len(run.Entities) != 2 {
		t.Fatalf("Expected 2 entity results, got %d", len(run.Entities))
	}
	// Results stay in job order regardless of worker scheduling.
	if run.Entities[0].Ticker != "AAPL" || run.Entities[1].Ticker != "MSFT" {
		t.Errorf("Results out of job order: %s, %s", run.Entities[0].Ticker, run.Entities[1].Ticker)
	}

	aapl := run.Entities[0]
	if aapl.Err != nil {
		t.Fatalf("AAPL aggregation failed: %v", aapl.Err)
	}
	if len(aapl.Series) != 1 || aapl.Series[0].Concept != "Revenue" {
		t.Fatalf("Expected one Revenue series for AAPL, got %+v", aapl.Series)
	}
	// Two distinct fiscal years: both annual entries survive.
	if len(aapl.Series[0].Entries) != 2 {
		t.Errorf("Expected 2 annual entries for AAPL, got %d", len(aapl.Series[0].Entries))
	}

	msft := run.Entities[1]
	if len(msft.Series) != 1 || len(msft.Series[0].Entries) != 1 {
		t.Errorf("Expected 1 annual entry for MSFT, got %+v", msft.Series)
	}
}

func TestRunPersistsThroughRepository(t *testing.T) {
	repo := newMemRepo()
	orch := NewOrchestrator(1, series.PreferLatestFiled)
	orch.SetRepository(repo)

	run := orch.Run(context.Background(), []EntityJob{{
		Ticker: "AAPL",
		Config: period.DefaultConfig(time.September, 30),
		Batches: [][]fact.RawFact{
			{annualFact("Revenue", date(2023, time.November, 3), 383285, "10k")},
			{annualFact("NetIncome", date(2023, time.November, 3), 96995, "10k")},
		},
	}})

	if run.Entities[0].Err != nil {
		t.Fatalf("Run failed: %v", run.Entities[0].Err)
	}
	saved := repo.series["AAPL"]
	if len(saved) != 2 {
		t.Fatalf("Expected 2 saved series, got %d", len(saved))
	}
	// ExportAll sorts by concept, so NetIncome saves before Revenue.
	if saved[0].Concept != "NetIncome" || saved[1].Concept != "Revenue" {
		t.Errorf("Saved concepts out of order: %s, %s", saved[0].Concept, saved[1].Concept)
	}
	if _, ok := repo.findings["AAPL"]; !ok {
		t.Error("Findings must be persisted even when empty")
	}
}

func TestRunWithoutRepositorySkipsPersistence(t *testing.T) {
	orch := NewOrchestrator(0, series.PreferLatestFiled) // clamps to 1 worker
	run := orch.Run(context.Background(), []EntityJob{{
		Ticker:  "AAPL",
		Config:  period.DefaultConfig(time.September, 30),
		Batches: [][]fact.RawFact{{annualFact("Revenue", date(2023, time.November, 3), 1, "10k")}},
	}})
	if run.Entities[0].Err != nil {
		t.Errorf("Run without repository must succeed, got %v", run.Entities[0].Err)
	}
}
