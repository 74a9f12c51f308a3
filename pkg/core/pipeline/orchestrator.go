// Package pipeline fans aggregation out across entities. Entities are
// independent by construction: each gets its own builder and resolver, so
// workers share nothing mutable. Filings within one entity are ingested
// strictly in order.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"edgar_dashboard/pkg/core/fact"
	"edgar_dashboard/pkg/core/period"
	"edgar_dashboard/pkg/core/series"
	"edgar_dashboard/pkg/core/store"
)

// EntityJob is one entity's work: its fiscal calendar and its filings'
// fact batches, oldest filing first.
type EntityJob struct {
	Ticker  string
	Config  period.Config
	Batches [][]fact.RawFact
}

// EntityResult is everything one aggregation session produced.
type EntityResult struct {
	Ticker    string
	Series    []series.Aggregated
	Ambiguous []series.AmbiguousFact
	Warnings  []string
	Findings  []series.Finding
	Err       error
}

// RunResult summarizes one orchestrator run.
type RunResult struct {
	RunID    string
	Started  time.Time
	Elapsed  time.Duration
	Entities []EntityResult
}

// Orchestrator runs aggregation sessions over a bounded worker pool and
// optionally persists the results.
type Orchestrator struct {
	workers int
	policy  series.TieBreakPolicy
	repo    store.SeriesRepository // nil disables persistence
}

// NewOrchestrator creates an orchestrator. workers below 1 is clamped to 1.
func NewOrchestrator(workers int, policy series.TieBreakPolicy) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{workers: workers, policy: policy}
}

// SetRepository enables persistence of series and findings after each
// entity completes. Tests inject an in-memory implementation here.
func (o *Orchestrator) SetRepository(repo store.SeriesRepository) {
	o.repo = repo
}

// Run aggregates every job and returns per-entity results in job order.
// A failing entity (persistence error, cancelled context) is reported in
// its result; it never stops the other entities.
func (o *Orchestrator) Run(ctx context.Context, jobs []EntityJob) *RunResult {
	run := &RunResult{
		RunID:    uuid.New().String(),
		Started:  time.Now(),
		Entities: make([]EntityResult, len(jobs)),
	}

	type indexed struct {
		idx int
		job EntityJob
	}
	work := make(chan indexed)
	var wg sync.WaitGroup

	for w := 0; w < o.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for it := range work {
				run.Entities[it.idx] = o.runEntity(ctx, it.job)
			}
		}()
	}

	for i, job := range jobs {
		select {
		case work <- indexed{idx: i, job: job}:
		case <-ctx.Done():
			run.Entities[i] = EntityResult{Ticker: job.Ticker, Err: ctx.Err()}
		}
	}
	close(work)
	wg.Wait()

	run.Elapsed = time.Since(run.Started)
	return run
}

// runEntity executes one entity's aggregation session start to finish.
func (o *Orchestrator) runEntity(ctx context.Context, job EntityJob) EntityResult {
	res := EntityResult{Ticker: job.Ticker}

	builder := series.NewBuilder(period.NewResolver(job.Config), o.policy)
	for _, batch := range job.Batches {
		ingested := builder.Ingest(batch)
		res.Ambiguous = append(res.Ambiguous, ingested.Ambiguous...)
		res.Warnings = append(res.Warnings, ingested.Warnings...)
	}

	res.Series = builder.ExportAll()
	res.Findings = builder.Validate()
	sort.Slice(res.Series, func(i, j int) bool { return res.Series[i].Concept < res.Series[j].Concept })

	if o.repo != nil {
		for _, agg := range res.Series {
			if err := o.repo.SaveSeries(ctx, job.Ticker, agg); err != nil {
				res.Err = fmt.Errorf("persisting %s/%s: %w", job.Ticker, agg.Concept, err)
				return res
			}
		}
		if err := o.repo.SaveFindings(ctx, job.Ticker, res.Findings); err != nil {
			res.Err = fmt.Errorf("persisting findings for %s: %w", job.Ticker, err)
		}
	}
	return res
}
