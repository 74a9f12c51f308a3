package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"edgar_dashboard/pkg/core/series"
)

// SeriesRepository is the persistence seam the orchestrator writes through.
// Tests inject an in-memory implementation.
type SeriesRepository interface {
	SaveSeries(ctx context.Context, ticker string, agg series.Aggregated) error
	SaveFindings(ctx context.Context, ticker string, findings []series.Finding) error
}

// SeriesRepo stores reconciled series one row per (ticker, concept), with
// the full entry list (including provenance) as a JSONB blob.
type SeriesRepo struct{}

// NewSeriesRepo creates a new repository instance.
func NewSeriesRepo() *SeriesRepo {
	return &SeriesRepo{}
}

// Schema assumption (managed by migrations elsewhere):
//
// CREATE TABLE IF NOT EXISTS aggregated_series (
//   ticker TEXT NOT NULL,
//   concept TEXT NOT NULL,
//   series_json JSONB NOT NULL,
//   updated_at TIMESTAMPTZ NOT NULL,
//   PRIMARY KEY (ticker, concept)
// );
//
// CREATE TABLE IF NOT EXISTS series_findings (
//   ticker TEXT NOT NULL,
//   kind TEXT NOT NULL,
//   concept TEXT NOT NULL,
//   fiscal_year INT,
//   detail TEXT NOT NULL,
//   created_at TIMESTAMPTZ NOT NULL
// );

// SaveSeries upserts one concept's reconciled series for a ticker.
func (r *SeriesRepo) SaveSeries(ctx context.Context, ticker string, agg series.Aggregated) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	jsonData, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("failed to marshal series for %s/%s: %w", ticker, agg.Concept, err)
	}

	query := `
		INSERT INTO aggregated_series (ticker, concept, series_json, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ticker, concept)
		DO UPDATE SET
			series_json = EXCLUDED.series_json,
			updated_at = EXCLUDED.updated_at;
	`

	if _, err := pool.Exec(ctx, query, ticker, agg.Concept, jsonData, time.Now()); err != nil {
		return fmt.Errorf("failed to save series for %s/%s: %w", ticker, agg.Concept, err)
	}
	return nil
}

// LoadSeries retrieves one concept's reconciled series for a ticker.
func (r *SeriesRepo) LoadSeries(ctx context.Context, ticker, concept string) (series.Aggregated, error) {
	pool := GetPool()
	if pool == nil {
		return series.Aggregated{}, fmt.Errorf("database pool not initialized")
	}

	var jsonData []byte
	query := `SELECT series_json FROM aggregated_series WHERE ticker = $1 AND concept = $2;`
	if err := pool.QueryRow(ctx, query, ticker, concept).Scan(&jsonData); err != nil {
		return series.Aggregated{}, fmt.Errorf("failed to load series for %s/%s: %w", ticker, concept, err)
	}

	var agg series.Aggregated
	if err := json.Unmarshal(jsonData, &agg); err != nil {
		return series.Aggregated{}, fmt.Errorf("failed to unmarshal series for %s/%s: %w", ticker, concept, err)
	}
	return agg, nil
}

// SaveFindings replaces the stored diagnostics for a ticker with the given
// set. Findings are advisory; replacing wholesale keeps the table in sync
// with the latest validation pass.
func (r *SeriesRepo) SaveFindings(ctx context.Context, ticker string, findings []series.Finding) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin findings transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM series_findings WHERE ticker = $1;`, ticker); err != nil {
		return fmt.Errorf("failed to clear findings for %s: %w", ticker, err)
	}

	now := time.Now()
	for _, f := range findings {
		_, err := tx.Exec(ctx,
			`INSERT INTO series_findings (ticker, kind, concept, fiscal_year, detail, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6);`,
			ticker, string(f.Kind), f.Concept, f.FiscalYear, f.Detail, now)
		if err != nil {
			return fmt.Errorf("failed to save finding for %s: %w", ticker, err)
		}
	}

	return tx.Commit(ctx)
}
