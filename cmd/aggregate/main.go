// Command aggregate reconciles multi-year financial statements from
// already-retrieved SEC companyfacts documents.
//
// Usage:
//
//	aggregate [-settings settings.hjson] [-registry registry.yaml] [-store] facts1.json [facts2.json ...]
//
// Each input file is one entity's structured-fact document. The tool
// resolves every fact to a canonical fiscal period, deduplicates
// restatements, prints a Markdown report per entity and, with -store,
// persists the reconciled series to Postgres (DATABASE_URL).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"edgar_dashboard/pkg/core/config"
	"edgar_dashboard/pkg/core/ingest"
	"edgar_dashboard/pkg/core/pipeline"
	"edgar_dashboard/pkg/core/report"
	"edgar_dashboard/pkg/core/store"
)

func main() {
	settingsPath := flag.String("settings", "settings.hjson", "engine settings file (HJSON)")
	registryPath := flag.String("registry", "", "entity registry file (YAML); optional")
	persist := flag.Bool("store", false, "persist reconciled series to Postgres")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatal("no input files: pass at least one companyfacts JSON document")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, assuming environment variables are set.")
	}

	settings, err := config.LoadSettings(*settingsPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	policy, err := settings.TieBreakPolicy()
	if err != nil {
		log.Fatalf("Bad settings: %v", err)
	}

	var registry *config.Registry
	if *registryPath != "" {
		registry, err = config.LoadRegistry(*registryPath)
		if err != nil {
			log.Fatalf("Failed to load registry: %v", err)
		}
	}

	fmt.Printf("🚀 Statement aggregation starting (%d files, %d workers)...\n", flag.NArg(), settings.Workers)

	var jobs []pipeline.EntityJob
	for _, path := range flag.Args() {
		doc, err := ingest.DecodeFile(path)
		if err != nil {
			log.Printf("Warning: skipping %s: %v", path, err)
			continue
		}

		entity := lookupEntity(registry, doc)
		if entity.FiscalYearEnd == "" {
			log.Printf("No fiscal_year_end configured for %s, assuming calendar year (12-31)", entity.Ticker)
		}
		periodCfg, err := settings.PeriodConfig(entity)
		if err != nil {
			log.Printf("Warning: skipping %s: %v", path, err)
			continue
		}

		jobs = append(jobs, pipeline.EntityJob{
			Ticker:  entity.Ticker,
			Config:  periodCfg,
			Batches: doc.FactsByFiling(),
		})
	}
	if len(jobs) == 0 {
		log.Fatal("No usable input documents.")
	}

	ctx := context.Background()
	orch := pipeline.NewOrchestrator(settings.Workers, policy)

	if *persist {
		if err := store.InitDB(ctx); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()
		orch.SetRepository(store.NewSeriesRepo())
	}

	run := orch.Run(ctx, jobs)
	fmt.Printf("Run %s finished in %s\n", run.RunID, run.Elapsed.Round(time.Millisecond))

	for _, res := range run.Entities {
		if res.Err != nil {
			log.Printf("Entity %s failed: %v", res.Ticker, res.Err)
			continue
		}
		md := report.Entity(res.Ticker, res.Series, res.Findings, res.Ambiguous, res.Warnings)
		if !report.ValidateMarkdown(md) {
			log.Printf("Warning: report for %s did not parse as Markdown", res.Ticker)
		}
		fmt.Println(md)
		fmt.Printf("✅ %s: %d concepts, %d findings, %d ambiguous periods, %d warnings\n",
			res.Ticker, len(res.Series), len(res.Findings), len(res.Ambiguous), len(res.Warnings))
	}
}

// lookupEntity matches a decoded document to the registry by CIK, falling
// back to the document's own entity name when no registry is loaded.
func lookupEntity(registry *config.Registry, doc *ingest.Document) config.Entity {
	if registry != nil {
		cik := strconv.FormatInt(doc.CIK, 10)
		for _, e := range registry.Entities {
			if strings.TrimLeft(e.CIK, "0") == cik {
				return e
			}
		}
	}
	ticker := doc.EntityName
	if ticker == "" {
		ticker = fmt.Sprintf("CIK%d", doc.CIK)
	}
	return config.Entity{Ticker: ticker, CIK: strconv.FormatInt(doc.CIK, 10)}
}
