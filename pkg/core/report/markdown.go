// Package report renders aggregation output as Markdown for operator logs
// and review queues. This is a diagnostics surface, not a presentation
// layer: the dashboard proper consumes the structured types directly.
package report

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"

	"edgar_dashboard/pkg/core/series"
)

const dateLayout = "2006-01-02"

// Entity renders one entity's reconciled series, ambiguous resolutions and
// validation findings as a Markdown document.
func Entity(ticker string, aggs []series.Aggregated, findings []series.Finding, ambiguous []series.AmbiguousFact, warnings []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Aggregation report: %s\n\n", ticker)

	for _, agg := range aggs {
		fmt.Fprintf(&b, "## %s\n\n", agg.Concept)
		b.WriteString("| Period | Type | Window | Value | Unit | Confidence | Source | Superseded |\n")
		b.WriteString("|---|---|---|---|---|---|---|---|\n")
		for _, e := range agg.Entries {
			fmt.Fprintf(&b, "| %s | %s | %s to %s | %g | %s | %s | %s | %d |\n",
				e.Period.Label(),
				e.Period.Type,
				e.Period.Start.Format(dateLayout),
				e.Period.End.Format(dateLayout),
				e.Value,
				e.Unit,
				e.Period.Confidence,
				e.SourceFilingID,
				len(e.Superseded),
			)
		}
		b.WriteString("\n")
	}

	if len(ambiguous) > 0 {
		b.WriteString("## Ambiguous periods (needs review)\n\n")
		for _, a := range ambiguous {
			fmt.Fprintf(&b, "- %s from filing %s: window %s to %s resolved as %s %s\n",
				a.Fact.Concept,
				a.Fact.SourceFilingID,
				a.Period.Start.Format(dateLayout),
				a.Period.End.Format(dateLayout),
				a.Period.Type,
				a.Period.Label(),
			)
		}
		b.WriteString("\n")
	}

	if len(findings) > 0 {
		b.WriteString("## Validation findings\n\n")
		b.WriteString("| Kind | Concept | Detail |\n")
		b.WriteString("|---|---|---|\n")
		for _, f := range findings {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", f.Kind, f.Concept, f.Detail)
		}
		b.WriteString("\n")
	}

	if len(warnings) > 0 {
		b.WriteString("## Ingestion warnings\n\n")
		for _, w := range warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// ValidateMarkdown checks that a report parses as Markdown using Goldmark.
// Goldmark is very permissive, so this is a basic sanity check before the
// report is shipped to a log sink.
func ValidateMarkdown(input string) bool {
	parser := goldmark.DefaultParser()
	reader := text.NewReader([]byte(input))
	doc := parser.Parse(reader)
	return doc != nil
}
