package period

import (
	"errors"
	"math"
	"time"

	"edgar_dashboard/pkg/core/fact"
)

// ErrMissingTemporalData marks a fact that carries neither usable context
// dates nor a filing date. Such a fact cannot be placed on any timeline.
var ErrMissingTemporalData = errors.New("fact has neither context dates nor a filing date")

// Resolver maps raw facts to canonical fiscal periods for one entity.
type Resolver struct {
	cfg Config
}

// NewResolver creates a resolver bound to one entity's fiscal calendar.
func NewResolver(cfg Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Config returns the resolver's configuration.
func (r *Resolver) Config() Config {
	return r.cfg
}

// Resolve assigns a canonical fiscal period to a fact.
//
// When both context dates are present and consistent the period is taken
// directly from them (EXACT, or AMBIGUOUS for near-annual windows that fit
// no standard fiscal shape). Otherwise the form type and filing date drive
// an INFERRED fallback. A fact with no filing date either fails with
// ErrMissingTemporalData.
func (r *Resolver) Resolve(f fact.RawFact) (Resolved, error) {
	if f.HasContext() && f.ContextEnd.After(*f.ContextStart) {
		return r.fromContext(*f.ContextStart, *f.ContextEnd), nil
	}
	if f.FilingDate.IsZero() {
		return Resolved{}, ErrMissingTemporalData
	}
	return r.fromFiling(f), nil
}

// fromContext classifies a well-dated reporting window.
// XBRL context boundaries are inclusive, so Jan 1 - Dec 31 spans 365 days.
func (r *Resolver) fromContext(start, end time.Time) Resolved {
	days := int(end.Sub(start).Hours()/24) + 1
	fy := r.fiscalYear(end)

	switch {
	case within(days, r.cfg.AnnualDays, r.cfg.AnnualToleranceDays):
		return Resolved{
			Type:       Annual,
			FiscalYear: fy,
			Start:      start,
			End:        end,
			Confidence: Exact,
		}
	case within(days, r.cfg.QuarterDays, r.cfg.QuarterToleranceDays):
		return Resolved{
			Type:          Quarterly,
			FiscalYear:    fy,
			FiscalQuarter: r.fiscalQuarter(end, fy),
			Start:         start,
			End:           end,
			Confidence:    Exact,
		}
	case days >= r.cfg.NearAnnualFloorDays:
		// Partial-year or over-long windows (e.g. 280 days) must surface as
		// ambiguous rather than be forced into the annual bucket.
		return Resolved{
			Type:          Interim,
			FiscalYear:    fy,
			FiscalQuarter: r.fiscalQuarter(end, fy),
			Start:         start,
			End:           end,
			Confidence:    Ambiguous,
		}
	default:
		// Non-standard but genuinely dated windows, e.g. a six-month YTD
		// period from a 10-Q.
		return Resolved{
			Type:          Interim,
			FiscalYear:    fy,
			FiscalQuarter: r.fiscalQuarter(end, fy),
			Start:         start,
			End:           end,
			Confidence:    Exact,
		}
	}
}

// fromFiling infers a period from the form type when context dates are
// missing or inconsistent. The filing date anchors the window end.
func (r *Resolver) fromFiling(f fact.RawFact) Resolved {
	end := f.FilingDate
	fy := r.fiscalYear(end)

	switch f.FilingType {
	case fact.Form10K:
		return Resolved{
			Type:       Annual,
			FiscalYear: fy,
			Start:      end.AddDate(0, 0, -r.cfg.AnnualDays),
			End:        end,
			Confidence: Inferred,
		}
	case fact.Form10Q:
		return Resolved{
			Type:          Quarterly,
			FiscalYear:    fy,
			FiscalQuarter: r.fiscalQuarter(end, fy),
			Start:         end.AddDate(0, 0, -r.cfg.QuarterDays),
			End:           end,
			Confidence:    Inferred,
		}
	default:
		return Resolved{
			Type:          Interim,
			FiscalYear:    fy,
			FiscalQuarter: r.fiscalQuarter(end, fy),
			Start:         end.AddDate(0, 0, -r.cfg.QuarterDays),
			End:           end,
			Confidence:    Inferred,
		}
	}
}

// fiscalYear labels a period end with the fiscal year it closes. Fiscal
// years are named after the calendar year their last day falls in, with a
// grace window for 52/53-week calendars whose year end drifts a few days
// past the anniversary.
func (r *Resolver) fiscalYear(end time.Time) int {
	prev := r.anniversary(end.Year() - 1)
	if !end.After(prev.AddDate(0, 0, r.cfg.FYEGraceDays)) {
		return end.Year() - 1
	}
	cur := r.anniversary(end.Year())
	if end.After(cur.AddDate(0, 0, r.cfg.FYEGraceDays)) {
		return end.Year() + 1
	}
	return end.Year()
}

// fiscalQuarter places a period end within its fiscal year by calendar
// distance from the fiscal-year start. 91.25 days is one quarter of a mean
// year; rounding absorbs month-length wobble.
func (r *Resolver) fiscalQuarter(end time.Time, fiscalYear int) int {
	fyStart := r.anniversary(fiscalYear - 1).AddDate(0, 0, 1)
	days := end.Sub(fyStart).Hours()/24 + 1
	q := int(math.Round(days / 91.25))
	if q < 1 {
		q = 1
	}
	if q > 4 {
		q = 4
	}
	return q
}

// anniversary returns the fiscal-year-end date falling in the given
// calendar year.
func (r *Resolver) anniversary(year int) time.Time {
	return time.Date(year, r.cfg.FiscalYearEndMonth, r.cfg.FiscalYearEndDay, 0, 0, 0, 0, time.UTC)
}

func within(days, target, tolerance int) bool {
	return days >= target-tolerance && days <= target+tolerance
}
