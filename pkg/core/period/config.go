package period

import "time"

// Config carries the per-entity settings the resolver needs. There are no
// package-level defaults consulted at resolution time: every resolver is
// constructed with an explicit Config so two entities with different fiscal
// calendars never share state.
type Config struct {
	// Fiscal-year end anniversary (e.g. September 30 for Apple).
	FiscalYearEndMonth time.Month
	FiscalYearEndDay   int

	// Classification windows, in days. A context duration within
	// AnnualDays +/- AnnualToleranceDays is annual, within
	// QuarterDays +/- QuarterToleranceDays quarterly.
	AnnualDays           int
	AnnualToleranceDays  int
	QuarterDays          int
	QuarterToleranceDays int

	// Durations of at least NearAnnualFloorDays that still miss the annual
	// band are too close to a full year to call interim with confidence.
	NearAnnualFloorDays int

	// A period ending at most FYEGraceDays after the fiscal-year-end
	// anniversary still closes that fiscal year (52/53-week calendars).
	FYEGraceDays int
}

// DefaultConfig returns the standard tolerances for an entity whose fiscal
// year ends on the given month and day.
func DefaultConfig(month time.Month, day int) Config {
	return Config{
		FiscalYearEndMonth:   month,
		FiscalYearEndDay:     day,
		AnnualDays:           365,
		AnnualToleranceDays:  10,
		QuarterDays:          90,
		QuarterToleranceDays: 10,
		NearAnnualFloorDays:  270,
		FYEGraceDays:         10,
	}
}
