// Package config loads the aggregator's explicit configuration: engine
// settings from an HJSON file (human-edited, comments allowed) and the
// entity registry from YAML. Nothing in here is global; loaded values are
// passed to constructors by the caller.
package config

import (
	"fmt"
	"os"

	hjson "github.com/hjson/hjson-go/v4"

	"edgar_dashboard/pkg/core/period"
	"edgar_dashboard/pkg/core/series"
)

// Settings are the tunable knobs of the aggregation engine. A settings file
// only needs to state what it overrides; omitted keys keep their defaults,
// and an explicitly stated zero is honored (fye_grace_days: 0 disables the
// 52/53-week grace window).
type Settings struct {
	AnnualDays           int    `json:"annual_days"`
	AnnualToleranceDays  int    `json:"annual_tolerance_days"`
	QuarterDays          int    `json:"quarter_days"`
	QuarterToleranceDays int    `json:"quarter_tolerance_days"`
	NearAnnualFloorDays  int    `json:"near_annual_floor_days"`
	FYEGraceDays         int    `json:"fye_grace_days"`
	TieBreak             string `json:"tie_break"` // "latest" (default) or "first"
	Workers              int    `json:"workers"`
}

// DefaultSettings returns the engine defaults: standard tolerances, latest-wins
// restatement handling, four aggregation workers.
func DefaultSettings() Settings {
	return Settings{
		AnnualDays:           365,
		AnnualToleranceDays:  10,
		QuarterDays:          90,
		QuarterToleranceDays: 10,
		NearAnnualFloorDays:  270,
		FYEGraceDays:         10,
		TieBreak:             "latest",
		Workers:              4,
	}
}

// settingsFile mirrors Settings with optional fields, so an omitted key is
// distinguishable from an explicit zero.
type settingsFile struct {
	AnnualDays           *int    `json:"annual_days"`
	AnnualToleranceDays  *int    `json:"annual_tolerance_days"`
	QuarterDays          *int    `json:"quarter_days"`
	QuarterToleranceDays *int    `json:"quarter_tolerance_days"`
	NearAnnualFloorDays  *int    `json:"near_annual_floor_days"`
	FYEGraceDays         *int    `json:"fye_grace_days"`
	TieBreak             *string `json:"tie_break"`
	Workers              *int    `json:"workers"`
}

// LoadSettings reads an HJSON settings file and overlays it on the
// defaults. A missing file is not an error: defaults apply.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read settings %s: %w", path, err)
	}
	var f settingsFile
	if err := hjson.Unmarshal(data, &f); err != nil {
		return s, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}

	if f.AnnualDays != nil {
		s.AnnualDays = *f.AnnualDays
	}
	if f.AnnualToleranceDays != nil {
		s.AnnualToleranceDays = *f.AnnualToleranceDays
	}
	if f.QuarterDays != nil {
		s.QuarterDays = *f.QuarterDays
	}
	if f.QuarterToleranceDays != nil {
		s.QuarterToleranceDays = *f.QuarterToleranceDays
	}
	if f.NearAnnualFloorDays != nil {
		s.NearAnnualFloorDays = *f.NearAnnualFloorDays
	}
	if f.FYEGraceDays != nil {
		s.FYEGraceDays = *f.FYEGraceDays
	}
	if f.TieBreak != nil {
		s.TieBreak = *f.TieBreak
	}
	// Zero or negative workers is never usable; keep the default instead.
	if f.Workers != nil && *f.Workers > 0 {
		s.Workers = *f.Workers
	}
	return s, nil
}

// PeriodConfig builds a resolver configuration for one entity from these
// settings plus the entity's fiscal-year end.
func (s Settings) PeriodConfig(e Entity) (period.Config, error) {
	month, day, err := e.FiscalYearEndDate()
	if err != nil {
		return period.Config{}, err
	}
	return period.Config{
		FiscalYearEndMonth:   month,
		FiscalYearEndDay:     day,
		AnnualDays:           s.AnnualDays,
		AnnualToleranceDays:  s.AnnualToleranceDays,
		QuarterDays:          s.QuarterDays,
		QuarterToleranceDays: s.QuarterToleranceDays,
		NearAnnualFloorDays:  s.NearAnnualFloorDays,
		FYEGraceDays:         s.FYEGraceDays,
	}, nil
}

// TieBreakPolicy maps the configured tie-break name to the engine policy.
func (s Settings) TieBreakPolicy() (series.TieBreakPolicy, error) {
	switch s.TieBreak {
	case "", "latest":
		return series.PreferLatestFiled, nil
	case "first":
		return series.PreferFirstFiled, nil
	default:
		return series.PreferLatestFiled, fmt.Errorf("unknown tie_break policy %q (want \"latest\" or \"first\")", s.TieBreak)
	}
}
