package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Entity is one registry row: the entity identity plus the fiscal calendar
// the resolver needs. FiscalYearEnd is "MM-DD"; empty means a calendar year
// (December 31).
type Entity struct {
	Ticker        string `yaml:"ticker"`
	CIK           string `yaml:"cik"`
	FiscalYearEnd string `yaml:"fiscal_year_end"`
}

// Registry is the YAML entity registry. Fiscal-year ends are not derivable
// from filings alone, so they are required configuration input per entity.
type Registry struct {
	Entities []Entity `yaml:"entities"`
}

// LoadRegistry reads and validates a YAML entity registry.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry %s: %w", path, err)
	}
	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse registry %s: %w", path, err)
	}
	for _, e := range reg.Entities {
		if e.Ticker == "" {
			return nil, fmt.Errorf("registry %s: entity with empty ticker", path)
		}
		if _, _, err := e.FiscalYearEndDate(); err != nil {
			return nil, fmt.Errorf("registry %s: entity %s: %w", path, e.Ticker, err)
		}
	}
	return &reg, nil
}

// Lookup finds an entity by ticker, case-insensitively.
func (r *Registry) Lookup(ticker string) (Entity, bool) {
	for _, e := range r.Entities {
		if strings.EqualFold(e.Ticker, ticker) {
			return e, true
		}
	}
	return Entity{}, false
}

// FiscalYearEndDate parses the "MM-DD" fiscal-year end. An empty value
// defaults to December 31.
func (e Entity) FiscalYearEndDate() (time.Month, int, error) {
	if e.FiscalYearEnd == "" {
		return time.December, 31, nil
	}
	t, err := time.Parse("01-02", e.FiscalYearEnd)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid fiscal_year_end %q (want MM-DD): %w", e.FiscalYearEnd, err)
	}
	return t.Month(), t.Day(), nil
}
