package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"edgar_dashboard/pkg/core/series"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadSettingsOverlaysDefaults(t *testing.T) {
	path := writeTemp(t, "settings.hjson", `{
		# loosen the annual band for 53-week filers
		annual_tolerance_days: 14
		tie_break: first
		workers: 8
	}`)

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if s.AnnualToleranceDays != 14 {
		t.Errorf("Override lost: expected annual_tolerance_days 14, got %d", s.AnnualToleranceDays)
	}
	if s.AnnualDays != 365 || s.QuarterDays != 90 || s.FYEGraceDays != 10 {
		t.Errorf("Unset fields must keep defaults, got %+v", s)
	}
	if s.Workers != 8 {
		t.Errorf("Expected workers 8, got %d", s.Workers)
	}

	policy, err := s.TieBreakPolicy()
	if err != nil {
		t.Fatalf("TieBreakPolicy failed: %v", err)
	}
	if policy != series.PreferFirstFiled {
		t.Errorf("Expected PreferFirstFiled for tie_break \"first\", got %v", policy)
	}
}

func TestLoadSettingsHonorsExplicitZero(t *testing.T) {
	// Stating zero must stick, not fall back to the default. A filer on a
	// strict calendar can disable the 52/53-week grace window this way.
	path := writeTemp(t, "settings.hjson", `{
		fye_grace_days: 0
	}`)

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if s.FYEGraceDays != 0 {
		t.Errorf("Explicit fye_grace_days 0 lost: got %d", s.FYEGraceDays)
	}
	if s.AnnualDays != 365 || s.Workers != 4 {
		t.Errorf("Omitted fields must keep defaults, got %+v", s)
	}
}

func TestLoadSettingsMissingFileUsesDefaults(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "absent.hjson"))
	if err != nil {
		t.Fatalf("A missing settings file is not an error, got: %v", err)
	}
	if s != DefaultSettings() {
		t.Errorf("Expected pure defaults, got %+v", s)
	}
}

func TestTieBreakPolicyRejectsUnknown(t *testing.T) {
	s := DefaultSettings()
	s.TieBreak = "newest-ish"
	if _, err := s.TieBreakPolicy(); err == nil {
		t.Error("Unknown tie_break value must be rejected")
	}
}

func TestLoadRegistry(t *testing.T) {
	path := writeTemp(t, "registry.yaml", `entities:
  - ticker: AAPL
    cik: "0000320193"
    fiscal_year_end: "09-30"
  - ticker: MSFT
    cik: "0000789019"
    fiscal_year_end: "06-30"
  - ticker: JPM
    cik: "0000019617"
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}
	if len(reg.Entities) != 3 {
		t.Fatalf("Expected 3 entities, got %d", len(reg.Entities))
	}

	aapl, ok := reg.Lookup("aapl")
	if !ok {
		t.Fatal("Lookup must be case-insensitive")
	}
	month, day, err := aapl.FiscalYearEndDate()
	if err != nil {
		t.Fatalf("FiscalYearEndDate failed: %v", err)
	}
	if month != time.September || day != 30 {
		t.Errorf("Expected September 30, got %s %d", month, day)
	}

	// No fiscal_year_end configured: calendar year assumed.
	jpm, _ := reg.Lookup("JPM")
	month, day, err = jpm.FiscalYearEndDate()
	if err != nil {
		t.Fatalf("FiscalYearEndDate failed: %v", err)
	}
	if month != time.December || day != 31 {
		t.Errorf("Expected December 31 default, got %s %d", month, day)
	}

	if _, ok := reg.Lookup("TSLA"); ok {
		t.Error("Lookup must miss unregistered tickers")
	}
}

func TestLoadRegistryRejectsBadFiscalYearEnd(t *testing.T) {
	path := writeTemp(t, "registry.yaml", `entities:
  - ticker: BAD
    cik: "0000000001"
    fiscal_year_end: "13-45"
`)
	if _, err := LoadRegistry(path); err == nil {
		t.Error("Invalid MM-DD must be rejected at load time")
	}
}

func TestPeriodConfigCarriesEntityCalendar(t *testing.T) {
	s := DefaultSettings()
	cfg, err := s.PeriodConfig(Entity{Ticker: "AAPL", FiscalYearEnd: "09-30"})
	if err != nil {
		t.Fatalf("PeriodConfig failed: %v", err)
	}
	if cfg.FiscalYearEndMonth != time.September || cfg.FiscalYearEndDay != 30 {
		t.Errorf("Fiscal calendar lost: %+v", cfg)
	}
	if cfg.AnnualDays != 365 || cfg.QuarterToleranceDays != 10 {
		t.Errorf("Tolerances lost: %+v", cfg)
	}
}
