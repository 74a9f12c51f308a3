// Package period resolves raw filing facts to canonical fiscal periods.
// It classifies each fact's reporting window as annual, quarterly or
// interim, labels it with a fiscal year and quarter relative to the
// entity's fiscal-year end, and records how trustworthy the resolution is.
package period

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type classifies the length of a reporting period.
type Type int

const (
	Unknown Type = iota
	Annual
	Quarterly
	Interim
)

func (t Type) String() string {
	switch t {
	case Annual:
		return "ANNUAL"
	case Quarterly:
		return "QUARTERLY"
	case Interim:
		return "INTERIM"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON encodes the type as its label so persisted series stay readable.
func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Type) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "ANNUAL":
		*t = Annual
	case "QUARTERLY":
		*t = Quarterly
	case "INTERIM":
		*t = Interim
	case "UNKNOWN":
		*t = Unknown
	default:
		return fmt.Errorf("unknown period type %q", s)
	}
	return nil
}

// Confidence grades a resolution. The ordering matters: a higher value wins
// deduplication, so EXACT > INFERRED > AMBIGUOUS.
type Confidence int

const (
	Ambiguous Confidence = iota // window did not fit any standard fiscal shape
	Inferred                    // derived from filing date and form type
	Exact                       // taken directly from the XBRL context
)

func (c Confidence) String() string {
	switch c {
	case Exact:
		return "EXACT"
	case Inferred:
		return "INFERRED"
	default:
		return "AMBIGUOUS"
	}
}

func (c Confidence) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Confidence) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "EXACT":
		*c = Exact
	case "INFERRED":
		*c = Inferred
	case "AMBIGUOUS":
		*c = Ambiguous
	default:
		return fmt.Errorf("unknown confidence %q", s)
	}
	return nil
}

// Resolved is the canonical fiscal period assigned to one fact.
// FiscalQuarter is set only for QUARTERLY and INTERIM periods (zero
// otherwise). Resolved values are never mutated after creation.
type Resolved struct {
	Type          Type       `json:"period_type"`
	FiscalYear    int        `json:"fiscal_year"`
	FiscalQuarter int        `json:"fiscal_quarter,omitempty"`
	Start         time.Time  `json:"period_start"`
	End           time.Time  `json:"period_end"`
	Confidence    Confidence `json:"confidence"`
}

// Equal reports whether two resolutions describe the same period with the
// same confidence. Used to detect exact re-ingestion of a fact.
func (r Resolved) Equal(o Resolved) bool {
	return r.Type == o.Type &&
		r.FiscalYear == o.FiscalYear &&
		r.FiscalQuarter == o.FiscalQuarter &&
		r.Start.Equal(o.Start) &&
		r.End.Equal(o.End) &&
		r.Confidence == o.Confidence
}

// Label renders a short human-readable period label, e.g. "FY2023" or
// "FY2023 Q1".
func (r Resolved) Label() string {
	if r.FiscalQuarter > 0 {
		return fmt.Sprintf("FY%d Q%d", r.FiscalYear, r.FiscalQuarter)
	}
	return fmt.Sprintf("FY%d", r.FiscalYear)
}
