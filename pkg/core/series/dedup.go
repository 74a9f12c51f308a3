package series

// supersedes decides whether a challenger replaces the incumbent entry for
// one canonical period key.
//
// Tie-break order: (1) resolution confidence, EXACT > INFERRED > AMBIGUOUS;
// (2) filing recency per the policy (later filings supersede earlier ones by
// default, modeling restatements); (3) form authority, 10-K > 10-Q > 8-K >
// others. A full tie keeps the incumbent, which also makes re-ingesting an
// already-known batch a no-op.
func supersedes(incumbent, challenger Entry, policy TieBreakPolicy) bool {
	if challenger.Period.Confidence != incumbent.Period.Confidence {
		return challenger.Period.Confidence > incumbent.Period.Confidence
	}
	if !challenger.FilingDate.Equal(incumbent.FilingDate) {
		if policy == PreferFirstFiled {
			return challenger.FilingDate.Before(incumbent.FilingDate)
		}
		return challenger.FilingDate.After(incumbent.FilingDate)
	}
	if cr, ir := challenger.FilingType.AuthorityRank(), incumbent.FilingType.AuthorityRank(); cr != ir {
		return cr > ir
	}
	return false
}

// sameObservation reports whether the challenger is the exact fact already
// held (same filing, value and resolution). Such re-ingestions are dropped
// outright instead of being recorded as provenance, so ingesting a filing
// twice leaves the series byte-identical.
func sameObservation(incumbent, challenger Entry) bool {
	return incumbent.SourceFilingID == challenger.SourceFilingID &&
		incumbent.Value == challenger.Value &&
		incumbent.Unit == challenger.Unit &&
		incumbent.FilingDate.Equal(challenger.FilingDate) &&
		incumbent.FilingType == challenger.FilingType &&
		incumbent.Period.Equal(challenger.Period)
}

// alreadyRecorded reports whether an identical superseded-value record is
// already present. Re-ingesting a filing that previously lost deduplication
// must not grow the provenance list.
func alreadyRecorded(superseded []Provenance, p Provenance) bool {
	for _, s := range superseded {
		if s.SourceFilingID == p.SourceFilingID &&
			s.Value == p.Value &&
			s.FilingDate.Equal(p.FilingDate) &&
			s.FilingType == p.FilingType &&
			s.Confidence == p.Confidence {
			return true
		}
	}
	return false
}

// provenanceOf snapshots an entry as a superseded-value record.
func provenanceOf(e Entry) Provenance {
	return Provenance{
		Value:          e.Value,
		SourceFilingID: e.SourceFilingID,
		FilingDate:     e.FilingDate,
		FilingType:     e.FilingType,
		Confidence:     e.Period.Confidence,
	}
}
