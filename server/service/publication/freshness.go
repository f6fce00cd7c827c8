package publication

import "time"

// OngoingCutoff is how recently a story's content must have changed for it
// to remain eligible for the "ongoing" status tag.
const OngoingCutoff = 90 * 24 * time.Hour

// Freshness owns the content-updated marker. The marker and the ongoing
// eligibility check share one timestamp, so both decisions live here.
type Freshness struct{}

// QualifiesAsUpdate reports whether an edit advances the story's
// content-updated marker. Only a substantive content change qualifies; a
// date-only or metadata-only edit preserves the prior marker, so it can
// never count as a content update for the ongoing eligibility check.
func (Freshness) QualifiesAsUpdate(oldContent, newContent string) bool {
	return SignificantChange(oldContent, newContent)
}

// OngoingEligible reports whether a story whose content last changed at
// contentUpdatedTs (unix seconds) can carry the ongoing status.
func (Freshness) OngoingEligible(contentUpdatedTs int64, now time.Time) bool {
	if contentUpdatedTs == 0 {
		return false
	}
	return now.Sub(time.Unix(contentUpdatedTs, 0)) <= OngoingCutoff
}
