package publication

import (
	"strings"
	"time"
)

const displayDateLayout = "2006-01-02"

// shortTextLimit bounds the texts compared by edit distance. Longer texts
// fall back to the length-delta heuristic.
const shortTextLimit = 5000

// ValidateDisplayDate checks that value is a calendar date (YYYY-MM-DD,
// no time of day) not later than today. It runs before any content
// comparison.
func ValidateDisplayDate(value string, today time.Time) error {
	parsed, err := time.Parse(displayDateLayout, value)
	if err != nil {
		return &DateGuardError{Reason: "publication date must be a valid YYYY-MM-DD date"}
	}
	if parsed.Format(displayDateLayout) != value {
		return &DateGuardError{Reason: "publication date must be a valid YYYY-MM-DD date"}
	}
	if value > today.Format(displayDateLayout) {
		return &DateGuardError{Reason: "publication date cannot be in the future"}
	}
	return nil
}

// EvaluateChapterDate gates a chapter's display-date change. Backdating is
// always permitted. Moving the date forward requires the content to have
// significantly changed, so stale chapters cannot be pushed back up the
// recently-updated rankings.
func EvaluateChapterDate(oldContent, newContent, oldDate, newDate string, today time.Time) error {
	if newDate == oldDate {
		return nil
	}
	if err := ValidateDisplayDate(newDate, today); err != nil {
		return err
	}
	if oldDate == "" || newDate < oldDate {
		return nil
	}
	if !SignificantChange(oldContent, newContent) {
		return &DateGuardError{Reason: "moving the publication date forward requires a substantial content update"}
	}
	return nil
}

// EvaluateStoryDate gates a story's display-date change. Story freshness is
// driven only by chapter activity, so a forward move is never allowed here;
// backdating stays open for imported work.
func EvaluateStoryDate(oldDate, newDate string, today time.Time) error {
	if newDate == oldDate {
		return nil
	}
	if err := ValidateDisplayDate(newDate, today); err != nil {
		return err
	}
	if oldDate != "" && newDate > oldDate {
		return &DateGuardError{Reason: "a story's publication date cannot be moved forward; update a chapter instead"}
	}
	return nil
}

// SignificantChange reports whether newContent is a substantive edit of
// oldContent. Both texts are whitespace-normalized first. Short texts are
// compared by character similarity; long texts by relative length delta,
// trading precision for bounded cost.
func SignificantChange(oldContent, newContent string) bool {
	oldNorm := normalizeText(oldContent)
	newNorm := normalizeText(newContent)

	if oldNorm == newNorm {
		return false
	}
	if oldNorm == "" || newNorm == "" {
		return true
	}

	oldRunes := []rune(oldNorm)
	newRunes := []rune(newNorm)
	if len(oldRunes) < shortTextLimit && len(newRunes) < shortTextLimit {
		return similarity(oldRunes, newRunes) < 0.9
	}

	longer := len(oldRunes)
	if len(newRunes) > longer {
		longer = len(newRunes)
	}
	delta := len(oldRunes) - len(newRunes)
	if delta < 0 {
		delta = -delta
	}
	return float64(delta)/float64(longer) >= 0.1
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// similarity is 1 minus the normalized Levenshtein distance, computed with
// a two-row table.
func similarity(a, b []rune) float64 {
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	if longer == 0 {
		return 1
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return 1 - float64(prev[len(b)])/float64(longer)
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
