package derived

import (
	"context"
)

// StatKind identifies the subject kind of a statistics lookup.
type StatKind string

const (
	StatStory   StatKind = "story"
	StatChapter StatKind = "chapter"
)

// StatisticsProvider is an optional capability supplying view counters and
// reader ratings, typically backed by a separate analytics deployment.
// It is bound once at startup; a nil provider means the capability is
// absent and aggregates report zero views and an unrated score.
type StatisticsProvider interface {
	ViewCount(ctx context.Context, kind StatKind, id int32) (int64, error)
	Rating(ctx context.Context, kind StatKind, id int32) (float64, error)
}
