package derived

import (
	"context"
	"log/slog"

	"github.com/fablehall/fablehall/server/internal/metrics"
	"github.com/fablehall/fablehall/store/cache"
)

// EntityKind identifies the mutated record kind of an invalidation event.
type EntityKind string

const (
	EntityStory        EntityKind = "story"
	EntityChapter      EntityKind = "chapter"
	EntityFollow       EntityKind = "follow"
	EntityBookmark     EntityKind = "bookmark"
	EntityNotification EntityKind = "notification"
	// EntityTaxonomy marks a rare administrative change to genres or status
	// tags; the whole cache namespace is dropped as a last resort.
	EntityTaxonomy EntityKind = "taxonomy"
)

// MutationKind identifies what happened to the entity.
type MutationKind string

const (
	MutationCreate       MutationKind = "create"
	MutationUpdate       MutationKind = "update"
	MutationDelete       MutationKind = "delete"
	MutationStatusChange MutationKind = "status-change"
)

// Event is a mutation descriptor handed to the invalidation router
// synchronously after a durable write commits. It is never produced for a
// write that failed.
type Event struct {
	Entity   EntityKind
	ID       int32
	Mutation MutationKind
	// RelatedID carries the second subject of the mutation: the parent
	// story for chapter events, the followee for follow events (ID is the
	// follower), and the bookmarked story for bookmark events (ID is the
	// owner; zero when unknown). Zero otherwise.
	RelatedID int32
}

// Invalidator maps mutation events to the cache keys and prefixes they
// poison. The fan-out table is static: listings are invalidated coarsely by
// prefix because pinpointing which cached page contains which story would
// require an index as expensive to maintain as the listing query itself.
type Invalidator struct {
	cache *cache.Cache
}

// NewInvalidator creates an invalidation router over the given cache.
// A nil cache yields a no-op router (fall-through mode).
func NewInvalidator(c *cache.Cache) *Invalidator {
	return &Invalidator{cache: c}
}

// Invalidate applies the fan-out for event. It is idempotent: deleting an
// already-absent key is a no-op, so replaying an event leaves the cache in
// the same state.
func (inv *Invalidator) Invalidate(ctx context.Context, event Event) {
	if inv == nil || inv.cache == nil {
		return
	}
	metrics.InvalidationEventsTotal.WithLabelValues(string(event.Entity), string(event.Mutation)).Inc()

	deleted := 0
	switch event.Entity {
	case EntityChapter:
		deleted = inv.invalidateChapter(ctx, event.ID, event.RelatedID)
	case EntityStory:
		deleted = inv.invalidateStory(ctx, event.ID)
	case EntityFollow:
		deleted = inv.invalidateFollow(ctx, event.ID, event.RelatedID)
	case EntityBookmark:
		deleted = inv.invalidateBookmark(ctx, event.ID, event.RelatedID)
	case EntityNotification:
		deleted = inv.invalidateNotification(ctx, event.ID)
	case EntityTaxonomy:
		inv.cache.Clear(ctx)
		slog.Warn("taxonomy change dropped entire derived cache")
	default:
		slog.Warn("unknown invalidation entity", slog.String("entity", string(event.Entity)))
		return
	}
	metrics.InvalidationDeletesTotal.Add(float64(deleted))
}

func (inv *Invalidator) invalidateChapter(ctx context.Context, chapterID, storyID int32) int {
	for _, key := range []string{
		keyChapterViews(chapterID),
		keyChapterRating(chapterID),
	} {
		inv.cache.Delete(ctx, key)
	}
	// Every chapter mutation poisons the parent story's aggregates.
	return 2 + inv.invalidateStory(ctx, storyID)
}

func (inv *Invalidator) invalidateStory(ctx context.Context, storyID int32) int {
	for _, key := range []string{
		keyChapterCount(storyID),
		keyWordCount(storyID),
		keyStoryValid(storyID),
		keyStoryRating(storyID),
		keyChapterList(storyID),
	} {
		inv.cache.Delete(ctx, key)
	}
	deleted := 5
	// Listings are dropped wholesale rather than patched; the listing query
	// is cheap to recompute.
	deleted += inv.cache.DeleteByPrefix(ctx, prefixRecentStories)
	deleted += inv.cache.DeleteByPrefix(ctx, prefixGenreListing)
	deleted += inv.cache.DeleteByPrefix(ctx, prefixStatusListing)
	return deleted
}

func (inv *Invalidator) invalidateFollow(ctx context.Context, followerID, followeeID int32) int {
	for _, key := range []string{
		keyFollowerCount(followerID),
		keyFollowerCount(followeeID),
		keyFollowingCount(followerID),
		keyFollowingCount(followeeID),
		keyFollowStatus(followerID, followeeID),
		// Follower/following counts are embedded in the profile aggregate.
		keyProfile(followerID),
		keyProfile(followeeID),
	} {
		inv.cache.Delete(ctx, key)
	}
	deleted := 7
	deleted += inv.cache.DeleteByPrefix(ctx, prefixFollowerList(followeeID))
	deleted += inv.cache.DeleteByPrefix(ctx, prefixFollowingList(followerID))
	deleted += inv.cache.DeleteByPrefix(ctx, prefixTopAuthors)
	return deleted
}

func (inv *Invalidator) invalidateBookmark(ctx context.Context, userID, storyID int32) int {
	inv.cache.Delete(ctx, keyBookmarkCount(userID))
	deleted := 1
	if storyID != 0 {
		inv.cache.Delete(ctx, keyBookmarkStatus(userID, storyID))
		deleted++
	}
	deleted += inv.cache.DeleteByPrefix(ctx, prefixBookmarkPages(userID))
	deleted += inv.cache.DeleteByPrefix(ctx, prefixMostBookmarked)
	return deleted
}

func (inv *Invalidator) invalidateNotification(ctx context.Context, userID int32) int {
	inv.cache.Delete(ctx, keyUnreadCount(userID))
	return 1 + inv.cache.DeleteByPrefix(ctx, prefixNotificationPages(userID))
}
