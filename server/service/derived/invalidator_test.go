package derived

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fablehall/fablehall/store/cache"
)

func seededCache(t *testing.T, keys ...string) *cache.Cache {
	t.Helper()
	c := cache.New(cache.Config{
		DefaultTTL:      time.Minute,
		CleanupInterval: time.Minute,
	})
	t.Cleanup(func() { c.Close() })
	for _, key := range keys {
		c.Set(context.Background(), key, "stale")
	}
	return c
}

func TestInvalidateChapterCascadesToStory(t *testing.T) {
	ctx := context.Background()
	c := seededCache(t,
		keyChapterViews(11),
		keyChapterRating(11),
		keyChapterCount(7),
		keyWordCount(7),
		keyStoryValid(7),
		keyChapterList(7),
		keyRecentStories(1, 10),
		// A different story's keys must survive.
		keyChapterCount(8),
		keyChapterViews(12),
	)

	NewInvalidator(c).Invalidate(ctx, Event{Entity: EntityChapter, ID: 11, Mutation: MutationUpdate, RelatedID: 7})

	for _, gone := range []string{
		keyChapterViews(11), keyChapterRating(11),
		keyChapterCount(7), keyWordCount(7), keyStoryValid(7),
		keyChapterList(7), keyRecentStories(1, 10),
	} {
		_, found := c.Get(ctx, gone)
		require.False(t, found, "key %s should be invalidated", gone)
	}
	for _, kept := range []string{keyChapterCount(8), keyChapterViews(12)} {
		_, found := c.Get(ctx, kept)
		require.True(t, found, "key %s should survive", kept)
	}
}

func TestInvalidateStoryDropsListingsByPrefix(t *testing.T) {
	ctx := context.Background()
	keys := []string{}
	for page := 1; page <= 5; page++ {
		keys = append(keys,
			keyRecentStories(page, 10),
			keyGenreListing(3, page, 15),
			keyStatusListing(2, page, 20),
		)
	}
	c := seededCache(t, keys...)

	NewInvalidator(c).Invalidate(ctx, Event{Entity: EntityStory, ID: 7, Mutation: MutationStatusChange})

	require.Equal(t, 0, c.Len())
}

func TestInvalidateFollowTouchesBothParties(t *testing.T) {
	ctx := context.Background()
	c := seededCache(t,
		keyFollowerCount(2),
		keyFollowingCount(1),
		keyFollowStatus(1, 2),
		keyProfile(1),
		keyProfile(2),
		keyFollowerList(2, 1, 10),
		keyFollowingList(1, 3, 15),
		keyTopAuthors(10),
		// Unrelated user untouched.
		keyFollowerCount(9),
	)

	NewInvalidator(c).Invalidate(ctx, Event{Entity: EntityFollow, ID: 1, Mutation: MutationCreate, RelatedID: 2})

	_, found := c.Get(ctx, keyFollowerCount(9))
	require.True(t, found)
	require.Equal(t, 1, c.Len())
}

func TestInvalidateBookmarkWithoutStory(t *testing.T) {
	ctx := context.Background()
	c := seededCache(t,
		keyBookmarkCount(4),
		keyBookmarkPage(4, 1, 10),
		keyBookmarkPage(4, 2, 10),
		keyMostBookmarked(10),
	)

	// RelatedID zero means the mutated story is unknown; per-story status
	// keys are left to expire on their own.
	NewInvalidator(c).Invalidate(ctx, Event{Entity: EntityBookmark, ID: 4, Mutation: MutationDelete})

	require.Equal(t, 0, c.Len())
}

func TestInvalidateTaxonomyClearsEverything(t *testing.T) {
	ctx := context.Background()
	c := seededCache(t, keyChapterCount(7), keyProfile(1), keyUnreadCount(4))

	NewInvalidator(c).Invalidate(ctx, Event{Entity: EntityTaxonomy, ID: 3, Mutation: MutationUpdate})

	require.Equal(t, 0, c.Len())
}

func TestInvalidateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c := seededCache(t, keyUnreadCount(4), keyNotificationPage(4, 1, 10), keyChapterCount(7))

	event := Event{Entity: EntityNotification, ID: 4, Mutation: MutationCreate}
	inv := NewInvalidator(c)
	inv.Invalidate(ctx, event)
	lenAfterFirst := c.Len()
	inv.Invalidate(ctx, event)
	require.Equal(t, lenAfterFirst, c.Len())
	_, found := c.Get(ctx, keyChapterCount(7))
	require.True(t, found)
}

func TestInvalidateNilCacheIsNoop(t *testing.T) {
	// Fall-through mode must never panic.
	NewInvalidator(nil).Invalidate(context.Background(), Event{Entity: EntityStory, ID: 7, Mutation: MutationUpdate})

	var inv *Invalidator
	inv.Invalidate(context.Background(), Event{Entity: EntityStory, ID: 7, Mutation: MutationUpdate})
}
