// Package derived maintains the cached projections of story, user and
// notification statistics: cache keys and their TTL classes, the
// invalidation fan-out triggered by mutations, and the cache-backed
// aggregate readers.
package derived

import (
	"fmt"
	"time"
)

// TTL classes, by data volatility. TTLs are domain-specific and hard-coded
// per data kind; this is not a configurable cache protocol.
const (
	// ttlVolatile covers unread-notification counts and negative-lookup
	// placeholders. Short enough that a later-created record is not masked
	// for long.
	ttlVolatile = 1 * time.Minute
	// ttlNotificationList covers paginated notification pages.
	ttlNotificationList = 2 * time.Minute
	// ttlEngagement covers ratings, profile aggregates, follow-status
	// booleans and bookmark state.
	ttlEngagement = 5 * time.Minute
	// ttlSocial covers follower/following counts and lists, and the
	// recent-stories snapshot.
	ttlSocial = 10 * time.Minute
	// ttlCounts covers story/author counts and leaderboards.
	ttlCounts = 30 * time.Minute
	// ttlListing covers chapter lists and genre/status story listings.
	ttlListing = 1 * time.Hour
	// ttlStructural covers chapter counts, word counts and validity flags,
	// which change only on publication transitions.
	ttlStructural = 6 * time.Hour
)

// PageSizes is the enumerated set of allowed page sizes for paginated
// cached data. Bounding the set bounds the invalidation surface.
var PageSizes = []int{10, 15, 20}

// ClampPageSize maps an arbitrary requested page size onto the enumerated
// set, so that cache keys stay deterministic and bounded.
func ClampPageSize(size int) int {
	best := PageSizes[0]
	for _, allowed := range PageSizes[1:] {
		if abs(size-allowed) < abs(size-best) {
			best = allowed
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Key builders. The layout is <kind>_<id>[_<page>_<pageSize>]; every
// per-subject paginated family shares a per-subject prefix so a single
// prefix delete covers all of its pages, however deep.

func keyChapterCount(storyID int32) string  { return fmt.Sprintf("chaptercount_%d", storyID) }
func keyWordCount(storyID int32) string     { return fmt.Sprintf("wordcount_%d", storyID) }
func keyStoryValid(storyID int32) string    { return fmt.Sprintf("storyvalid_%d", storyID) }
func keyStoryRating(storyID int32) string   { return fmt.Sprintf("storyrating_%d", storyID) }
func keyChapterList(storyID int32) string   { return fmt.Sprintf("chapterlist_%d", storyID) }
func keyChapterViews(chapterID int32) string  { return fmt.Sprintf("chapterviews_%d", chapterID) }
func keyChapterRating(chapterID int32) string { return fmt.Sprintf("chapterrating_%d", chapterID) }

func keyAuthorStoryCount(userID int32) string { return fmt.Sprintf("storycount_%d", userID) }

func keyRecentStories(page, pageSize int) string {
	return fmt.Sprintf("%s%d_%d", prefixRecentStories, page, pageSize)
}
func keyGenreListing(genreID int32, page, pageSize int) string {
	return fmt.Sprintf("%s%d_%d_%d", prefixGenreListing, genreID, page, pageSize)
}
func keyStatusListing(statusTagID int32, page, pageSize int) string {
	return fmt.Sprintf("%s%d_%d_%d", prefixStatusListing, statusTagID, page, pageSize)
}

func keyProfile(userID int32) string        { return fmt.Sprintf("profile_%d", userID) }
func keyUserNotFound(username string) string { return "usernotfound_" + username }

func keyFollowerCount(userID int32) string  { return fmt.Sprintf("followercount_%d", userID) }
func keyFollowingCount(userID int32) string { return fmt.Sprintf("followingcount_%d", userID) }
func keyFollowStatus(followerID, followeeID int32) string {
	return fmt.Sprintf("followstatus_%d_%d", followerID, followeeID)
}
func keyFollowerList(userID int32, page, pageSize int) string {
	return fmt.Sprintf("%s%d_%d", prefixFollowerList(userID), page, pageSize)
}
func keyFollowingList(userID int32, page, pageSize int) string {
	return fmt.Sprintf("%s%d_%d", prefixFollowingList(userID), page, pageSize)
}

func keyBookmarkCount(userID int32) string { return fmt.Sprintf("bookmarkcount_%d", userID) }
func keyBookmarkStatus(userID, storyID int32) string {
	return fmt.Sprintf("bookmarkstatus_%d_%d", userID, storyID)
}
func keyBookmarkPage(userID int32, page, pageSize int) string {
	return fmt.Sprintf("%s%d_%d", prefixBookmarkPages(userID), page, pageSize)
}

func keyUnreadCount(userID int32) string { return fmt.Sprintf("unreadcount_%d", userID) }
func keyNotificationPage(userID int32, page, pageSize int) string {
	return fmt.Sprintf("%s%d_%d", prefixNotificationPages(userID), page, pageSize)
}

func keyTopAuthors(limit int) string     { return fmt.Sprintf("%s%d", prefixTopAuthors, limit) }
func keyMostBookmarked(limit int) string { return fmt.Sprintf("%s%d", prefixMostBookmarked, limit) }

// Prefixes for coarse (delete-by-prefix) invalidation.
const (
	prefixRecentStories  = "recentstories_"
	prefixGenreListing   = "genrelisting_"
	prefixStatusListing  = "statuslisting_"
	prefixTopAuthors     = "topauthors_"
	prefixMostBookmarked = "mostbookmarked_"
)

func prefixFollowerList(userID int32) string      { return fmt.Sprintf("followerlist_%d_", userID) }
func prefixFollowingList(userID int32) string     { return fmt.Sprintf("followinglist_%d_", userID) }
func prefixBookmarkPages(userID int32) string     { return fmt.Sprintf("bookmarkpage_%d_", userID) }
func prefixNotificationPages(userID int32) string { return fmt.Sprintf("notifpage_%d_", userID) }
