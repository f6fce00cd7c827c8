package derived

import (
	"context"
	"log/slog"
	"time"

	"github.com/fablehall/fablehall/plugin/markdown"
	"github.com/fablehall/fablehall/server/internal/metrics"
	"github.com/fablehall/fablehall/store"
	"github.com/fablehall/fablehall/store/cache"
)

// Store is the interface for store operations needed by the aggregate readers.
type Store interface {
	GetStory(ctx context.Context, find *store.FindStory) (*store.Story, error)
	ListStories(ctx context.Context, find *store.FindStory) ([]*store.Story, error)
	CountStories(ctx context.Context, find *store.FindStory) (int, error)
	ListChapters(ctx context.Context, find *store.FindChapter) ([]*store.Chapter, error)
	CountChapters(ctx context.Context, find *store.FindChapter) (int, error)
	GetUser(ctx context.Context, find *store.FindUser) (*store.User, error)
	ListFollows(ctx context.Context, find *store.FindFollow) ([]*store.Follow, error)
	CountFollows(ctx context.Context, find *store.FindFollow) (int, error)
	TopAuthors(ctx context.Context, limit int) ([]*store.RankedUser, error)
	ListBookmarks(ctx context.Context, find *store.FindBookmark) ([]*store.Bookmark, error)
	CountBookmarks(ctx context.Context, find *store.FindBookmark) (int, error)
	MostBookmarkedStories(ctx context.Context, limit int) ([]*store.RankedStory, error)
	ListNotifications(ctx context.Context, find *store.FindNotification) ([]*store.Notification, error)
	CountNotifications(ctx context.Context, find *store.FindNotification) (int, error)
}

// StoryAggregate is the cache-backed statistics bundle for one story.
type StoryAggregate struct {
	ViewCount    int64   `json:"viewCount"`
	ChapterCount int     `json:"chapterCount"`
	WordCount    int     `json:"wordCount"`
	Rating       float64 `json:"rating"`
	IsValid      bool    `json:"isValid"`
}

// Profile is the cache-backed aggregate for one user.
type Profile struct {
	User           *store.User `json:"user"`
	StoryCount     int         `json:"storyCount"`
	FollowerCount  int         `json:"followerCount"`
	FollowingCount int         `json:"followingCount"`
}

// Reader computes derived statistics from the durable store, consulting the
// cache first. Readers are pure: a read never mutates durable state.
//
// A nil cache puts the reader in fall-through mode: every read recomputes
// from the store. Cache unavailability is a performance cost, never a
// correctness cost.
type Reader struct {
	store    Store
	cache    *cache.Cache
	markdown markdown.Service
	stats    StatisticsProvider
}

// NewReader creates an aggregate reader. stats may be nil when no
// statistics provider is deployed.
func NewReader(st Store, c *cache.Cache, md markdown.Service, stats StatisticsProvider) *Reader {
	return &Reader{
		store:    st,
		cache:    c,
		markdown: md,
		stats:    stats,
	}
}

// readThrough consults the cache under key, recomputing and repopulating
// with ttl on a miss. Concurrent cold reads may both recompute; the value
// is a pure function of durable state so the duplicate work is harmless.
func readThrough[T any](ctx context.Context, r *Reader, kind, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	if r.cache != nil {
		if raw, found := r.cache.Get(ctx, key); found {
			if value, ok := raw.(T); ok {
				metrics.CacheHitsTotal.WithLabelValues(kind).Inc()
				return value, nil
			}
		}
		metrics.CacheMissesTotal.WithLabelValues(kind).Inc()
	}

	value, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if r.cache != nil {
		r.cache.SetWithTTL(ctx, key, value, ttl)
	}
	return value, nil
}

// GetStoryAggregate returns the statistics bundle for a story. Each piece
// is cached under its own kind-specific TTL.
func (r *Reader) GetStoryAggregate(ctx context.Context, storyID int32) (*StoryAggregate, error) {
	chapterCount, err := r.GetChapterCount(ctx, storyID)
	if err != nil {
		return nil, err
	}
	wordCount, err := r.GetWordCount(ctx, storyID)
	if err != nil {
		return nil, err
	}
	isValid, err := r.GetStoryValid(ctx, storyID)
	if err != nil {
		return nil, err
	}
	rating, err := r.GetStoryRating(ctx, storyID)
	if err != nil {
		return nil, err
	}

	aggregate := &StoryAggregate{
		ChapterCount: chapterCount,
		WordCount:    wordCount,
		Rating:       rating,
		IsValid:      isValid,
	}
	if r.stats != nil {
		views, err := r.stats.ViewCount(ctx, StatStory, storyID)
		if err != nil {
			// The statistics backend is best-effort; a failed lookup
			// degrades to zero views rather than failing the aggregate.
			slog.Warn("statistics provider view count failed", slog.String("error", err.Error()))
		} else {
			aggregate.ViewCount = views
		}
	}
	return aggregate, nil
}

// GetChapterCount returns the number of published chapters of a story.
func (r *Reader) GetChapterCount(ctx context.Context, storyID int32) (int, error) {
	return readThrough(ctx, r, "chaptercount", keyChapterCount(storyID), ttlStructural, func(ctx context.Context) (int, error) {
		published := store.Published
		return r.store.CountChapters(ctx, &store.FindChapter{StoryID: &storyID, Status: &published})
	})
}

// GetWordCount returns the total word count over the published chapters of
// a story, measured on the rendered plain text.
func (r *Reader) GetWordCount(ctx context.Context, storyID int32) (int, error) {
	return readThrough(ctx, r, "wordcount", keyWordCount(storyID), ttlStructural, func(ctx context.Context) (int, error) {
		published := store.Published
		chapters, err := r.store.ListChapters(ctx, &store.FindChapter{StoryID: &storyID, Status: &published})
		if err != nil {
			return 0, err
		}
		total := 0
		for _, chapter := range chapters {
			total += r.markdown.WordCount(chapter.Content)
		}
		return total, nil
	})
}

// GetStoryValid reports whether a story satisfies the published-story
// invariant: non-empty introduction, at least one published chapter, at
// least one genre, exactly one status tag.
func (r *Reader) GetStoryValid(ctx context.Context, storyID int32) (bool, error) {
	return readThrough(ctx, r, "storyvalid", keyStoryValid(storyID), ttlStructural, func(ctx context.Context) (bool, error) {
		story, err := r.store.GetStory(ctx, &store.FindStory{ID: &storyID})
		if err != nil {
			return false, err
		}
		if story == nil {
			return false, nil
		}
		if story.Introduction == "" || len(story.GenreIDs) == 0 || story.StatusTagID == nil {
			return false, nil
		}
		published := store.Published
		count, err := r.store.CountChapters(ctx, &store.FindChapter{StoryID: &storyID, Status: &published})
		if err != nil {
			return false, err
		}
		return count > 0, nil
	})
}

// GetStoryRating returns the reader rating of a story, or 0 when no
// statistics provider is bound.
func (r *Reader) GetStoryRating(ctx context.Context, storyID int32) (float64, error) {
	if r.stats == nil {
		return 0, nil
	}
	return readThrough(ctx, r, "storyrating", keyStoryRating(storyID), ttlEngagement, func(ctx context.Context) (float64, error) {
		return r.stats.Rating(ctx, StatStory, storyID)
	})
}

// GetChapterRating returns the reader rating of a chapter, or 0 when no
// statistics provider is bound.
func (r *Reader) GetChapterRating(ctx context.Context, chapterID int32) (float64, error) {
	if r.stats == nil {
		return 0, nil
	}
	return readThrough(ctx, r, "chapterrating", keyChapterRating(chapterID), ttlEngagement, func(ctx context.Context) (float64, error) {
		return r.stats.Rating(ctx, StatChapter, chapterID)
	})
}

// GetChapterViews returns the view count of a chapter, or 0 when no
// statistics provider is bound.
func (r *Reader) GetChapterViews(ctx context.Context, chapterID int32) (int64, error) {
	if r.stats == nil {
		return 0, nil
	}
	return readThrough(ctx, r, "chapterviews", keyChapterViews(chapterID), ttlEngagement, func(ctx context.Context) (int64, error) {
		return r.stats.ViewCount(ctx, StatChapter, chapterID)
	})
}

// GetChapterList returns the chapters of a story without content bodies,
// ordered by chapter number. publishedOnly limits to published chapters.
func (r *Reader) GetChapterList(ctx context.Context, storyID int32, publishedOnly bool) ([]*store.Chapter, error) {
	if !publishedOnly {
		// The author-facing list including drafts is not cached; it must
		// reflect in-progress edits immediately.
		return r.store.ListChapters(ctx, &store.FindChapter{StoryID: &storyID, ExcludeContent: true})
	}
	return readThrough(ctx, r, "chapterlist", keyChapterList(storyID), ttlListing, func(ctx context.Context) ([]*store.Chapter, error) {
		published := store.Published
		return r.store.ListChapters(ctx, &store.FindChapter{StoryID: &storyID, Status: &published, ExcludeContent: true})
	})
}

// GetRecentStories returns the ids of recently content-updated published
// stories for one page.
func (r *Reader) GetRecentStories(ctx context.Context, page, pageSize int) ([]int32, error) {
	pageSize = ClampPageSize(pageSize)
	return readThrough(ctx, r, "recentstories", keyRecentStories(page, pageSize), ttlSocial, func(ctx context.Context) ([]int32, error) {
		return r.listStoryIDs(ctx, &store.FindStory{OrderByContentUpdated: true}, page, pageSize)
	})
}

// GetGenreListing returns the ids of published stories in a genre for one page.
func (r *Reader) GetGenreListing(ctx context.Context, genreID int32, page, pageSize int) ([]int32, error) {
	pageSize = ClampPageSize(pageSize)
	return readThrough(ctx, r, "genrelisting", keyGenreListing(genreID, page, pageSize), ttlListing, func(ctx context.Context) ([]int32, error) {
		return r.listStoryIDs(ctx, &store.FindStory{GenreID: &genreID, OrderByContentUpdated: true}, page, pageSize)
	})
}

// GetStatusListing returns the ids of published stories carrying a status
// tag for one page.
func (r *Reader) GetStatusListing(ctx context.Context, statusTagID int32, page, pageSize int) ([]int32, error) {
	pageSize = ClampPageSize(pageSize)
	return readThrough(ctx, r, "statuslisting", keyStatusListing(statusTagID, page, pageSize), ttlListing, func(ctx context.Context) ([]int32, error) {
		return r.listStoryIDs(ctx, &store.FindStory{StatusTagID: &statusTagID, OrderByContentUpdated: true}, page, pageSize)
	})
}

func (r *Reader) listStoryIDs(ctx context.Context, find *store.FindStory, page, pageSize int) ([]int32, error) {
	published := store.Published
	find.Status = &published
	offset := (page - 1) * pageSize
	find.Limit = &pageSize
	find.Offset = &offset
	stories, err := r.store.ListStories(ctx, find)
	if err != nil {
		return nil, err
	}
	ids := make([]int32, 0, len(stories))
	for _, story := range stories {
		ids = append(ids, story.ID)
	}
	return ids, nil
}

// GetAuthorStoryCount returns the number of published stories by an author.
func (r *Reader) GetAuthorStoryCount(ctx context.Context, userID int32) (int, error) {
	return readThrough(ctx, r, "storycount", keyAuthorStoryCount(userID), ttlCounts, func(ctx context.Context) (int, error) {
		published := store.Published
		return r.store.CountStories(ctx, &store.FindStory{CreatorID: &userID, Status: &published})
	})
}

// GetProfile returns the profile aggregate for a username. A missing user
// returns (nil, nil) and leaves a short-lived negative placeholder so
// repeated failing lookups do not hit the store.
func (r *Reader) GetProfile(ctx context.Context, username string) (*Profile, error) {
	if r.cache != nil {
		if _, found := r.cache.Get(ctx, keyUserNotFound(username)); found {
			metrics.CacheHitsTotal.WithLabelValues("usernotfound").Inc()
			return nil, nil
		}
	}

	user, err := r.store.GetUser(ctx, &store.FindUser{Username: &username})
	if err != nil {
		return nil, err
	}
	if user == nil {
		if r.cache != nil {
			r.cache.SetWithTTL(ctx, keyUserNotFound(username), true, ttlVolatile)
		}
		return nil, nil
	}

	return readThrough(ctx, r, "profile", keyProfile(user.ID), ttlEngagement, func(ctx context.Context) (*Profile, error) {
		storyCount, err := r.GetAuthorStoryCount(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		followerCount, err := r.GetFollowerCount(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		followingCount, err := r.GetFollowingCount(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		return &Profile{
			User:           user,
			StoryCount:     storyCount,
			FollowerCount:  followerCount,
			FollowingCount: followingCount,
		}, nil
	})
}

// GetFollowerCount returns how many users follow userID.
func (r *Reader) GetFollowerCount(ctx context.Context, userID int32) (int, error) {
	return readThrough(ctx, r, "followercount", keyFollowerCount(userID), ttlSocial, func(ctx context.Context) (int, error) {
		return r.store.CountFollows(ctx, &store.FindFollow{FolloweeID: &userID})
	})
}

// GetFollowingCount returns how many users userID follows.
func (r *Reader) GetFollowingCount(ctx context.Context, userID int32) (int, error) {
	return readThrough(ctx, r, "followingcount", keyFollowingCount(userID), ttlSocial, func(ctx context.Context) (int, error) {
		return r.store.CountFollows(ctx, &store.FindFollow{FollowerID: &userID})
	})
}

// GetFollowStatus reports whether follower follows followee.
func (r *Reader) GetFollowStatus(ctx context.Context, followerID, followeeID int32) (bool, error) {
	return readThrough(ctx, r, "followstatus", keyFollowStatus(followerID, followeeID), ttlEngagement, func(ctx context.Context) (bool, error) {
		count, err := r.store.CountFollows(ctx, &store.FindFollow{FollowerID: &followerID, FolloweeID: &followeeID})
		if err != nil {
			return false, err
		}
		return count > 0, nil
	})
}

// GetFollowerList returns one page of follower user ids of userID.
func (r *Reader) GetFollowerList(ctx context.Context, userID int32, page, pageSize int) ([]int32, error) {
	pageSize = ClampPageSize(pageSize)
	return readThrough(ctx, r, "followerlist", keyFollowerList(userID, page, pageSize), ttlSocial, func(ctx context.Context) ([]int32, error) {
		offset := (page - 1) * pageSize
		follows, err := r.store.ListFollows(ctx, &store.FindFollow{FolloweeID: &userID, Limit: &pageSize, Offset: &offset})
		if err != nil {
			return nil, err
		}
		ids := make([]int32, 0, len(follows))
		for _, follow := range follows {
			ids = append(ids, follow.FollowerID)
		}
		return ids, nil
	})
}

// GetFollowingList returns one page of user ids that userID follows.
func (r *Reader) GetFollowingList(ctx context.Context, userID int32, page, pageSize int) ([]int32, error) {
	pageSize = ClampPageSize(pageSize)
	return readThrough(ctx, r, "followinglist", keyFollowingList(userID, page, pageSize), ttlSocial, func(ctx context.Context) ([]int32, error) {
		offset := (page - 1) * pageSize
		follows, err := r.store.ListFollows(ctx, &store.FindFollow{FollowerID: &userID, Limit: &pageSize, Offset: &offset})
		if err != nil {
			return nil, err
		}
		ids := make([]int32, 0, len(follows))
		for _, follow := range follows {
			ids = append(ids, follow.FolloweeID)
		}
		return ids, nil
	})
}

// GetTopAuthors returns the follower-count leaderboard.
func (r *Reader) GetTopAuthors(ctx context.Context, limit int) ([]*store.RankedUser, error) {
	return readThrough(ctx, r, "topauthors", keyTopAuthors(limit), ttlCounts, func(ctx context.Context) ([]*store.RankedUser, error) {
		return r.store.TopAuthors(ctx, limit)
	})
}

// GetMostBookmarked returns the bookmark-count leaderboard.
func (r *Reader) GetMostBookmarked(ctx context.Context, limit int) ([]*store.RankedStory, error) {
	return readThrough(ctx, r, "mostbookmarked", keyMostBookmarked(limit), ttlCounts, func(ctx context.Context) ([]*store.RankedStory, error) {
		return r.store.MostBookmarkedStories(ctx, limit)
	})
}

// GetBookmarkCount returns how many stories userID has bookmarked.
func (r *Reader) GetBookmarkCount(ctx context.Context, userID int32) (int, error) {
	return readThrough(ctx, r, "bookmarkcount", keyBookmarkCount(userID), ttlEngagement, func(ctx context.Context) (int, error) {
		return r.store.CountBookmarks(ctx, &store.FindBookmark{UserID: &userID})
	})
}

// GetBookmarkStatus reports whether userID has bookmarked storyID.
func (r *Reader) GetBookmarkStatus(ctx context.Context, userID, storyID int32) (bool, error) {
	return readThrough(ctx, r, "bookmarkstatus", keyBookmarkStatus(userID, storyID), ttlEngagement, func(ctx context.Context) (bool, error) {
		count, err := r.store.CountBookmarks(ctx, &store.FindBookmark{UserID: &userID, StoryID: &storyID})
		if err != nil {
			return false, err
		}
		return count > 0, nil
	})
}

// GetBookmarkPage returns one page of story ids bookmarked by userID.
func (r *Reader) GetBookmarkPage(ctx context.Context, userID int32, page, pageSize int) ([]int32, error) {
	pageSize = ClampPageSize(pageSize)
	return readThrough(ctx, r, "bookmarkpage", keyBookmarkPage(userID, page, pageSize), ttlEngagement, func(ctx context.Context) ([]int32, error) {
		offset := (page - 1) * pageSize
		bookmarks, err := r.store.ListBookmarks(ctx, &store.FindBookmark{UserID: &userID, Limit: &pageSize, Offset: &offset})
		if err != nil {
			return nil, err
		}
		ids := make([]int32, 0, len(bookmarks))
		for _, bookmark := range bookmarks {
			ids = append(ids, bookmark.StoryID)
		}
		return ids, nil
	})
}

// GetUnreadNotificationCount returns the unread notification count of userID.
func (r *Reader) GetUnreadNotificationCount(ctx context.Context, userID int32) (int, error) {
	return readThrough(ctx, r, "unreadcount", keyUnreadCount(userID), ttlVolatile, func(ctx context.Context) (int, error) {
		unread := true
		return r.store.CountNotifications(ctx, &store.FindNotification{UserID: &userID, Unread: &unread})
	})
}

// GetNotificationPage returns one page of notifications for userID.
func (r *Reader) GetNotificationPage(ctx context.Context, userID int32, page, pageSize int) ([]*store.Notification, error) {
	pageSize = ClampPageSize(pageSize)
	return readThrough(ctx, r, "notifpage", keyNotificationPage(userID, page, pageSize), ttlNotificationList, func(ctx context.Context) ([]*store.Notification, error) {
		offset := (page - 1) * pageSize
		return r.store.ListNotifications(ctx, &store.FindNotification{UserID: &userID, Limit: &pageSize, Offset: &offset})
	})
}
