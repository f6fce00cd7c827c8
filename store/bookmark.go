package store

import (
	"context"
)

// Bookmark is the object representing a user's saved story.
type Bookmark struct {
	UserID    int32
	StoryID   int32
	CreatedTs int64
}

// FindBookmark is the find condition for bookmark.
type FindBookmark struct {
	UserID  *int32
	StoryID *int32

	Limit  *int
	Offset *int
}

// DeleteBookmark is the delete request for bookmark.
type DeleteBookmark struct {
	UserID  int32
	StoryID int32
}

// RankedStory is a leaderboard row: a story and its ranking count.
type RankedStory struct {
	StoryID int32
	Count   int
}

// UpsertBookmark creates the bookmark if it does not exist.
func (s *Store) UpsertBookmark(ctx context.Context, upsert *Bookmark) (*Bookmark, error) {
	return s.driver.UpsertBookmark(ctx, upsert)
}

// ListBookmarks lists bookmarks with filter, newest first.
func (s *Store) ListBookmarks(ctx context.Context, find *FindBookmark) ([]*Bookmark, error) {
	return s.driver.ListBookmarks(ctx, find)
}

// DeleteBookmark removes the bookmark. Removing an absent bookmark is a no-op.
func (s *Store) DeleteBookmark(ctx context.Context, delete *DeleteBookmark) error {
	return s.driver.DeleteBookmark(ctx, delete)
}

// CountBookmarks counts bookmarks matching the filter.
func (s *Store) CountBookmarks(ctx context.Context, find *FindBookmark) (int, error) {
	return s.driver.CountBookmarks(ctx, find)
}

// MostBookmarkedStories returns stories ranked by bookmark count descending.
func (s *Store) MostBookmarkedStories(ctx context.Context, limit int) ([]*RankedStory, error) {
	return s.driver.MostBookmarkedStories(ctx, limit)
}
