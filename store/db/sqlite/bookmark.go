package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/fablehall/fablehall/store"
)

func (d *DB) UpsertBookmark(ctx context.Context, upsert *store.Bookmark) (*store.Bookmark, error) {
	stmt := `INSERT INTO bookmark (user_id, story_id)
		VALUES (?, ?)
		ON CONFLICT (user_id, story_id) DO NOTHING`
	if _, err := d.db.ExecContext(ctx, stmt, upsert.UserID, upsert.StoryID); err != nil {
		return nil, fmt.Errorf("failed to upsert bookmark: %w", err)
	}
	return upsert, nil
}

func (d *DB) ListBookmarks(ctx context.Context, find *store.FindBookmark) ([]*store.Bookmark, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.UserID; v != nil {
		where, args = append(where, "bookmark.user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.StoryID; v != nil {
		where, args = append(where, "bookmark.story_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT user_id, story_id, created_ts
		FROM bookmark
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY bookmark.created_ts DESC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookmarks: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Bookmark, 0)
	for rows.Next() {
		var bookmark store.Bookmark
		if err := rows.Scan(&bookmark.UserID, &bookmark.StoryID, &bookmark.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		list = append(list, &bookmark)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookmarks: %w", err)
	}

	return list, nil
}

func (d *DB) DeleteBookmark(ctx context.Context, delete *store.DeleteBookmark) error {
	if _, err := d.db.ExecContext(ctx,
		"DELETE FROM bookmark WHERE user_id = ? AND story_id = ?",
		delete.UserID, delete.StoryID,
	); err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	return nil
}

func (d *DB) CountBookmarks(ctx context.Context, find *store.FindBookmark) (int, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.UserID; v != nil {
		where, args = append(where, "bookmark.user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.StoryID; v != nil {
		where, args = append(where, "bookmark.story_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT COUNT(*) FROM bookmark WHERE ` + strings.Join(where, " AND ")
	var count int
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bookmarks: %w", err)
	}
	return count, nil
}

func (d *DB) MostBookmarkedStories(ctx context.Context, limit int) ([]*store.RankedStory, error) {
	query := `
		SELECT story_id, COUNT(*) AS bookmark_count
		FROM bookmark
		GROUP BY story_id
		ORDER BY bookmark_count DESC, story_id ASC
		LIMIT ?`

	rows, err := d.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query most bookmarked stories: %w", err)
	}
	defer rows.Close()

	list := make([]*store.RankedStory, 0)
	for rows.Next() {
		var ranked store.RankedStory
		if err := rows.Scan(&ranked.StoryID, &ranked.Count); err != nil {
			return nil, fmt.Errorf("failed to scan most bookmarked story: %w", err)
		}
		list = append(list, &ranked)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate most bookmarked stories: %w", err)
	}

	return list, nil
}
