package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fablehall/fablehall/store"
)

func (d *DB) CreateStory(ctx context.Context, create *store.Story) (*store.Story, error) {
	fields := []string{
		"uid", "creator_id", "coauthor_ids", "title", "introduction",
		"status", "genre_ids", "status_tag_id", "display_date",
		"published_ts", "content_updated_ts",
	}
	placeholderValues := []any{
		create.UID, create.CreatorID, store.JoinIDList(create.CoAuthorIDs), create.Title, create.Introduction,
		create.Status, store.JoinIDList(create.GenreIDs), create.StatusTagID, create.DisplayDate,
		create.PublishedTs, create.ContentUpdatedTs,
	}

	stmt := `INSERT INTO story (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(placeholderValues)) + `)
		RETURNING id, created_ts, updated_ts`

	if err := d.db.QueryRowContext(ctx, stmt, placeholderValues...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create story: %w", err)
	}

	return create, nil
}

func (d *DB) ListStories(ctx context.Context, find *store.FindStory) ([]*store.Story, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "story.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "story.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "story.creator_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Status; v != nil {
		where, args = append(where, "story.status = "+placeholder(len(args)+1)), append(args, string(*v))
	}
	if v := find.GenreID; v != nil {
		// genre_ids is stored as ",1,4," so membership is a LIKE on ",id,".
		where, args = append(where, "story.genre_ids LIKE "+placeholder(len(args)+1)), append(args, fmt.Sprintf("%%,%d,%%", *v))
	}
	if v := find.StatusTagID; v != nil {
		where, args = append(where, "story.status_tag_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	orderBy := "ORDER BY story.created_ts DESC, story.id DESC"
	if find.OrderByContentUpdated {
		orderBy = "ORDER BY story.content_updated_ts DESC, story.id DESC"
	}

	query := `
		SELECT
			id, uid, creator_id, coauthor_ids, created_ts, updated_ts,
			title, introduction, status, genre_ids, status_tag_id,
			display_date, published_ts, content_updated_ts
		FROM story
		WHERE ` + strings.Join(where, " AND ") + ` ` + orderBy

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stories: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Story, 0)
	for rows.Next() {
		var story store.Story
		var coauthorIDs, genreIDs string
		var statusTagID sql.NullInt32

		if err := rows.Scan(
			&story.ID,
			&story.UID,
			&story.CreatorID,
			&coauthorIDs,
			&story.CreatedTs,
			&story.UpdatedTs,
			&story.Title,
			&story.Introduction,
			&story.Status,
			&genreIDs,
			&statusTagID,
			&story.DisplayDate,
			&story.PublishedTs,
			&story.ContentUpdatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}

		story.CoAuthorIDs = store.SplitIDList(coauthorIDs)
		story.GenreIDs = store.SplitIDList(genreIDs)
		if statusTagID.Valid {
			v := statusTagID.Int32
			story.StatusTagID = &v
		}
		list = append(list, &story)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stories: %w", err)
	}

	return list, nil
}

func (d *DB) UpdateStory(ctx context.Context, update *store.UpdateStory) error {
	set, args := []string{}, []any{}

	if v := update.UpdatedTs; v != nil {
		set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Title; v != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Introduction; v != nil {
		set, args = append(set, "introduction = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Status; v != nil {
		set, args = append(set, "status = "+placeholder(len(args)+1)), append(args, string(*v))
	}
	if v := update.GenreIDs; v != nil {
		set, args = append(set, "genre_ids = "+placeholder(len(args)+1)), append(args, store.JoinIDList(*v))
	}
	if update.SetStatusTag {
		if v := update.StatusTagID; v != nil {
			set, args = append(set, "status_tag_id = "+placeholder(len(args)+1)), append(args, *v)
		} else {
			set = append(set, "status_tag_id = NULL")
		}
	}
	if v := update.CoAuthorIDs; v != nil {
		set, args = append(set, "coauthor_ids = "+placeholder(len(args)+1)), append(args, store.JoinIDList(*v))
	}
	if v := update.DisplayDate; v != nil {
		set, args = append(set, "display_date = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.PublishedTs; v != nil {
		set, args = append(set, "published_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.ContentUpdatedTs; v != nil {
		set, args = append(set, "content_updated_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(set) == 0 {
		return nil
	}

	stmt := `UPDATE story SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)+1)
	args = append(args, update.ID)
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to update story: %w", err)
	}

	return nil
}

func (d *DB) DeleteStory(ctx context.Context, delete *store.DeleteStory) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM chapter WHERE story_id = ?", delete.ID); err != nil {
		return fmt.Errorf("failed to delete chapters of story: %w", err)
	}
	if _, err := d.db.ExecContext(ctx, "DELETE FROM story WHERE id = ?", delete.ID); err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}
	return nil
}

func (d *DB) CountStories(ctx context.Context, find *store.FindStory) (int, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.CreatorID; v != nil {
		where, args = append(where, "story.creator_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Status; v != nil {
		where, args = append(where, "story.status = "+placeholder(len(args)+1)), append(args, string(*v))
	}
	if v := find.GenreID; v != nil {
		where, args = append(where, "story.genre_ids LIKE "+placeholder(len(args)+1)), append(args, fmt.Sprintf("%%,%d,%%", *v))
	}
	if v := find.StatusTagID; v != nil {
		where, args = append(where, "story.status_tag_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT COUNT(*) FROM story WHERE ` + strings.Join(where, " AND ")
	var count int
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count stories: %w", err)
	}
	return count, nil
}
