package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/fablehall/fablehall/store"
)

func (d *DB) CreateChapter(ctx context.Context, create *store.Chapter) (*store.Chapter, error) {
	fields := []string{
		"uid", "story_id", "type", "number", "title", "content",
		"status", "display_date", "published_ts",
	}
	placeholderValues := []any{
		create.UID, create.StoryID, create.Type, create.Number, create.Title, create.Content,
		create.Status, create.DisplayDate, create.PublishedTs,
	}

	stmt := `INSERT INTO chapter (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(placeholderValues)) + `)
		RETURNING id, created_ts, updated_ts`

	if err := d.db.QueryRowContext(ctx, stmt, placeholderValues...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create chapter: %w", err)
	}

	return create, nil
}

func (d *DB) ListChapters(ctx context.Context, find *store.FindChapter) ([]*store.Chapter, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "chapter.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "chapter.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.StoryID; v != nil {
		where, args = append(where, "chapter.story_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Status; v != nil {
		where, args = append(where, "chapter.status = "+placeholder(len(args)+1)), append(args, string(*v))
	}
	if v := find.Number; v != nil {
		where, args = append(where, "chapter.number = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(find.Types) > 0 {
		list := []string{}
		for _, t := range find.Types {
			list = append(list, placeholder(len(args)+1))
			args = append(args, string(t))
		}
		where = append(where, fmt.Sprintf("chapter.type IN (%s)", strings.Join(list, ", ")))
	}

	contentField := "content"
	if find.ExcludeContent {
		contentField = "''"
	}

	query := `
		SELECT
			id, uid, story_id, created_ts, updated_ts,
			type, number, title, ` + contentField + `,
			status, display_date, published_ts
		FROM chapter
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY chapter.number ASC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chapters: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Chapter, 0)
	for rows.Next() {
		var chapter store.Chapter
		if err := rows.Scan(
			&chapter.ID,
			&chapter.UID,
			&chapter.StoryID,
			&chapter.CreatedTs,
			&chapter.UpdatedTs,
			&chapter.Type,
			&chapter.Number,
			&chapter.Title,
			&chapter.Content,
			&chapter.Status,
			&chapter.DisplayDate,
			&chapter.PublishedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chapter: %w", err)
		}
		list = append(list, &chapter)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chapters: %w", err)
	}

	return list, nil
}

func (d *DB) UpdateChapter(ctx context.Context, update *store.UpdateChapter) error {
	set, args := []string{}, []any{}

	if v := update.UpdatedTs; v != nil {
		set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Type; v != nil {
		set, args = append(set, "type = "+placeholder(len(args)+1)), append(args, string(*v))
	}
	if v := update.Number; v != nil {
		set, args = append(set, "number = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Title; v != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Content; v != nil {
		set, args = append(set, "content = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Status; v != nil {
		set, args = append(set, "status = "+placeholder(len(args)+1)), append(args, string(*v))
	}
	if v := update.DisplayDate; v != nil {
		set, args = append(set, "display_date = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.PublishedTs; v != nil {
		set, args = append(set, "published_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(set) == 0 {
		return nil
	}

	stmt := `UPDATE chapter SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)+1)
	args = append(args, update.ID)
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to update chapter: %w", err)
	}

	return nil
}

func (d *DB) DeleteChapter(ctx context.Context, delete *store.DeleteChapter) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM chapter WHERE id = $1", delete.ID); err != nil {
		return fmt.Errorf("failed to delete chapter: %w", err)
	}
	return nil
}

func (d *DB) CountChapters(ctx context.Context, find *store.FindChapter) (int, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.StoryID; v != nil {
		where, args = append(where, "chapter.story_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Status; v != nil {
		where, args = append(where, "chapter.status = "+placeholder(len(args)+1)), append(args, string(*v))
	}
	if len(find.Types) > 0 {
		list := []string{}
		for _, t := range find.Types {
			list = append(list, placeholder(len(args)+1))
			args = append(args, string(t))
		}
		where = append(where, fmt.Sprintf("chapter.type IN (%s)", strings.Join(list, ", ")))
	}

	query := `SELECT COUNT(*) FROM chapter WHERE ` + strings.Join(where, " AND ")
	var count int
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count chapters: %w", err)
	}
	return count, nil
}
