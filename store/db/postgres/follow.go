package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/fablehall/fablehall/store"
)

func (d *DB) UpsertFollow(ctx context.Context, upsert *store.Follow) (*store.Follow, error) {
	stmt := `INSERT INTO follow (follower_id, followee_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, followee_id) DO NOTHING`
	if _, err := d.db.ExecContext(ctx, stmt, upsert.FollowerID, upsert.FolloweeID); err != nil {
		return nil, fmt.Errorf("failed to upsert follow: %w", err)
	}
	return upsert, nil
}

func (d *DB) ListFollows(ctx context.Context, find *store.FindFollow) ([]*store.Follow, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.FollowerID; v != nil {
		where, args = append(where, "follow.follower_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.FolloweeID; v != nil {
		where, args = append(where, "follow.followee_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT follower_id, followee_id, created_ts
		FROM follow
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY follow.created_ts DESC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query follows: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Follow, 0)
	for rows.Next() {
		var follow store.Follow
		if err := rows.Scan(&follow.FollowerID, &follow.FolloweeID, &follow.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan follow: %w", err)
		}
		list = append(list, &follow)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate follows: %w", err)
	}

	return list, nil
}

func (d *DB) DeleteFollow(ctx context.Context, delete *store.DeleteFollow) error {
	if _, err := d.db.ExecContext(ctx,
		"DELETE FROM follow WHERE follower_id = $1 AND followee_id = $2",
		delete.FollowerID, delete.FolloweeID,
	); err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}
	return nil
}

func (d *DB) CountFollows(ctx context.Context, find *store.FindFollow) (int, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.FollowerID; v != nil {
		where, args = append(where, "follow.follower_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.FolloweeID; v != nil {
		where, args = append(where, "follow.followee_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT COUNT(*) FROM follow WHERE ` + strings.Join(where, " AND ")
	var count int
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count follows: %w", err)
	}
	return count, nil
}

func (d *DB) TopAuthors(ctx context.Context, limit int) ([]*store.RankedUser, error) {
	query := `
		SELECT followee_id, COUNT(*) AS follower_count
		FROM follow
		GROUP BY followee_id
		ORDER BY follower_count DESC, followee_id ASC
		LIMIT $1`

	rows, err := d.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top authors: %w", err)
	}
	defer rows.Close()

	list := make([]*store.RankedUser, 0)
	for rows.Next() {
		var ranked store.RankedUser
		if err := rows.Scan(&ranked.UserID, &ranked.Count); err != nil {
			return nil, fmt.Errorf("failed to scan top author: %w", err)
		}
		list = append(list, &ranked)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate top authors: %w", err)
	}

	return list, nil
}
