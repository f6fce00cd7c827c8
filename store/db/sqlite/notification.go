package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fablehall/fablehall/store"
)

func (d *DB) CreateNotification(ctx context.Context, create *store.Notification) (*store.Notification, error) {
	stmt := `INSERT INTO notification (user_id, kind, message)
		VALUES (?, ?, ?)
		RETURNING id, created_ts`

	if err := d.db.QueryRowContext(ctx, stmt, create.UserID, create.Kind, create.Message).Scan(
		&create.ID,
		&create.CreatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return create, nil
}

func (d *DB) ListNotifications(ctx context.Context, find *store.FindNotification) ([]*store.Notification, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "notification.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "notification.user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Unread; v != nil {
		if *v {
			where = append(where, "notification.read_ts IS NULL")
		} else {
			where = append(where, "notification.read_ts IS NOT NULL")
		}
	}

	query := `
		SELECT id, user_id, created_ts, kind, message, read_ts
		FROM notification
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY notification.created_ts DESC, notification.id DESC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Notification, 0)
	for rows.Next() {
		var notification store.Notification
		var readTs sql.NullInt64
		if err := rows.Scan(
			&notification.ID,
			&notification.UserID,
			&notification.CreatedTs,
			&notification.Kind,
			&notification.Message,
			&readTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if readTs.Valid {
			v := readTs.Int64
			notification.ReadTs = &v
		}
		list = append(list, &notification)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}

	return list, nil
}

func (d *DB) UpdateNotification(ctx context.Context, update *store.UpdateNotification) error {
	if update.ReadTs == nil {
		return nil
	}
	if _, err := d.db.ExecContext(ctx,
		"UPDATE notification SET read_ts = ? WHERE id = ?",
		*update.ReadTs, update.ID,
	); err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	return nil
}

func (d *DB) DeleteNotification(ctx context.Context, delete *store.DeleteNotification) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM notification WHERE id = ?", delete.ID); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}

func (d *DB) CountNotifications(ctx context.Context, find *store.FindNotification) (int, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.UserID; v != nil {
		where, args = append(where, "notification.user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Unread; v != nil {
		if *v {
			where = append(where, "notification.read_ts IS NULL")
		} else {
			where = append(where, "notification.read_ts IS NOT NULL")
		}
	}

	query := `SELECT COUNT(*) FROM notification WHERE ` + strings.Join(where, " AND ")
	var count int
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}
