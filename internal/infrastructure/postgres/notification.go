package postgres

import (
	"context"
	"database/sql"
	"errors"

	"shopcore/internal/domain/notification"
)

type notificationRepo struct {
	q querier
}

func (r *notificationRepo) Insert(ctx context.Context, n *notification.Notification) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, type, content, is_read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.UserID, n.Type, n.Content, n.IsRead, n.CreatedAt,
	)
	return err
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID string) ([]*notification.Notification, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, user_id, type, content, is_read, created_at
		 FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*notification.Notification
	for rows.Next() {
		var n notification.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Content, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (r *notificationRepo) MarkRead(ctx context.Context, id, userID string) (*notification.Notification, error) {
	var n notification.Notification
	err := r.q.QueryRowContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, type, content, is_read, created_at`,
		id, userID,
	).Scan(&n.ID, &n.UserID, &n.Type, &n.Content, &n.IsRead, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notification.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1`,
		userID,
	)
	return err
}

func (r *notificationRepo) Delete(ctx context.Context, id, userID string) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notification.ErrNotFound
	}
	return nil
}
