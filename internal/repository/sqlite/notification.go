package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/socialnet-app/socialnet/internal/apperror"
	"github.com/socialnet-app/socialnet/internal/model"
	"github.com/socialnet-app/socialnet/internal/repository"
)

var _ repository.NotificationRepository = (*DB)(nil)

// CreateNotification records an event for a user's notification feed.
func (db *DB) CreateNotification(ctx context.Context, n *model.Notification) error {
	n.ID = xid.New().String()
	n.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, actor_id, type, post_id, read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.ActorID, n.Type, n.PostID, n.Read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting notification: %w", err)
	}

	return nil
}

// ListNotifications pages a user's notifications newest-first, actor
// summaries joined in.
func (db *DB) ListNotifications(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Notification, int, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	var total int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ?`, userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting notifications: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT n.id, n.user_id, n.actor_id, n.type, n.post_id, n.read, n.created_at,
		        u.name, u.username, u.avatar
		 FROM notifications n JOIN users u ON u.id = n.actor_id
		 WHERE n.user_id = ?
		 ORDER BY n.created_at DESC, n.id DESC
		 LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]model.Notification, 0, limit)
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.ActorID, &n.Type, &n.PostID, &n.Read, &n.CreatedAt,
			&n.Actor.Name, &n.Actor.Username, &n.Actor.Avatar,
		); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning notification row: %w", err)
		}
		n.Actor.ID = n.ActorID
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating notifications: %w", err)
	}

	return notifications, total, nil
}

// CountUnreadNotifications returns the user's unread badge count.
func (db *DB) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = 0`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting unread notifications: %w", err)
	}
	return count, nil
}

// MarkNotificationRead flips one notification to read. The userID guard keeps
// users from marking each other's notifications.
func (db *DB) MarkNotificationRead(ctx context.Context, id, userID string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: marking notification read: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("notification")
	}

	return nil
}

// MarkAllNotificationsRead flips everything unread for the user.
func (db *DB) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE user_id = ? AND read = 0`, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: marking notifications read: %w", err)
	}
	return nil
}
