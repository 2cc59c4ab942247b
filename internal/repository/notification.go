package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"travelthreads/internal/model"
)

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Create inserts the notification and bumps the recipient's unread badge
// counter in one transaction.
func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO notifications (user_id, actor_id, type, message, entity_id, entity_type,
		                           actor_display_name, actor_avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, is_read, created_at
	`
	row := tx.QueryRowxContext(ctx, query,
		n.UserID, n.ActorID, n.Type, n.Message, n.EntityID, n.EntityType,
		n.ActorDisplayName, n.ActorAvatarURL)
	if err := row.Scan(&n.ID, &n.IsRead, &n.CreatedAt); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET unread_notification_count = unread_notification_count + 1 WHERE id = $1`,
		n.UserID)
	if err != nil {
		return fmt.Errorf("increment unread count: %w", err)
	}

	return tx.Commit()
}

func (r *notificationRepository) List(ctx context.Context, userID int64, limit int) ([]model.Notification, error) {
	query := `
		SELECT id, user_id, actor_id, type, message, entity_id, entity_type,
		       actor_display_name, actor_avatar_url, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	var notifications []model.Notification
	err := r.db.SelectContext(ctx, &notifications, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// MarkAsRead flips the given notifications to read and drops the badge
// counter by the number actually flipped, so repeated calls are idempotent.
func (r *notificationRepository) MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) error {
	if len(notificationIDs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE user_id = $1 AND id = ANY($2) AND is_read = FALSE
	`, userID, pq.Array(notificationIDs))
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	flipped, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if flipped > 0 {
		_, err = tx.ExecContext(ctx, `
			UPDATE users
			SET unread_notification_count = GREATEST(unread_notification_count - $1, 0)
			WHERE id = $2
		`, flipped, userID)
		if err != nil {
			return fmt.Errorf("decrement unread count: %w", err)
		}
	}

	return tx.Commit()
}

// MarkAllAsRead flips everything unread and zeroes the badge counter.
func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET unread_notification_count = 0 WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("reset unread count: %w", err)
	}

	return tx.Commit()
}

// Delete removes the record, decrementing the badge counter only when the
// record was still unread.
func (r *notificationRepository) Delete(ctx context.Context, notificationID, userID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var wasUnread bool
	err = tx.GetContext(ctx, &wasUnread,
		`SELECT NOT is_read FROM notifications WHERE id = $1 AND user_id = $2`,
		notificationID, userID)
	if err == sql.ErrNoRows {
		return model.ErrNotificationNotFound
	}
	if err != nil {
		return fmt.Errorf("get notification: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, notificationID, userID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}

	if wasUnread {
		_, err = tx.ExecContext(ctx, `
			UPDATE users
			SET unread_notification_count = GREATEST(unread_notification_count - 1, 0)
			WHERE id = $1
		`, userID)
		if err != nil {
			return fmt.Errorf("decrement unread count: %w", err)
		}
	}

	return tx.Commit()
}

func (r *notificationRepository) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT unread_notification_count FROM users WHERE id = $1`, userID)
	if err == sql.ErrNoRows {
		return 0, model.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get unread count: %w", err)
	}
	return count, nil
}
