package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"travelthreads/internal/model"
)

const userColumns = `id, username, email, password_hashed, display_name, avatar_url, avatar_key, bio,
       is_admin, is_blocked, blocked_reason, follower_count, following_count, thread_count,
       unread_notification_count, created_at, updated_at`

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (username, email, password_hashed, display_name, avatar_url, avatar_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, follower_count, following_count, thread_count, created_at, updated_at
	`

	row := r.db.QueryRowxContext(ctx, query,
		u.Username,
		u.Email,
		u.PasswordHashed,
		u.DisplayName,
		u.AvatarURL,
		u.AvatarKey,
	)

	err := row.Scan(
		&u.ID,
		&u.FollowerCount,
		&u.FollowingCount,
		&u.ThreadCount,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return &u, nil
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username)
	if err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}
	return exists, nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error) {
	searchQuery := `
		SELECT id, username, display_name, avatar_url
		FROM users
		WHERE username ILIKE $1 OR display_name ILIKE $1
		ORDER BY follower_count DESC
		LIMIT $2
	`

	var users []model.UserSummary
	err := r.db.SelectContext(ctx, &users, searchQuery, query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	return users, nil
}

// GetSummariesByIDs resolves a set of user IDs into summaries with one query.
func (r *userRepository) GetSummariesByIDs(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
	result := make(map[int64]model.UserSummary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT id, username, display_name, avatar_url FROM users WHERE id = ANY($1)`
	var users []model.UserSummary
	err := r.db.SelectContext(ctx, &users, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get user summaries: %w", err)
	}

	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, userID int64, displayName, bio *string) error {
	query := `
		UPDATE users
		SET display_name = COALESCE($1, display_name),
		    bio = COALESCE($2, bio),
		    updated_at = NOW()
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, displayName, bio, userID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) UpdateAvatar(ctx context.Context, userID int64, avatarURL, avatarKey string) (*string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var oldKey *string
	err = tx.GetContext(ctx, &oldKey, `SELECT avatar_key FROM users WHERE id = $1 FOR UPDATE`, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get current avatar: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users
		SET avatar_url = $1, avatar_key = $2, updated_at = NOW()
		WHERE id = $3
	`, avatarURL, avatarKey, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return oldKey, nil
}

func (r *userRepository) IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	query := `UPDATE users SET follower_count = follower_count + $1 WHERE id = $2`
	_, err := tx.ExecContext(ctx, query, delta, userID)
	if err != nil {
		return fmt.Errorf("failed to increment follower count: %w", err)
	}
	return nil
}

func (r *userRepository) IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	query := `UPDATE users SET following_count = following_count + $1 WHERE id = $2`
	_, err := tx.ExecContext(ctx, query, delta, userID)
	if err != nil {
		return fmt.Errorf("failed to increment following count: %w", err)
	}
	return nil
}

func (r *userRepository) SetBlocked(ctx context.Context, tx *sqlx.Tx, userID int64, blocked bool, reason *string) error {
	query := `UPDATE users SET is_blocked = $1, blocked_reason = $2, updated_at = NOW() WHERE id = $3`
	result, err := tx.ExecContext(ctx, query, blocked, reason, userID)
	if err != nil {
		return fmt.Errorf("failed to set blocked flag: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) SetAdmin(ctx context.Context, tx *sqlx.Tx, userID int64, isAdmin bool) error {
	query := `UPDATE users SET is_admin = $1, updated_at = NOW() WHERE id = $2`
	result, err := tx.ExecContext(ctx, query, isAdmin, userID)
	if err != nil {
		return fmt.Errorf("failed to set admin flag: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// DeleteAccount removes the user and everything they own in one transaction:
// comments and shares on their posts, their posts, their own comments and
// shares elsewhere (with counter repair on the affected posts), their events,
// notifications, conversations, follow edges (with counter repair on the
// other side), and finally the user row.
func (r *userRepository) DeleteAccount(ctx context.Context, userID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	steps := []struct {
		name  string
		query string
	}{
		// Content hanging off the user's posts goes first.
		{"delete comment likes on own posts", `DELETE FROM comment_likes WHERE comment_id IN (SELECT c.id FROM comments c JOIN posts p ON p.id = c.post_id WHERE p.user_id = $1)`},
		{"delete comments on own posts", `DELETE FROM comments WHERE post_id IN (SELECT id FROM posts WHERE user_id = $1)`},
		{"delete shares of own posts", `DELETE FROM shares WHERE post_id IN (SELECT id FROM posts WHERE user_id = $1)`},
		{"delete likes on own posts", `DELETE FROM post_likes WHERE post_id IN (SELECT id FROM posts WHERE user_id = $1)`},
		{"delete own posts", `DELETE FROM posts WHERE user_id = $1`},
		// Activity the user left on other people's content, with counter repair.
		{"repair comment counts", `UPDATE posts SET comment_count = comment_count - sub.n FROM (SELECT post_id, COUNT(*) AS n FROM comments WHERE user_id = $1 GROUP BY post_id) sub WHERE posts.id = sub.post_id`},
		{"delete likes on own comments", `DELETE FROM comment_likes WHERE comment_id IN (SELECT id FROM comments WHERE user_id = $1)`},
		{"delete own comments", `DELETE FROM comments WHERE user_id = $1`},
		{"repair share counts", `UPDATE posts SET share_count = share_count - sub.n FROM (SELECT post_id, COUNT(*) AS n FROM shares WHERE user_id = $1 GROUP BY post_id) sub WHERE posts.id = sub.post_id`},
		{"delete own shares", `DELETE FROM shares WHERE user_id = $1`},
		{"repair like counts", `UPDATE posts SET like_count = like_count - 1 WHERE id IN (SELECT post_id FROM post_likes WHERE user_id = $1)`},
		{"delete own post likes", `DELETE FROM post_likes WHERE user_id = $1`},
		{"repair comment like counts", `UPDATE comments SET like_count = like_count - 1 WHERE id IN (SELECT comment_id FROM comment_likes WHERE user_id = $1)`},
		{"delete own comment likes", `DELETE FROM comment_likes WHERE user_id = $1`},
		// Events.
		{"delete attendee rows for own events", `DELETE FROM event_attendees WHERE event_id IN (SELECT id FROM events WHERE user_id = $1)`},
		{"delete interest rows for own events", `DELETE FROM event_interests WHERE event_id IN (SELECT id FROM events WHERE user_id = $1)`},
		{"delete own events", `DELETE FROM events WHERE user_id = $1`},
		{"leave other events", `DELETE FROM event_attendees WHERE user_id = $1`},
		{"drop other event interests", `DELETE FROM event_interests WHERE user_id = $1`},
		// Messaging.
		{"delete messages", `DELETE FROM messages WHERE conversation_id IN (SELECT id FROM conversations WHERE user_a_id = $1 OR user_b_id = $1)`},
		{"delete conversations", `DELETE FROM conversations WHERE user_a_id = $1 OR user_b_id = $1`},
		// Notifications in both directions.
		{"delete notifications", `DELETE FROM notifications WHERE user_id = $1 OR actor_id = $1`},
		// Social graph with counter repair on the surviving side.
		{"repair following counts", `UPDATE users SET following_count = following_count - 1 WHERE id IN (SELECT follower_id FROM follows WHERE followee_id = $1)`},
		{"repair follower counts", `UPDATE users SET follower_count = follower_count - 1 WHERE id IN (SELECT followee_id FROM follows WHERE follower_id = $1)`},
		{"delete follow edges", `DELETE FROM follows WHERE follower_id = $1 OR followee_id = $1`},
	}

	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, userID); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrUserNotFound
	}

	return tx.Commit()
}
