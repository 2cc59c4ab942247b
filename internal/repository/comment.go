package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"travelthreads/internal/model"
)

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a comment inside a caller-owned transaction so the post's
// comment_count can be bumped in the same unit of work.
func (r *commentRepository) Create(ctx context.Context, tx *sqlx.Tx, comment *model.Comment) error {
	query := `
		INSERT INTO comments (post_id, user_id, content, parent_comment_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, like_count, created_at
	`
	row := tx.QueryRowxContext(ctx, query, comment.PostID, comment.UserID, comment.Content, comment.ParentCommentID)
	err := row.Scan(&comment.ID, &comment.LikeCount, &comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, commentID int64) (*model.Comment, error) {
	query := `
		SELECT id, post_id, user_id, content, parent_comment_id, like_count, created_at
		FROM comments
		WHERE id = $1
	`
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, commentID)
	if err == sql.ErrNoRows {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}

// GetTopLevel returns the root comments of a post, newest first.
func (r *commentRepository) GetTopLevel(ctx context.Context, postID int64) ([]model.Comment, error) {
	query := `
		SELECT id, post_id, user_id, content, parent_comment_id, like_count, created_at
		FROM comments
		WHERE post_id = $1 AND parent_comment_id IS NULL
		ORDER BY created_at DESC, id DESC
	`
	var comments []model.Comment
	err := r.db.SelectContext(ctx, &comments, query, postID)
	if err != nil {
		return nil, fmt.Errorf("get top-level comments: %w", err)
	}
	return comments, nil
}

// GetReplies returns the replies to a comment, oldest first, so threads read
// top to bottom.
func (r *commentRepository) GetReplies(ctx context.Context, commentID int64) ([]model.Comment, error) {
	query := `
		SELECT id, post_id, user_id, content, parent_comment_id, like_count, created_at
		FROM comments
		WHERE parent_comment_id = $1
		ORDER BY created_at ASC, id ASC
	`
	var comments []model.Comment
	err := r.db.SelectContext(ctx, &comments, query, commentID)
	if err != nil {
		return nil, fmt.Errorf("get replies: %w", err)
	}
	return comments, nil
}

// Delete removes a comment, its replies and all their likes, returning the
// post ID and the number of comment rows removed so the caller can adjust
// comment_count by the full cascade. Ownership is checked in the service so
// the moderation path can reuse this.
func (r *commentRepository) Delete(ctx context.Context, tx *sqlx.Tx, commentID int64) (int64, int64, error) {
	var postID int64
	err := tx.GetContext(ctx, &postID, `SELECT post_id FROM comments WHERE id = $1`, commentID)
	if err == sql.ErrNoRows {
		return 0, 0, model.ErrCommentNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("get comment post: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM comment_likes WHERE comment_id = $1 OR comment_id IN (SELECT id FROM comments WHERE parent_comment_id = $1)`,
		commentID)
	if err != nil {
		return 0, 0, fmt.Errorf("delete comment likes: %w", err)
	}

	var removed int64
	for _, q := range []string{
		`DELETE FROM comments WHERE parent_comment_id = $1`,
		`DELETE FROM comments WHERE id = $1`,
	} {
		result, err := tx.ExecContext(ctx, q, commentID)
		if err != nil {
			return 0, 0, fmt.Errorf("delete comment: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return 0, 0, fmt.Errorf("get rows affected: %w", err)
		}
		removed += rows
	}

	return postID, removed, nil
}

func (r *commentRepository) Like(ctx context.Context, tx *sqlx.Tx, commentID, userID int64) error {
	query := `INSERT INTO comment_likes (comment_id, user_id) VALUES ($1, $2)`
	_, err := tx.ExecContext(ctx, query, commentID, userID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return model.ErrAlreadyLiked
		}
		return fmt.Errorf("insert comment like: %w", err)
	}
	return nil
}

func (r *commentRepository) Unlike(ctx context.Context, tx *sqlx.Tx, commentID, userID int64) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM comment_likes WHERE comment_id = $1 AND user_id = $2`, commentID, userID)
	if err != nil {
		return fmt.Errorf("delete comment like: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrNotLiked
	}
	return nil
}

func (r *commentRepository) IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, commentID int64, delta int) error {
	result, err := tx.ExecContext(ctx, `UPDATE comments SET like_count = like_count + $1 WHERE id = $2`, delta, commentID)
	if err != nil {
		return fmt.Errorf("update comment like_count: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrCommentNotFound
	}
	return nil
}
