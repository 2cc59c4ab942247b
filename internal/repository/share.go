package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"travelthreads/internal/model"
)

type shareRepository struct {
	db *sqlx.DB
}

func NewShareRepository(db *sqlx.DB) ShareRepository {
	return &shareRepository{db: db}
}

// Create inserts the share inside a caller-owned transaction so share_count
// moves with it. Shares are append-only; the same user may share a post
// more than once.
func (r *shareRepository) Create(ctx context.Context, tx *sqlx.Tx, share *model.Share) error {
	query := `
		INSERT INTO shares (post_id, user_id, caption)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	row := tx.QueryRowxContext(ctx, query, share.PostID, share.UserID, share.Caption)
	if err := row.Scan(&share.ID, &share.CreatedAt); err != nil {
		return fmt.Errorf("insert share: %w", err)
	}
	return nil
}

func (r *shareRepository) GetByPostID(ctx context.Context, postID int64) ([]model.Share, error) {
	query := `
		SELECT id, post_id, user_id, caption, created_at
		FROM shares
		WHERE post_id = $1
		ORDER BY created_at DESC, id DESC
	`
	var shares []model.Share
	err := r.db.SelectContext(ctx, &shares, query, postID)
	if err != nil {
		return nil, fmt.Errorf("get shares: %w", err)
	}
	return shares, nil
}
