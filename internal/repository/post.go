package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"travelthreads/internal/cache"
	"travelthreads/internal/model"
)

const postColumns = `id, user_id, title, content, image_url, location_name, location_keywords,
       like_count, comment_count, share_count, created_at, updated_at`

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts a new post and bumps the author's thread_count in one
// transaction, keeping the denormalized counter equal to the number of
// extant posts.
func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO posts (user_id, title, content, image_url, location_name, location_keywords)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, like_count, comment_count, share_count, created_at, updated_at
	`
	row := tx.QueryRowxContext(ctx, query,
		post.UserID,
		post.Title,
		post.Content,
		post.ImageURL,
		post.LocationName,
		post.LocationKeywords,
	)
	err = row.Scan(&post.ID, &post.LikeCount, &post.CommentCount, &post.ShareCount, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE users SET thread_count = thread_count + 1 WHERE id = $1`, post.UserID)
	if err != nil {
		return fmt.Errorf("increment thread count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (r *postRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1 AND deleted_at IS NULL`
	var post model.Post
	err := r.db.GetContext(ctx, &post, query, postID)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

// GetByIDs retrieves multiple posts and preserves the input order, which
// matters when hydrating a ranked feed from the cache.
func (r *postRepository) GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error) {
	if len(postIDs) == 0 {
		return []model.Post{}, nil
	}

	query := `SELECT ` + postColumns + ` FROM posts WHERE id = ANY($1) AND deleted_at IS NULL`
	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts, query, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("get posts by ids: %w", err)
	}

	postsMap := make(map[int64]model.Post, len(posts))
	for _, p := range posts {
		postsMap[p.ID] = p
	}
	ordered := make([]model.Post, 0, len(postIDs))
	for _, id := range postIDs {
		if p, ok := postsMap[id]; ok {
			ordered = append(ordered, p)
		}
	}

	return ordered, nil
}

func (r *postRepository) List(ctx context.Context, limit int) ([]model.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`
	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (r *postRepository) GetUserPosts(ctx context.Context, userID int64, limit int) ([]model.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("get user posts: %w", err)
	}
	return posts, nil
}

// Search matches the query against title, content and location name as a
// case-insensitive substring, and against location keywords exactly.
func (r *postRepository) Search(ctx context.Context, query string, limit int) ([]model.Post, error) {
	pattern := "%" + query + "%"
	q := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE deleted_at IS NULL
		  AND (title ILIKE $1 OR content ILIKE $1 OR location_name ILIKE $1
		       OR LOWER($2) = ANY(location_keywords))
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`
	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts, q, pattern, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	return posts, nil
}

// GetByAuthorIDs is the fan-out-on-read query behind the following feed:
// one query filtered on the resolved followee set, newest first, capped.
func (r *postRepository) GetByAuthorIDs(ctx context.Context, authorIDs []int64, limit int) ([]model.Post, error) {
	if len(authorIDs) == 0 {
		return []model.Post{}, nil
	}

	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE user_id = ANY($1) AND deleted_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts, query, pq.Array(authorIDs), limit)
	if err != nil {
		return nil, fmt.Errorf("get posts by authors: %w", err)
	}
	return posts, nil
}

// Update overwrites the mutable columns with the already-merged post.
func (r *postRepository) Update(ctx context.Context, post *model.Post) error {
	query := `
		UPDATE posts
		SET title = $1, content = $2, image_url = $3, location_name = $4,
		    location_keywords = $5, updated_at = NOW()
		WHERE id = $6 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		post.Title, post.Content, post.ImageURL, post.LocationName, post.LocationKeywords, post.ID)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrPostNotFound
	}
	return nil
}

// Delete cascades in one transaction: comment likes, comments, shares and
// post likes referencing the post go first, then the post is soft-deleted
// and the author's thread_count decremented.
func (r *postRepository) Delete(ctx context.Context, postID, userID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE posts SET deleted_at = NOW()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`, postID, userID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		var exists bool
		r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1 AND deleted_at IS NULL)`, postID)
		if exists {
			return model.ErrNotPostOwner
		}
		return model.ErrPostNotFound
	}

	cascade := []string{
		`DELETE FROM comment_likes WHERE comment_id IN (SELECT id FROM comments WHERE post_id = $1)`,
		`DELETE FROM comments WHERE post_id = $1`,
		`DELETE FROM shares WHERE post_id = $1`,
		`DELETE FROM post_likes WHERE post_id = $1`,
	}
	for _, q := range cascade {
		if _, err := tx.ExecContext(ctx, q, postID); err != nil {
			return fmt.Errorf("cascade delete: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `UPDATE users SET thread_count = thread_count - 1 WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("decrement thread count: %w", err)
	}

	return tx.Commit()
}

func (r *postRepository) GetAuthorID(ctx context.Context, postID int64) (int64, error) {
	var authorID int64
	err := r.db.GetContext(ctx, &authorID, `SELECT user_id FROM posts WHERE id = $1`, postID)
	if err == sql.ErrNoRows {
		return 0, model.ErrPostNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get author id: %w", err)
	}
	return authorID, nil
}

func (r *postRepository) Exists(ctx context.Context, postID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1 AND deleted_at IS NULL)`, postID)
	if err != nil {
		return false, fmt.Errorf("check post exists: %w", err)
	}
	return exists, nil
}

// Like inserts a like record. The composite primary key is the server-side
// guard against double-likes; a duplicate maps to ErrAlreadyLiked.
func (r *postRepository) Like(ctx context.Context, tx *sqlx.Tx, postID, userID int64) error {
	query := `INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2)`
	_, err := tx.ExecContext(ctx, query, postID, userID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return model.ErrAlreadyLiked
		}
		return fmt.Errorf("insert like: %w", err)
	}
	return nil
}

// Unlike deletes a like record. Returns ErrNotLiked if not found.
func (r *postRepository) Unlike(ctx context.Context, tx *sqlx.Tx, postID, userID int64) error {
	query := `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`
	result, err := tx.ExecContext(ctx, query, postID, userID)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
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

// CheckLikes checks which posts the user has liked, one query for the batch.
func (r *postRepository) CheckLikes(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
	if len(postIDs) == 0 {
		return make(map[int64]bool), nil
	}

	query := `SELECT post_id FROM post_likes WHERE user_id = $1 AND post_id = ANY($2)`
	var likedIDs []int64
	err := r.db.SelectContext(ctx, &likedIDs, query, userID, pq.Array(postIDs))
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("check likes: %w", err)
	}

	result := make(map[int64]bool)
	for _, id := range postIDs {
		result[id] = false
	}
	for _, id := range likedIDs {
		result[id] = true
	}

	return result, nil
}

// GetPostLikers returns paginated users who liked a post.
func (r *postRepository) GetPostLikers(ctx context.Context, postID int64, cursor *string, limit int) ([]model.UserSummary, *string, error) {
	var query string
	var args []interface{}

	if cursor == nil {
		query = `
			SELECT u.id, u.username, u.display_name, u.avatar_url
			FROM post_likes pl
			JOIN users u ON u.id = pl.user_id
			WHERE pl.post_id = $1
			ORDER BY pl.created_at DESC, pl.id DESC
			LIMIT $2
		`
		args = []interface{}{postID, limit + 1}
	} else {
		ts, id, err := parseCursor(*cursor)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cursor: %w", err)
		}
		query = `
			SELECT u.id, u.username, u.display_name, u.avatar_url
			FROM post_likes pl
			JOIN users u ON u.id = pl.user_id
			WHERE pl.post_id = $1 AND (pl.created_at, pl.id) < ($2, $3)
			ORDER BY pl.created_at DESC, pl.id DESC
			LIMIT $4
		`
		args = []interface{}{postID, ts, id, limit + 1}
	}

	var users []model.UserSummary
	err := r.db.SelectContext(ctx, &users, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("get post likers: %w", err)
	}

	var nextCursor *string
	if len(users) > limit {
		users = users[:limit]
		var likeInfo struct {
			ID        int64     `db:"id"`
			CreatedAt time.Time `db:"created_at"`
		}
		err := r.db.GetContext(ctx, &likeInfo, `
			SELECT id, created_at FROM post_likes
			WHERE post_id = $1 AND user_id = $2
		`, postID, users[len(users)-1].ID)
		if err == nil {
			c := formatCursor(likeInfo.CreatedAt, likeInfo.ID)
			nextCursor = &c
		}
	}

	return users, nextCursor, nil
}

// IncrementLikeCount atomically updates the like_count on a post.
func (r *postRepository) IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error {
	return r.incrementCounter(ctx, tx, "like_count", postID, delta)
}

// IncrementCommentCount atomically updates the comment_count on a post.
func (r *postRepository) IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error {
	return r.incrementCounter(ctx, tx, "comment_count", postID, delta)
}

// IncrementShareCount atomically updates the share_count on a post.
func (r *postRepository) IncrementShareCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error {
	return r.incrementCounter(ctx, tx, "share_count", postID, delta)
}

func (r *postRepository) incrementCounter(ctx context.Context, tx *sqlx.Tx, column string, postID int64, delta int) error {
	query := fmt.Sprintf(`UPDATE posts SET %s = %s + $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`, column, column)
	result, err := tx.ExecContext(ctx, query, delta, postID)
	if err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrPostNotFound
	}
	return nil
}

// GetRecentPostsByUser returns recent posts by a user as (id, timestamp)
// pairs for timeline-cache backfill.
func (r *postRepository) GetRecentPostsByUser(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error) {
	query := `
		SELECT id, EXTRACT(EPOCH FROM created_at)::bigint as timestamp
		FROM posts
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.selectPostScores(ctx, query, userID, limit)
}

// GetFeedPostIDs returns post IDs from all followees for cache warming.
func (r *postRepository) GetFeedPostIDs(ctx context.Context, followeeIDs []int64, limit int) ([]cache.PostScore, error) {
	if len(followeeIDs) == 0 {
		return []cache.PostScore{}, nil
	}

	query := `
		SELECT id, EXTRACT(EPOCH FROM created_at)::bigint as timestamp
		FROM posts
		WHERE user_id = ANY($1) AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.selectPostScores(ctx, query, pq.Array(followeeIDs), limit)
}

func (r *postRepository) selectPostScores(ctx context.Context, query string, args ...interface{}) ([]cache.PostScore, error) {
	type row struct {
		ID        int64 `db:"id"`
		Timestamp int64 `db:"timestamp"`
	}
	var rows []row
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get post scores: %w", err)
	}

	posts := make([]cache.PostScore, len(rows))
	for i, rw := range rows {
		posts[i] = cache.PostScore{PostID: rw.ID, Timestamp: rw.Timestamp}
	}
	return posts, nil
}
