package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// Post represents a travel thread with its denormalized engagement counters.
type Post struct {
	ID               int64          `db:"id" json:"id"`
	UserID           int64          `db:"user_id" json:"user_id"`
	Title            string         `db:"title" json:"title"`
	Content          string         `db:"content" json:"content"`
	ImageURL         *string        `db:"image_url" json:"image_url,omitempty"`
	LocationName     *string        `db:"location_name" json:"location_name,omitempty"`
	LocationKeywords pq.StringArray `db:"location_keywords" json:"location_keywords,omitempty"`
	LikeCount        int            `db:"like_count" json:"like_count"`
	CommentCount     int            `db:"comment_count" json:"comment_count"`
	ShareCount       int            `db:"share_count" json:"share_count"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
	DeletedAt        *time.Time     `db:"deleted_at" json:"-"`

	// Joined fields (not in posts table)
	Author  *UserSummary `json:"author,omitempty"`
	IsLiked bool         `json:"is_liked"`
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	ImageURL *string `json:"image_url"`
	Location *string `json:"location"`
}

// UpdatePostRequest carries a partial update; nil fields are left untouched.
type UpdatePostRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	ImageURL *string `json:"image_url"`
	Location *string `json:"location"`
}

// PostListResponse is the paginated post list response.
type PostListResponse struct {
	Posts      []Post  `json:"posts"`
	NextCursor *string `json:"next_cursor,omitempty"`
	HasMore    bool    `json:"has_more"`
}

// LikersListResponse is the paginated likers list response.
type LikersListResponse struct {
	Users      []UserSummary `json:"users"`
	NextCursor *string       `json:"next_cursor,omitempty"`
	HasMore    bool          `json:"has_more"`
}

// Feed sort orders.
const (
	FeedOrderRecent   = "recent"
	FeedOrderPopular  = "popular"
	FeedOrderTrending = "trending"
)

// FeedResponse is the paginated feed response.
type FeedResponse struct {
	Posts      []Post  `json:"posts"`
	Order      string  `json:"order"`
	NextCursor *string `json:"next_cursor,omitempty"`
	HasMore    bool    `json:"has_more"`
}

// Post constraints
const (
	MaxPostTitleLength   = 200
	MaxPostContentLength = 10000

	// FollowingFeedCap bounds the fan-out-on-read query.
	FollowingFeedCap = 50
)

// Post errors
var (
	ErrPostNotFound     = errors.New("post not found")
	ErrNotPostOwner     = errors.New("not the owner of this post")
	ErrTitleRequired    = errors.New("post title is required")
	ErrTitleTooLong     = errors.New("post title too long")
	ErrPostContentLong  = errors.New("post content too long")
	ErrAlreadyLiked     = errors.New("already liked")
	ErrNotLiked         = errors.New("not liked")
	ErrInvalidFeedOrder = errors.New("invalid feed order")
)
