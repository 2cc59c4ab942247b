package model

import (
	"errors"
	"time"
)

// Share is an append-only record of a user re-sharing a post.
type Share struct {
	ID        int64        `db:"id" json:"id"`
	PostID    int64        `db:"post_id" json:"post_id"`
	UserID    int64        `db:"user_id" json:"-"`
	Caption   *string      `db:"caption" json:"caption,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	Author    *UserSummary `json:"author,omitempty"` // Joined field
}

// SharePostRequest is the request body for sharing a post.
type SharePostRequest struct {
	Caption *string `json:"caption"`
}

const MaxShareCaptionLength = 500

var ErrShareCaptionTooLong = errors.New("share caption too long")
