package model

import (
	"errors"
	"time"
)

// Notification types
const (
	NotificationTypeFollow         = "follow"
	NotificationTypeLike           = "like"
	NotificationTypeComment        = "comment"
	NotificationTypeShare          = "share"
	NotificationTypeEventAttend    = "event_attend"
	NotificationTypeBlocked        = "blocked"
	NotificationTypeUnblocked      = "unblocked"
	NotificationTypeAdminGranted   = "admin_granted"
	NotificationTypeAdminRevoked   = "admin_revoked"
	NotificationTypeContentRemoved = "content_removed"
)

// Entity types referenced by notifications and reports.
const (
	EntityTypePost    = "post"
	EntityTypeComment = "comment"
	EntityTypeEvent   = "event"
	EntityTypeUser    = "user"
)

// Notification is a per-user notification record. The actor's display name
// and avatar are snapshotted at creation time; later profile edits do not
// rewrite history.
type Notification struct {
	ID               int64     `db:"id" json:"id"`
	UserID           int64     `db:"user_id" json:"-"` // Recipient
	ActorID          *int64    `db:"actor_id" json:"actor_id,omitempty"`
	Type             string    `db:"type" json:"type"`
	Message          string    `db:"message" json:"message"`
	EntityID         *int64    `db:"entity_id" json:"entity_id,omitempty"`
	EntityType       *string   `db:"entity_type" json:"entity_type,omitempty"`
	ActorDisplayName *string   `db:"actor_display_name" json:"actor_display_name,omitempty"`
	ActorAvatarURL   *string   `db:"actor_avatar_url" json:"actor_avatar_url,omitempty"`
	IsRead           bool      `db:"is_read" json:"is_read"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// NotificationListResponse is the notification list response with the badge
// counter.
type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}

// MarkReadRequest is the request body for marking notifications as read.
type MarkReadRequest struct {
	NotificationIDs []int64 `json:"notification_ids"`
}

var ErrNotificationNotFound = errors.New("notification not found")
