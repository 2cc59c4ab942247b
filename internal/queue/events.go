package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types carried on the activity stream. Timeline events drive the
// fan-out workers; interaction events drive notification creation.
const (
	EventPostCreated    = "post_created"
	EventPostDeleted    = "post_deleted"
	EventUserFollowed   = "user_followed"
	EventUserUnfollowed = "user_unfollowed"
	EventPostLiked      = "post_liked"
	EventPostCommented  = "post_commented"
	EventPostShared     = "post_shared"
	EventEventAttended  = "event_attended"
)

// Stream names
const (
	StreamActivity = "stream:activity"
)

// Consumer group name for activity workers
const (
	ConsumerGroupActivity = "activity_workers"
)

// ActivityEvent is the single envelope published to the activity stream.
// The set of populated fields depends on Type.
type ActivityEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`

	// Post events
	PostID   int64 `json:"post_id,omitempty"`
	AuthorID int64 `json:"author_id,omitempty"`

	// Follow events
	FollowerID int64 `json:"follower_id,omitempty"`
	FolloweeID int64 `json:"followee_id,omitempty"`

	// Interaction events: the user who liked/commented/shared/attended
	ActorID int64 `json:"actor_id,omitempty"`

	// Comment events
	CommentID int64 `json:"comment_id,omitempty"`

	// Event-attendance events
	EventID        int64 `json:"event_id,omitempty"`
	EventCreatorID int64 `json:"event_creator_id,omitempty"`
}

// NewPostCreatedEvent: workers fan the post out to every follower timeline.
func NewPostCreatedEvent(postID, authorID int64) ActivityEvent {
	return ActivityEvent{
		Type:      EventPostCreated,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		AuthorID:  authorID,
	}
}

// NewPostDeletedEvent: workers remove the post from follower timelines.
func NewPostDeletedEvent(postID, authorID int64) ActivityEvent {
	return ActivityEvent{
		Type:      EventPostDeleted,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		AuthorID:  authorID,
	}
}

// NewUserFollowedEvent: workers backfill the followee's recent posts into
// the follower's timeline and notify the followee.
func NewUserFollowedEvent(followerID, followeeID int64) ActivityEvent {
	return ActivityEvent{
		Type:       EventUserFollowed,
		Timestamp:  time.Now().Unix(),
		FollowerID: followerID,
		FolloweeID: followeeID,
	}
}

// NewUserUnfollowedEvent: workers purge the followee's posts from the
// follower's timeline.
func NewUserUnfollowedEvent(followerID, followeeID int64) ActivityEvent {
	return ActivityEvent{
		Type:       EventUserUnfollowed,
		Timestamp:  time.Now().Unix(),
		FollowerID: followerID,
		FolloweeID: followeeID,
	}
}

// NewPostLikedEvent: workers notify the post author.
func NewPostLikedEvent(postID, authorID, actorID int64) ActivityEvent {
	return ActivityEvent{
		Type:      EventPostLiked,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		AuthorID:  authorID,
		ActorID:   actorID,
	}
}

// NewPostCommentedEvent: workers notify the post author.
func NewPostCommentedEvent(postID, authorID, actorID, commentID int64) ActivityEvent {
	return ActivityEvent{
		Type:      EventPostCommented,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		AuthorID:  authorID,
		ActorID:   actorID,
		CommentID: commentID,
	}
}

// NewPostSharedEvent: workers notify the post author.
func NewPostSharedEvent(postID, authorID, actorID int64) ActivityEvent {
	return ActivityEvent{
		Type:      EventPostShared,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		AuthorID:  authorID,
		ActorID:   actorID,
	}
}

// NewEventAttendedEvent: workers notify the event creator.
func NewEventAttendedEvent(eventID, creatorID, actorID int64) ActivityEvent {
	return ActivityEvent{
		Type:           EventEventAttended,
		Timestamp:      time.Now().Unix(),
		EventID:        eventID,
		EventCreatorID: creatorID,
		ActorID:        actorID,
	}
}

// ToMap converts the event to XADD field-value pairs; the payload travels
// JSON-encoded in a single "data" field.
func (e ActivityEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseActivityEvent parses an ActivityEvent from stream message values.
func ParseActivityEvent(values map[string]interface{}) (ActivityEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return ActivityEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event ActivityEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return ActivityEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
