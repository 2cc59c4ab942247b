package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"travelthreads/internal/cache"
	"travelthreads/internal/model"
	"travelthreads/internal/queue"
)

// FollowerProvider abstracts follower lookups so workers don't depend on
// the repository package directly.
type FollowerProvider interface {
	GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error)
}

// RecentPostsProvider fetches recent posts for timeline backfill and purge.
type RecentPostsProvider interface {
	GetRecentPostsByUser(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error)
}

// NotificationCreator lets workers create notifications without importing
// the service package.
type NotificationCreator interface {
	CreateNotification(ctx context.Context, recipientID, actorID int64, notifType string, entityID *int64, entityType *string) error
}

const (
	backfillLimit = 20
	purgeLimit    = 100
)

// Handler processes activity events from the stream: timeline fan-out for
// post and follow events, notification creation for interaction events.
type Handler struct {
	timeline         cache.TimelineCache
	followerProvider FollowerProvider
	postsProvider    RecentPostsProvider
	notifCreator     NotificationCreator // nil disables notification events
}

func NewHandler(
	timeline cache.TimelineCache,
	followerProvider FollowerProvider,
	postsProvider RecentPostsProvider,
) *Handler {
	return &Handler{
		timeline:         timeline,
		followerProvider: followerProvider,
		postsProvider:    postsProvider,
	}
}

// SetNotificationCreator wires notification creation for interaction events.
func (h *Handler) SetNotificationCreator(nc NotificationCreator) {
	h.notifCreator = nc
}

// HandleEvent routes an event to its handler by type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.ActivityEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventPostCreated:
		err = h.handlePostCreated(ctx, event)
	case queue.EventPostDeleted:
		err = h.handlePostDeleted(ctx, event)
	case queue.EventUserFollowed:
		err = h.handleUserFollowed(ctx, event)
	case queue.EventUserUnfollowed:
		err = h.handleUserUnfollowed(ctx, event)
	case queue.EventPostLiked:
		err = h.notifyPostInteraction(ctx, event, model.NotificationTypeLike)
	case queue.EventPostCommented:
		err = h.notifyPostInteraction(ctx, event, model.NotificationTypeComment)
	case queue.EventPostShared:
		err = h.notifyPostInteraction(ctx, event, model.NotificationTypeShare)
	case queue.EventEventAttended:
		err = h.handleEventAttended(ctx, event)
	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}
	return nil
}

// handlePostCreated fans the post out to every follower timeline plus the
// author's own. Individual cache failures don't abort the fan-out.
func (h *Handler) handlePostCreated(ctx context.Context, event queue.ActivityEvent) error {
	followers, err := h.followerProvider.GetFollowerIDs(ctx, event.AuthorID)
	if err != nil {
		return fmt.Errorf("get followers: %w", err)
	}

	var failCount int
	for _, followerID := range followers {
		if err := h.timeline.AddPost(ctx, followerID, event.PostID, event.Timestamp); err != nil {
			failCount++
		}
	}
	if err := h.timeline.AddPost(ctx, event.AuthorID, event.PostID, event.Timestamp); err != nil {
		log.Printf("[Worker] PostCreated: author timeline add failed: %v", err)
	}

	log.Printf("[Worker] PostCreated DONE: post=%d fanout=%d failed=%d",
		event.PostID, len(followers)+1, failCount)
	return nil
}

// handlePostDeleted removes the post from every follower timeline.
func (h *Handler) handlePostDeleted(ctx context.Context, event queue.ActivityEvent) error {
	followers, err := h.followerProvider.GetFollowerIDs(ctx, event.AuthorID)
	if err != nil {
		return fmt.Errorf("get followers: %w", err)
	}

	var failCount int
	for _, followerID := range followers {
		if err := h.timeline.RemovePost(ctx, followerID, event.PostID); err != nil {
			failCount++
		}
	}
	if err := h.timeline.RemovePost(ctx, event.AuthorID, event.PostID); err != nil {
		log.Printf("[Worker] PostDeleted: author timeline remove failed: %v", err)
	}

	log.Printf("[Worker] PostDeleted DONE: post=%d fanout=%d failed=%d",
		event.PostID, len(followers)+1, failCount)
	return nil
}

// handleUserFollowed backfills the followee's recent posts into the
// follower's timeline, then notifies the followee.
func (h *Handler) handleUserFollowed(ctx context.Context, event queue.ActivityEvent) error {
	posts, err := h.postsProvider.GetRecentPostsByUser(ctx, event.FolloweeID, backfillLimit)
	if err != nil {
		return fmt.Errorf("get recent posts: %w", err)
	}

	var failCount int
	for _, p := range posts {
		if err := h.timeline.AddPost(ctx, event.FollowerID, p.PostID, p.Timestamp); err != nil {
			failCount++
		}
	}

	log.Printf("[Worker] UserFollowed DONE: follower=%d backfilled=%d failed=%d",
		event.FollowerID, len(posts), failCount)

	if h.notifCreator != nil {
		err := h.notifCreator.CreateNotification(ctx, event.FolloweeID, event.FollowerID,
			model.NotificationTypeFollow, nil, nil)
		if err != nil {
			log.Printf("[Worker] UserFollowed: create notification failed: %v", err)
		}
	}

	return nil
}

// handleUserUnfollowed purges the followee's posts from the follower's
// timeline.
func (h *Handler) handleUserUnfollowed(ctx context.Context, event queue.ActivityEvent) error {
	posts, err := h.postsProvider.GetRecentPostsByUser(ctx, event.FolloweeID, purgeLimit)
	if err != nil {
		return fmt.Errorf("get posts to remove: %w", err)
	}

	var failCount int
	for _, p := range posts {
		if err := h.timeline.RemovePost(ctx, event.FollowerID, p.PostID); err != nil {
			failCount++
		}
	}

	log.Printf("[Worker] UserUnfollowed DONE: follower=%d removed=%d failed=%d",
		event.FollowerID, len(posts), failCount)
	return nil
}

// notifyPostInteraction notifies the post author about a like, comment or
// share. Self-interactions never notify.
func (h *Handler) notifyPostInteraction(ctx context.Context, event queue.ActivityEvent, notifType string) error {
	if h.notifCreator == nil {
		return nil
	}
	if event.ActorID == event.AuthorID {
		return nil
	}

	postID := event.PostID
	entityType := model.EntityTypePost
	err := h.notifCreator.CreateNotification(ctx, event.AuthorID, event.ActorID, notifType, &postID, &entityType)
	if err != nil {
		return fmt.Errorf("create %s notification: %w", notifType, err)
	}
	return nil
}

// handleEventAttended notifies the event creator about a new attendee.
func (h *Handler) handleEventAttended(ctx context.Context, event queue.ActivityEvent) error {
	if h.notifCreator == nil {
		return nil
	}
	if event.ActorID == event.EventCreatorID {
		return nil
	}

	eventID := event.EventID
	entityType := model.EntityTypeEvent
	err := h.notifCreator.CreateNotification(ctx, event.EventCreatorID, event.ActorID,
		model.NotificationTypeEventAttend, &eventID, &entityType)
	if err != nil {
		return fmt.Errorf("create attend notification: %w", err)
	}
	return nil
}
