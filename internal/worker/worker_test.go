package worker

import (
	"context"
	"errors"
	"testing"

	"travelthreads/internal/cache"
	"travelthreads/internal/model"
	"travelthreads/internal/queue"
)

type timelineOp struct {
	userID int64
	postID int64
}

type fakeTimeline struct {
	added   []timelineOp
	removed []timelineOp
	addErr  error
}

func (f *fakeTimeline) AddPost(ctx context.Context, userID, postID int64, timestamp int64) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, timelineOp{userID, postID})
	return nil
}

func (f *fakeTimeline) RemovePost(ctx context.Context, userID, postID int64) error {
	f.removed = append(f.removed, timelineOp{userID, postID})
	return nil
}

func (f *fakeTimeline) GetTimeline(ctx context.Context, userID int64, cursorScore *float64, limit int) ([]int64, []float64, error) {
	return nil, nil, nil
}

func (f *fakeTimeline) GetScore(ctx context.Context, userID, postID int64) (int64, bool, error) {
	return 0, false, nil
}

func (f *fakeTimeline) Warm(ctx context.Context, userID int64, posts []cache.PostScore) error {
	return nil
}

func (f *fakeTimeline) Size(ctx context.Context, userID int64) (int64, error) { return 0, nil }

func (f *fakeTimeline) Exists(ctx context.Context, userID int64) (bool, error) { return true, nil }

type fakeFollowers struct {
	followers map[int64][]int64
	err       error
}

func (f *fakeFollowers) GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.followers[userID], nil
}

type fakePosts struct {
	posts    map[int64][]cache.PostScore
	gotLimit int
}

func (f *fakePosts) GetRecentPostsByUser(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error) {
	f.gotLimit = limit
	return f.posts[userID], nil
}

type notifCall struct {
	recipientID int64
	actorID     int64
	notifType   string
	entityID    *int64
	entityType  *string
}

type fakeNotifier struct {
	calls []notifCall
}

func (f *fakeNotifier) CreateNotification(ctx context.Context, recipientID, actorID int64, notifType string, entityID *int64, entityType *string) error {
	f.calls = append(f.calls, notifCall{recipientID, actorID, notifType, entityID, entityType})
	return nil
}

func TestHandler_PostCreated_FansOutToFollowersAndAuthor(t *testing.T) {
	timeline := &fakeTimeline{}
	followers := &fakeFollowers{followers: map[int64][]int64{7: {2, 3, 4}}}
	h := NewHandler(timeline, followers, &fakePosts{})

	event := queue.NewPostCreatedEvent(100, 7)
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent returned error: %v", err)
	}

	// Three followers plus the author's own timeline.
	if len(timeline.added) != 4 {
		t.Fatalf("expected 4 timeline adds, got %d", len(timeline.added))
	}
	got := map[int64]bool{}
	for _, op := range timeline.added {
		if op.postID != 100 {
			t.Errorf("expected post 100, got %d", op.postID)
		}
		got[op.userID] = true
	}
	for _, userID := range []int64{2, 3, 4, 7} {
		if !got[userID] {
			t.Errorf("missing fan-out to user %d", userID)
		}
	}
}

func TestHandler_PostCreated_FollowerLookupFailure(t *testing.T) {
	followers := &fakeFollowers{err: errors.New("db down")}
	h := NewHandler(&fakeTimeline{}, followers, &fakePosts{})

	if err := h.HandleEvent(context.Background(), queue.NewPostCreatedEvent(100, 7)); err == nil {
		t.Fatal("expected error when follower lookup fails")
	}
}

func TestHandler_PostDeleted_RemovesFromTimelines(t *testing.T) {
	timeline := &fakeTimeline{}
	followers := &fakeFollowers{followers: map[int64][]int64{7: {2, 3}}}
	h := NewHandler(timeline, followers, &fakePosts{})

	if err := h.HandleEvent(context.Background(), queue.NewPostDeletedEvent(100, 7)); err != nil {
		t.Fatalf("HandleEvent returned error: %v", err)
	}

	if len(timeline.removed) != 3 {
		t.Fatalf("expected 3 removals, got %d", len(timeline.removed))
	}
}

func TestHandler_UserFollowed_BackfillsAndNotifies(t *testing.T) {
	timeline := &fakeTimeline{}
	posts := &fakePosts{posts: map[int64][]cache.PostScore{
		9: {{PostID: 50, Timestamp: 1000}, {PostID: 51, Timestamp: 2000}},
	}}
	notifier := &fakeNotifier{}

	h := NewHandler(timeline, &fakeFollowers{}, posts)
	h.SetNotificationCreator(notifier)

	if err := h.HandleEvent(context.Background(), queue.NewUserFollowedEvent(4, 9)); err != nil {
		t.Fatalf("HandleEvent returned error: %v", err)
	}

	if posts.gotLimit != backfillLimit {
		t.Errorf("expected backfill limit %d, got %d", backfillLimit, posts.gotLimit)
	}
	if len(timeline.added) != 2 {
		t.Fatalf("expected 2 backfilled posts, got %d", len(timeline.added))
	}
	for _, op := range timeline.added {
		if op.userID != 4 {
			t.Errorf("expected backfill into follower 4's timeline, got user %d", op.userID)
		}
	}

	if len(notifier.calls) != 1 {
		t.Fatalf("expected one follow notification, got %d", len(notifier.calls))
	}
	call := notifier.calls[0]
	if call.recipientID != 9 || call.actorID != 4 || call.notifType != model.NotificationTypeFollow {
		t.Errorf("unexpected notification %+v", call)
	}
}

func TestHandler_UserUnfollowed_PurgesTimeline(t *testing.T) {
	timeline := &fakeTimeline{}
	posts := &fakePosts{posts: map[int64][]cache.PostScore{
		9: {{PostID: 50, Timestamp: 1000}, {PostID: 51, Timestamp: 2000}},
	}}
	h := NewHandler(timeline, &fakeFollowers{}, posts)

	if err := h.HandleEvent(context.Background(), queue.NewUserUnfollowedEvent(4, 9)); err != nil {
		t.Fatalf("HandleEvent returned error: %v", err)
	}

	if posts.gotLimit != purgeLimit {
		t.Errorf("expected purge limit %d, got %d", purgeLimit, posts.gotLimit)
	}
	if len(timeline.removed) != 2 {
		t.Fatalf("expected 2 removals, got %d", len(timeline.removed))
	}
	for _, op := range timeline.removed {
		if op.userID != 4 {
			t.Errorf("expected removal from follower 4's timeline, got user %d", op.userID)
		}
	}
}

func TestHandler_InteractionNotifications(t *testing.T) {
	cases := []struct {
		name      string
		event     queue.ActivityEvent
		wantType  string
		wantOwner int64
	}{
		{"like", queue.NewPostLikedEvent(100, 7, 4), model.NotificationTypeLike, 7},
		{"comment", queue.NewPostCommentedEvent(100, 7, 4, 55), model.NotificationTypeComment, 7},
		{"share", queue.NewPostSharedEvent(100, 7, 4), model.NotificationTypeShare, 7},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			notifier := &fakeNotifier{}
			h := NewHandler(&fakeTimeline{}, &fakeFollowers{}, &fakePosts{})
			h.SetNotificationCreator(notifier)

			if err := h.HandleEvent(context.Background(), tc.event); err != nil {
				t.Fatalf("HandleEvent returned error: %v", err)
			}

			if len(notifier.calls) != 1 {
				t.Fatalf("expected one notification, got %d", len(notifier.calls))
			}
			call := notifier.calls[0]
			if call.recipientID != tc.wantOwner || call.actorID != 4 || call.notifType != tc.wantType {
				t.Errorf("unexpected notification %+v", call)
			}
			if call.entityID == nil || *call.entityID != 100 {
				t.Errorf("expected entity id 100, got %v", call.entityID)
			}
			if call.entityType == nil || *call.entityType != model.EntityTypePost {
				t.Errorf("expected entity type post, got %v", call.entityType)
			}
		})
	}
}

func TestHandler_SelfInteraction_NoNotification(t *testing.T) {
	notifier := &fakeNotifier{}
	h := NewHandler(&fakeTimeline{}, &fakeFollowers{}, &fakePosts{})
	h.SetNotificationCreator(notifier)

	if err := h.HandleEvent(context.Background(), queue.NewPostLikedEvent(100, 7, 7)); err != nil {
		t.Fatalf("HandleEvent returned error: %v", err)
	}
	if err := h.HandleEvent(context.Background(), queue.NewEventAttendedEvent(30, 7, 7)); err != nil {
		t.Fatalf("HandleEvent returned error: %v", err)
	}

	if len(notifier.calls) != 0 {
		t.Fatalf("expected no notifications for self-interactions, got %d", len(notifier.calls))
	}
}

func TestHandler_EventAttended_NotifiesCreator(t *testing.T) {
	notifier := &fakeNotifier{}
	h := NewHandler(&fakeTimeline{}, &fakeFollowers{}, &fakePosts{})
	h.SetNotificationCreator(notifier)

	if err := h.HandleEvent(context.Background(), queue.NewEventAttendedEvent(30, 7, 4)); err != nil {
		t.Fatalf("HandleEvent returned error: %v", err)
	}

	if len(notifier.calls) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.calls))
	}
	call := notifier.calls[0]
	if call.recipientID != 7 || call.notifType != model.NotificationTypeEventAttend {
		t.Errorf("unexpected notification %+v", call)
	}
	if call.entityID == nil || *call.entityID != 30 {
		t.Errorf("expected entity id 30, got %v", call.entityID)
	}
}

func TestHandler_UnknownEventType(t *testing.T) {
	h := NewHandler(&fakeTimeline{}, &fakeFollowers{}, &fakePosts{})

	err := h.HandleEvent(context.Background(), queue.ActivityEvent{Type: "mystery"})
	if err == nil {
		t.Fatal("expected error for unknown event type")
	}
}
