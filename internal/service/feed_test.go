package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"travelthreads/internal/cache"
	"travelthreads/internal/model"
)

func TestFeedService_GetFeed_InvalidOrder(t *testing.T) {
	svc := NewFeedService(&mockTimelineCache{}, &mockPostRepository{}, &mockFollowRepository{}, &mockUserRepository{})

	_, err := svc.GetFeed(context.Background(), 1, "hot", nil, 0, 0)
	if !errors.Is(err, model.ErrInvalidFeedOrder) {
		t.Fatalf("expected ErrInvalidFeedOrder, got %v", err)
	}
}

func TestFeedService_Trending_Ordering(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Old post with modest engagement, fresher posts around it. The
	// two-day-old post with 50 likes should beat the one-day-old post
	// with 3, and both should beat the ten-day-old one.
	old := model.Post{ID: 1, UserID: 2, LikeCount: 5, CreatedAt: now.Add(-10 * 24 * time.Hour)}
	hot := model.Post{ID: 2, UserID: 3, LikeCount: 50, CreatedAt: now.Add(-2 * 24 * time.Hour)}
	fresh := model.Post{ID: 3, UserID: 2, LikeCount: 3, CreatedAt: now.Add(-24 * time.Hour)}

	byID := map[int64]model.Post{1: old, 2: hot, 3: fresh}

	postRepo := &mockPostRepository{
		getByAuthorIDsFn: func(ctx context.Context, authorIDs []int64, limit int) ([]model.Post, error) {
			return []model.Post{old, hot, fresh}, nil
		},
		getByIDsFn: func(ctx context.Context, postIDs []int64) ([]model.Post, error) {
			out := make([]model.Post, 0, len(postIDs))
			for _, id := range postIDs {
				out = append(out, byID[id])
			}
			return out, nil
		},
	}
	followRepo := &mockFollowRepository{
		getFolloweeIDsFn: func(ctx context.Context, userID int64) ([]int64, error) {
			return []int64{2, 3}, nil
		},
	}

	svc := NewFeedService(&mockTimelineCache{}, postRepo, followRepo, &mockUserRepository{})
	svc.now = func() time.Time { return now }

	resp, err := svc.GetFeed(context.Background(), 1, model.FeedOrderTrending, nil, 1, 10)
	if err != nil {
		t.Fatalf("GetFeed returned error: %v", err)
	}

	gotIDs := make([]int64, len(resp.Posts))
	for i, p := range resp.Posts {
		gotIDs[i] = p.ID
	}
	wantIDs := []int64{2, 3, 1}
	if len(gotIDs) != len(wantIDs) {
		t.Fatalf("expected %d posts, got %d", len(wantIDs), len(gotIDs))
	}
	for i := range wantIDs {
		if gotIDs[i] != wantIDs[i] {
			t.Errorf("position %d: expected post %d, got %d", i, wantIDs[i], gotIDs[i])
		}
	}
}

func TestFeedService_Popular_OrdersByLikeCount(t *testing.T) {
	posts := []model.Post{
		{ID: 1, UserID: 2, LikeCount: 5, CreatedAt: time.Now()},
		{ID: 2, UserID: 3, LikeCount: 50, CreatedAt: time.Now()},
		{ID: 3, UserID: 2, LikeCount: 12, CreatedAt: time.Now()},
	}
	byID := map[int64]model.Post{}
	for _, p := range posts {
		byID[p.ID] = p
	}

	postRepo := &mockPostRepository{
		getByAuthorIDsFn: func(ctx context.Context, authorIDs []int64, limit int) ([]model.Post, error) {
			return posts, nil
		},
		getByIDsFn: func(ctx context.Context, postIDs []int64) ([]model.Post, error) {
			out := make([]model.Post, 0, len(postIDs))
			for _, id := range postIDs {
				out = append(out, byID[id])
			}
			return out, nil
		},
	}
	followRepo := &mockFollowRepository{
		getFolloweeIDsFn: func(ctx context.Context, userID int64) ([]int64, error) {
			return []int64{2, 3}, nil
		},
	}

	svc := NewFeedService(&mockTimelineCache{}, postRepo, followRepo, &mockUserRepository{})

	resp, err := svc.GetFeed(context.Background(), 1, model.FeedOrderPopular, nil, 1, 10)
	if err != nil {
		t.Fatalf("GetFeed returned error: %v", err)
	}

	wantIDs := []int64{2, 3, 1}
	for i := range wantIDs {
		if resp.Posts[i].ID != wantIDs[i] {
			t.Errorf("position %d: expected post %d, got %d", i, wantIDs[i], resp.Posts[i].ID)
		}
	}
	if resp.HasMore {
		t.Error("expected HasMore=false when all candidates fit one page")
	}
}

func TestFeedService_Popular_Pagination(t *testing.T) {
	candidates := make([]model.Post, 5)
	byID := map[int64]model.Post{}
	for i := range candidates {
		p := model.Post{ID: int64(i + 1), UserID: 2, LikeCount: 100 - i, CreatedAt: time.Now()}
		candidates[i] = p
		byID[p.ID] = p
	}

	postRepo := &mockPostRepository{
		getByAuthorIDsFn: func(ctx context.Context, authorIDs []int64, limit int) ([]model.Post, error) {
			return candidates, nil
		},
		getByIDsFn: func(ctx context.Context, postIDs []int64) ([]model.Post, error) {
			out := make([]model.Post, 0, len(postIDs))
			for _, id := range postIDs {
				out = append(out, byID[id])
			}
			return out, nil
		},
	}

	svc := NewFeedService(&mockTimelineCache{}, postRepo, &mockFollowRepository{}, &mockUserRepository{})

	// Page 1 of 2 should report more pages remaining.
	page1, err := svc.GetFeed(context.Background(), 1, model.FeedOrderPopular, nil, 1, 2)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(page1.Posts) != 2 || !page1.HasMore {
		t.Fatalf("page 1: expected 2 posts with HasMore=true, got %d posts HasMore=%v", len(page1.Posts), page1.HasMore)
	}

	// The last partial page closes the sequence.
	page3, err := svc.GetFeed(context.Background(), 1, model.FeedOrderPopular, nil, 3, 2)
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if len(page3.Posts) != 1 || page3.HasMore {
		t.Fatalf("page 3: expected 1 post with HasMore=false, got %d posts HasMore=%v", len(page3.Posts), page3.HasMore)
	}

	// Past the end returns an empty page, not an error.
	page9, err := svc.GetFeed(context.Background(), 1, model.FeedOrderPopular, nil, 9, 2)
	if err != nil {
		t.Fatalf("page 9: %v", err)
	}
	if len(page9.Posts) != 0 {
		t.Fatalf("page 9: expected empty page, got %d posts", len(page9.Posts))
	}
}

func TestFeedService_Recent_CursorPaging(t *testing.T) {
	postIDs := []int64{30, 20}
	scores := []float64{1700000300000, 1700000200000}

	var gotCursorScore *float64
	timeline := &mockTimelineCache{
		getTimelineFn: func(ctx context.Context, userID int64, cursorScore *float64, limit int) ([]int64, []float64, error) {
			gotCursorScore = cursorScore
			return postIDs, scores, nil
		},
	}
	postRepo := &mockPostRepository{
		getByIDsFn: func(ctx context.Context, ids []int64) ([]model.Post, error) {
			out := make([]model.Post, len(ids))
			for i, id := range ids {
				out[i] = model.Post{ID: id, UserID: 2}
			}
			return out, nil
		},
	}

	svc := NewFeedService(timeline, postRepo, &mockFollowRepository{}, &mockUserRepository{})

	cursor := "40:1700000400000"
	resp, err := svc.GetFeed(context.Background(), 1, model.FeedOrderRecent, &cursor, 0, 2)
	if err != nil {
		t.Fatalf("GetFeed returned error: %v", err)
	}

	if gotCursorScore == nil || *gotCursorScore != 1700000400000 {
		t.Fatalf("expected cursor score 1700000400000 passed to timeline, got %v", gotCursorScore)
	}
	if !resp.HasMore {
		t.Error("expected HasMore=true for a full page")
	}
	if resp.NextCursor == nil || *resp.NextCursor != "20:1700000200000" {
		t.Fatalf("expected next cursor 20:1700000200000, got %v", resp.NextCursor)
	}
}

func TestFeedService_Recent_InvalidCursor(t *testing.T) {
	svc := NewFeedService(&mockTimelineCache{}, &mockPostRepository{}, &mockFollowRepository{}, &mockUserRepository{})

	for _, cursor := range []string{"garbage", "1:2:3", "abc:123", "1:xyz"} {
		c := cursor
		if _, err := svc.GetFeed(context.Background(), 1, model.FeedOrderRecent, &c, 0, 10); err == nil {
			t.Errorf("cursor %q: expected error, got nil", cursor)
		}
	}
}

func TestFeedService_Recent_WarmsColdTimeline(t *testing.T) {
	warmed := []cache.PostScore{
		{PostID: 10, Timestamp: 1700000100000},
		{PostID: 11, Timestamp: 1700000200000},
	}

	timeline := &mockTimelineCache{
		existsFn: func(ctx context.Context, userID int64) (bool, error) {
			return false, nil
		},
		getTimelineFn: func(ctx context.Context, userID int64, cursorScore *float64, limit int) ([]int64, []float64, error) {
			return []int64{11, 10}, []float64{1700000200000, 1700000100000}, nil
		},
	}
	postRepo := &mockPostRepository{
		getFeedPostIDsFn: func(ctx context.Context, followeeIDs []int64, limit int) ([]cache.PostScore, error) {
			return warmed, nil
		},
		getByIDsFn: func(ctx context.Context, ids []int64) ([]model.Post, error) {
			out := make([]model.Post, len(ids))
			for i, id := range ids {
				out[i] = model.Post{ID: id, UserID: 2}
			}
			return out, nil
		},
	}
	followRepo := &mockFollowRepository{
		getFolloweeIDsFn: func(ctx context.Context, userID int64) ([]int64, error) {
			return []int64{2}, nil
		},
	}

	svc := NewFeedService(timeline, postRepo, followRepo, &mockUserRepository{})

	resp, err := svc.GetFeed(context.Background(), 1, model.FeedOrderRecent, nil, 0, 10)
	if err != nil {
		t.Fatalf("GetFeed returned error: %v", err)
	}

	if len(timeline.warmCalls) != 1 {
		t.Fatalf("expected one warm call, got %d", len(timeline.warmCalls))
	}
	if len(timeline.warmCalls[0]) != 2 {
		t.Errorf("expected 2 posts warmed, got %d", len(timeline.warmCalls[0]))
	}
	if len(resp.Posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(resp.Posts))
	}
}

func TestFeedService_Recent_EmptyTimeline(t *testing.T) {
	svc := NewFeedService(&mockTimelineCache{}, &mockPostRepository{}, &mockFollowRepository{}, &mockUserRepository{})

	resp, err := svc.GetFeed(context.Background(), 1, "", nil, 0, 0)
	if err != nil {
		t.Fatalf("GetFeed returned error: %v", err)
	}
	if len(resp.Posts) != 0 {
		t.Errorf("expected empty feed, got %d posts", len(resp.Posts))
	}
	if resp.HasMore {
		t.Error("expected HasMore=false for empty feed")
	}
	if resp.Order != model.FeedOrderRecent {
		t.Errorf("expected default order %q, got %q", model.FeedOrderRecent, resp.Order)
	}
}

func TestFeedService_HydrateAttachesAuthorsAndLikes(t *testing.T) {
	timeline := &mockTimelineCache{
		getTimelineFn: func(ctx context.Context, userID int64, cursorScore *float64, limit int) ([]int64, []float64, error) {
			return []int64{5, 6}, []float64{2000, 1000}, nil
		},
	}
	postRepo := &mockPostRepository{
		getByIDsFn: func(ctx context.Context, ids []int64) ([]model.Post, error) {
			return []model.Post{
				{ID: 5, UserID: 2},
				{ID: 6, UserID: 3},
			}, nil
		},
		checkLikesFn: func(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
			return map[int64]bool{6: true}, nil
		},
	}
	followRepo := &mockFollowRepository{
		checkFollowsFn: func(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error) {
			return map[int64]bool{2: true}, nil
		},
	}
	userRepo := &mockUserRepository{
		getSummariesByIDsFn: func(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
			return map[int64]model.UserSummary{
				2: {ID: 2, Username: "marco"},
				3: {ID: 3, Username: "polo"},
			}, nil
		},
	}

	svc := NewFeedService(timeline, postRepo, followRepo, userRepo)

	resp, err := svc.GetFeed(context.Background(), 1, model.FeedOrderRecent, nil, 0, 10)
	if err != nil {
		t.Fatalf("GetFeed returned error: %v", err)
	}
	if len(resp.Posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(resp.Posts))
	}

	first := resp.Posts[0]
	if first.Author == nil || first.Author.Username != "marco" {
		t.Fatalf("expected post 5 authored by marco, got %+v", first.Author)
	}
	if !first.Author.IsFollowing {
		t.Error("expected viewer to be following marco")
	}
	if first.IsLiked {
		t.Error("expected post 5 not liked by viewer")
	}

	second := resp.Posts[1]
	if second.Author == nil || second.Author.Username != "polo" {
		t.Fatalf("expected post 6 authored by polo, got %+v", second.Author)
	}
	if second.Author.IsFollowing {
		t.Error("expected viewer not following polo")
	}
	if !second.IsLiked {
		t.Error("expected post 6 liked by viewer")
	}
}

func TestFeedCursorRoundTrip(t *testing.T) {
	c := formatFeedCursor(1700000500000, 42)
	score, id, err := parseFeedCursor(c)
	if err != nil {
		t.Fatalf("parseFeedCursor(%q) returned error: %v", c, err)
	}
	if id != 42 || score != 1700000500000 {
		t.Errorf("expected (42, 1700000500000), got (%d, %.0f)", id, score)
	}
}
