package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"travelthreads/internal/cache"
	"travelthreads/internal/model"
	"travelthreads/internal/repository"
)

const (
	// FeedDefaultLimit is the default number of posts per page.
	FeedDefaultLimit = 10

	// FeedMaxLimit is the maximum number of posts per page.
	FeedMaxLimit = 50

	// CacheWarmLimit is the max posts fetched when rebuilding a timeline.
	CacheWarmLimit = 500
)

// FeedService composes the following feed. The recent order streams from
// the precomputed timeline cache; popular and trending are ranked in
// memory over a bounded fan-out-on-read set.
type FeedService struct {
	timeline   cache.TimelineCache
	postRepo   repository.PostRepository
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	now        func() time.Time
}

func NewFeedService(
	timeline cache.TimelineCache,
	postRepo repository.PostRepository,
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
) *FeedService {
	return &FeedService{
		timeline:   timeline,
		postRepo:   postRepo,
		followRepo: followRepo,
		userRepo:   userRepo,
		now:        time.Now,
	}
}

// GetFeed returns one page of the user's feed in the requested order.
// Recent uses cursor pagination; popular and trending use page numbers
// because their ranking is positional, not chronological.
func (s *FeedService) GetFeed(ctx context.Context, userID int64, order string, cursor *string, page, limit int) (*model.FeedResponse, error) {
	if order == "" {
		order = model.FeedOrderRecent
	}
	if limit <= 0 {
		limit = FeedDefaultLimit
	}
	if limit > FeedMaxLimit {
		limit = FeedMaxLimit
	}

	switch order {
	case model.FeedOrderRecent:
		return s.getRecentFeed(ctx, userID, cursor, limit)
	case model.FeedOrderPopular, model.FeedOrderTrending:
		return s.getRankedFeed(ctx, userID, order, page, limit)
	default:
		return nil, model.ErrInvalidFeedOrder
	}
}

// getRecentFeed reads newest-first from the timeline cache, rebuilding it
// on a miss, then hydrates the page from the database.
func (s *FeedService) getRecentFeed(ctx context.Context, userID int64, cursor *string, limit int) (*model.FeedResponse, error) {
	startTime := time.Now()

	exists, err := s.timeline.Exists(ctx, userID)
	if err != nil {
		log.Printf("[FeedService] timeline check failed for user=%d: %v", userID, err)
	}
	if !exists {
		if err := s.warmTimeline(ctx, userID); err != nil {
			log.Printf("[FeedService] timeline warm failed for user=%d: %v", userID, err)
		}
	}

	var cursorScore *float64
	if cursor != nil {
		score, _, err := parseFeedCursor(*cursor)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor: %w", err)
		}
		cursorScore = &score
	}

	postIDs, scores, err := s.timeline.GetTimeline(ctx, userID, cursorScore, limit)
	if err != nil {
		return nil, fmt.Errorf("get timeline: %w", err)
	}

	if len(postIDs) == 0 {
		return &model.FeedResponse{Posts: []model.Post{}, Order: model.FeedOrderRecent}, nil
	}

	posts, err := s.hydratePosts(ctx, userID, postIDs)
	if err != nil {
		return nil, fmt.Errorf("hydrate posts: %w", err)
	}

	var nextCursor *string
	hasMore := len(posts) == limit
	if hasMore && len(scores) > 0 {
		lastPost := posts[len(posts)-1]
		c := formatFeedCursor(scores[len(scores)-1], lastPost.ID)
		nextCursor = &c
	}

	log.Printf("[FeedService] recent feed OK: user=%d posts=%d hasMore=%v duration=%v",
		userID, len(posts), hasMore, time.Since(startTime))

	return &model.FeedResponse{
		Posts:      posts,
		Order:      model.FeedOrderRecent,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// getRankedFeed loads the bounded candidate set from followed authors,
// ranks it in memory and slices out the requested page.
func (s *FeedService) getRankedFeed(ctx context.Context, userID int64, order string, page, limit int) (*model.FeedResponse, error) {
	if page <= 0 {
		page = 1
	}

	followeeIDs, err := s.followRepo.GetFolloweeIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get followee ids: %w", err)
	}
	followeeIDs = append(followeeIDs, userID)

	candidates, err := s.postRepo.GetByAuthorIDs(ctx, followeeIDs, model.FollowingFeedCap)
	if err != nil {
		return nil, fmt.Errorf("get candidate posts: %w", err)
	}

	switch order {
	case model.FeedOrderPopular:
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].LikeCount > candidates[j].LikeCount
		})
	case model.FeedOrderTrending:
		now := s.now()
		sort.SliceStable(candidates, func(i, j int) bool {
			return trendingScore(&candidates[i], now) > trendingScore(&candidates[j], now)
		})
	}

	start := (page - 1) * limit
	if start >= len(candidates) {
		return &model.FeedResponse{Posts: []model.Post{}, Order: order}, nil
	}
	end := start + limit
	if end > len(candidates) {
		end = len(candidates)
	}
	pagePosts := candidates[start:end]

	ids := make([]int64, len(pagePosts))
	for i, p := range pagePosts {
		ids[i] = p.ID
	}
	posts, err := s.hydratePosts(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate posts: %w", err)
	}

	return &model.FeedResponse{
		Posts:   posts,
		Order:   order,
		HasMore: end < len(candidates),
	}, nil
}

// trendingScore rewards engagement and decays with age: total interactions
// divided by the square root of the post's age in milliseconds.
func trendingScore(p *model.Post, now time.Time) float64 {
	ageMs := float64(now.Sub(p.CreatedAt).Milliseconds())
	if ageMs < 1 {
		ageMs = 1
	}
	engagement := float64(p.LikeCount + p.CommentCount + p.ShareCount)
	return engagement / math.Sqrt(ageMs)
}

// warmTimeline rebuilds the user's timeline from followed authors' posts.
func (s *FeedService) warmTimeline(ctx context.Context, userID int64) error {
	startTime := time.Now()

	followeeIDs, err := s.followRepo.GetFolloweeIDs(ctx, userID)
	if err != nil {
		return fmt.Errorf("get followee ids: %w", err)
	}
	followeeIDs = append(followeeIDs, userID)

	posts, err := s.postRepo.GetFeedPostIDs(ctx, followeeIDs, CacheWarmLimit)
	if err != nil {
		return fmt.Errorf("get feed post ids: %w", err)
	}
	if len(posts) == 0 {
		return nil
	}

	if err := s.timeline.Warm(ctx, userID, posts); err != nil {
		return fmt.Errorf("warm timeline: %w", err)
	}

	log.Printf("[FeedService] timeline warmed: user=%d posts=%d duration=%v",
		userID, len(posts), time.Since(startTime))
	return nil
}

// hydratePosts fetches full rows in timeline order and enriches them with
// authors, follow status and the viewer's like status via batch queries.
func (s *FeedService) hydratePosts(ctx context.Context, viewerID int64, postIDs []int64) ([]model.Post, error) {
	posts, err := s.postRepo.GetByIDs(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("get posts by ids: %w", err)
	}

	authorIDSet := make(map[int64]struct{})
	for _, p := range posts {
		authorIDSet[p.UserID] = struct{}{}
	}
	authorIDs := make([]int64, 0, len(authorIDSet))
	for id := range authorIDSet {
		authorIDs = append(authorIDs, id)
	}

	authors, err := s.userRepo.GetSummariesByIDs(ctx, authorIDs)
	if err != nil {
		log.Printf("[FeedService] get authors FAILED: %v", err)
		authors = map[int64]model.UserSummary{}
	}

	followStatus, err := s.followRepo.CheckFollows(ctx, viewerID, authorIDs)
	if err != nil {
		log.Printf("[FeedService] check follows FAILED: %v", err)
	}

	likeStatus, err := s.postRepo.CheckLikes(ctx, viewerID, postIDs)
	if err != nil {
		log.Printf("[FeedService] check likes FAILED: %v", err)
	}

	for i := range posts {
		if author, ok := authors[posts[i].UserID]; ok {
			if followStatus != nil {
				author.IsFollowing = followStatus[posts[i].UserID]
			}
			a := author
			posts[i].Author = &a
		}
		if likeStatus != nil {
			posts[i].IsLiked = likeStatus[posts[i].ID]
		}
	}

	return posts, nil
}

// parseFeedCursor parses an "id:timestamp" cursor into (score, id).
func parseFeedCursor(cursor string) (float64, int64, error) {
	parts := strings.Split(cursor, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid cursor format, expected id:timestamp")
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid post id in cursor: %w", err)
	}
	score, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid timestamp in cursor: %w", err)
	}
	return score, id, nil
}

// formatFeedCursor builds an "id:timestamp" cursor.
func formatFeedCursor(score float64, id int64) string {
	return fmt.Sprintf("%d:%.0f", id, score)
}
