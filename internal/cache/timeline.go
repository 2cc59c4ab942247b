package cache

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// TimelineKeyPrefix is the key prefix for per-user timeline caches.
	TimelineKeyPrefix = "timeline:user:"

	// TimelineCap is the maximum number of posts kept per user timeline.
	TimelineCap = 500

	// TimelineTTL expires timelines of inactive users.
	TimelineTTL = 7 * 24 * time.Hour
)

// PostScore is a post ID paired with its creation timestamp, the score
// used to order timeline entries.
type PostScore struct {
	PostID    int64
	Timestamp int64
}

// TimelineCache holds the precomputed reverse-chronological timeline for
// each user as a Redis sorted set, written by the fan-out workers and read
// by the feed service. A missing key means the timeline has to be rebuilt
// from the database.
type TimelineCache interface {
	// AddPost inserts one post into a user's timeline, trimming to cap.
	AddPost(ctx context.Context, userID, postID int64, timestamp int64) error

	// RemovePost removes a post from a user's timeline.
	RemovePost(ctx context.Context, userID, postID int64) error

	// GetTimeline returns post IDs newest-first. A nil cursorScore starts
	// from the top; otherwise only entries strictly older than the cursor
	// are returned.
	GetTimeline(ctx context.Context, userID int64, cursorScore *float64, limit int) (postIDs []int64, scores []float64, err error)

	// GetScore reports the timestamp score of a post in a user's timeline.
	GetScore(ctx context.Context, userID, postID int64) (score int64, found bool, err error)

	// Warm bulk-loads a rebuilt timeline.
	Warm(ctx context.Context, userID int64, posts []PostScore) error

	// Size returns the number of entries in a user's timeline.
	Size(ctx context.Context, userID int64) (int64, error)

	// Exists reports whether the user has a timeline key at all.
	Exists(ctx context.Context, userID int64) (bool, error)
}

// RedisTimelineCache implements TimelineCache on Redis sorted sets.
type RedisTimelineCache struct {
	client *redis.Client
}

func NewTimelineCache(client *redis.Client) TimelineCache {
	return &RedisTimelineCache{client: client}
}

func timelineKey(userID int64) string {
	return fmt.Sprintf("%s%d", TimelineKeyPrefix, userID)
}

// AddPost pipelines ZADD + ZREMRANGEBYRANK (trim to cap) + EXPIRE.
func (c *RedisTimelineCache) AddPost(ctx context.Context, userID, postID int64, timestamp int64) error {
	key := timelineKey(userID)

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(timestamp),
		Member: strconv.FormatInt(postID, 10),
	})
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-TimelineCap-1))
	pipe.Expire(ctx, key, TimelineTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[TimelineCache] AddPost FAILED: user=%d post=%d err=%v", userID, postID, err)
		return fmt.Errorf("add post to timeline: %w", err)
	}
	return nil
}

func (c *RedisTimelineCache) RemovePost(ctx context.Context, userID, postID int64) error {
	key := timelineKey(userID)
	member := strconv.FormatInt(postID, 10)

	if _, err := c.client.ZRem(ctx, key, member).Result(); err != nil {
		log.Printf("[TimelineCache] RemovePost FAILED: user=%d post=%d err=%v", userID, postID, err)
		return fmt.Errorf("remove post from timeline: %w", err)
	}
	return nil
}

// GetTimeline reads newest-first. With a cursor the range is exclusive, so
// the page after a cursor never repeats the cursor entry itself.
func (c *RedisTimelineCache) GetTimeline(ctx context.Context, userID int64, cursorScore *float64, limit int) ([]int64, []float64, error) {
	key := timelineKey(userID)

	var results []redis.Z
	var err error

	if cursorScore == nil {
		results, err = c.client.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	} else {
		results, err = c.client.ZRevRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
			Min:    "-inf",
			Max:    fmt.Sprintf("(%f", *cursorScore),
			Offset: 0,
			Count:  int64(limit),
		}).Result()
	}
	if err != nil {
		log.Printf("[TimelineCache] GetTimeline FAILED: user=%d err=%v", userID, err)
		return nil, nil, fmt.Errorf("get timeline: %w", err)
	}

	// Refresh TTL on access
	c.client.Expire(ctx, key, TimelineTTL)

	postIDs := make([]int64, len(results))
	scores := make([]float64, len(results))
	for i, z := range results {
		id, err := strconv.ParseInt(z.Member.(string), 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("parse post id: %w", err)
		}
		postIDs[i] = id
		scores[i] = z.Score
	}

	return postIDs, scores, nil
}

func (c *RedisTimelineCache) GetScore(ctx context.Context, userID, postID int64) (int64, bool, error) {
	key := timelineKey(userID)
	member := strconv.FormatInt(postID, 10)

	score, err := c.client.ZScore(ctx, key, member).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get score: %w", err)
	}
	return int64(score), true, nil
}

// Warm bulk-inserts a rebuilt timeline with a single pipelined ZADD.
func (c *RedisTimelineCache) Warm(ctx context.Context, userID int64, posts []PostScore) error {
	if len(posts) == 0 {
		return nil
	}

	key := timelineKey(userID)
	startTime := time.Now()

	pipe := c.client.Pipeline()
	members := make([]redis.Z, len(posts))
	for i, p := range posts {
		members[i] = redis.Z{
			Score:  float64(p.Timestamp),
			Member: strconv.FormatInt(p.PostID, 10),
		}
	}
	pipe.ZAdd(ctx, key, members...)
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-TimelineCap-1))
	pipe.Expire(ctx, key, TimelineTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[TimelineCache] Warm FAILED: user=%d posts=%d err=%v", userID, len(posts), err)
		return fmt.Errorf("warm timeline: %w", err)
	}

	log.Printf("[TimelineCache] Warm OK: user=%d posts=%d duration=%v",
		userID, len(posts), time.Since(startTime))
	return nil
}

func (c *RedisTimelineCache) Size(ctx context.Context, userID int64) (int64, error) {
	size, err := c.client.ZCard(ctx, timelineKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("get timeline size: %w", err)
	}
	return size, nil
}

func (c *RedisTimelineCache) Exists(ctx context.Context, userID int64) (bool, error) {
	exists, err := c.client.Exists(ctx, timelineKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("check timeline exists: %w", err)
	}
	return exists > 0, nil
}
