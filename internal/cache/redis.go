package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/certlearn/stepwise/internal/progress"
)

// bestScoreTTL bounds staleness if a write path ever bypasses the cache.
const bestScoreTTL = 24 * time.Hour

// BestScoreCache fronts best-score lookups with Redis so dashboard and
// viewer reads do not hit the progress store on every page view. Writes
// keep the retained maximum and never regress a completed flag.
type BestScoreCache struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, addr, password string, db int) (*BestScoreCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &BestScoreCache{client: client}, nil
}

func key(learnerID, contentID string) string {
	return fmt.Sprintf("stepwise:progress:%s:%s", learnerID, contentID)
}

// Best returns the cached best score, or progress.ErrNotFound on a miss.
func (c *BestScoreCache) Best(ctx context.Context, learnerID, contentID string) (*progress.BestScore, error) {
	data, err := c.client.Get(ctx, key(learnerID, contentID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, progress.ErrNotFound
		}
		return nil, fmt.Errorf("get best score: %w", err)
	}

	var best progress.BestScore
	if err := json.Unmarshal(data, &best); err != nil {
		return nil, fmt.Errorf("parse cached best score: %w", err)
	}
	return &best, nil
}

// Store writes a best score, folding it into any cached value so a stale
// writer cannot lower the retained maximum.
func (c *BestScoreCache) Store(ctx context.Context, best *progress.BestScore) error {
	merged := *best
	if current, err := c.Best(ctx, best.LearnerID, best.ContentID); err == nil {
		if current.Score > merged.Score {
			merged.Score = current.Score
		}
		merged.IsCompleted = merged.IsCompleted || current.IsCompleted
	}

	data, err := json.Marshal(&merged)
	if err != nil {
		return fmt.Errorf("marshal best score: %w", err)
	}

	if err := c.client.Set(ctx, key(best.LearnerID, best.ContentID), data, bestScoreTTL).Err(); err != nil {
		return fmt.Errorf("set best score: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *BestScoreCache) Close() error {
	return c.client.Close()
}

var _ progress.Cache = (*BestScoreCache)(nil)
