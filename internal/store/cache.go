package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agusespa/prsentinel/internal/types"
	"github.com/redis/go-redis/v9"
)

const DefaultCacheTTL = 24 * time.Hour

// KV is the part of *redis.Client the cache uses.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// ConnectRedis parses a redis:// URL and pings the server.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

// ReviewCache keeps aggregated reviews keyed by repository and head commit, so a re-delivered
// webhook re-renders instead of re-running every producer.
type ReviewCache struct {
	kv  KV
	ttl time.Duration
}

func NewReviewCache(kv KV, ttl time.Duration) *ReviewCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ReviewCache{kv: kv, ttl: ttl}
}

func cacheKey(repo, sha string) string {
	return "prsentinel:review:" + repo + ":" + sha
}

// Get returns nil without error on a miss.
func (c *ReviewCache) Get(ctx context.Context, repo, sha string) (*types.AggregatedReview, error) {
	data, err := c.kv.Get(ctx, cacheKey(repo, sha)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached review of %s@%s: %w", repo, sha, err)
	}

	var review types.AggregatedReview
	if err := json.Unmarshal(data, &review); err != nil {
		return nil, fmt.Errorf("decoding cached review of %s@%s: %w", repo, sha, err)
	}
	return &review, nil
}

func (c *ReviewCache) Put(ctx context.Context, repo, sha string, review types.AggregatedReview) error {
	data, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("encoding review of %s@%s: %w", repo, sha, err)
	}
	if err := c.kv.Set(ctx, cacheKey(repo, sha), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("caching review of %s@%s: %w", repo, sha, err)
	}
	return nil
}
