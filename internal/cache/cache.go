// Package cache provides Redis-backed caching of per-query search batches,
// so repeated runs with the same skills do not burn search API quota.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"jobfinder/internal/pipeline"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "jobfinder:search"

type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New connects to Redis at the given URL (redis://host:port) and returns a
// Cache. The connection is verified with a ping before use.
func New(redisURL string, ttl time.Duration, logger *zap.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Cache{client: client, ttl: ttl, logger: logger}, nil
}

func (c *Cache) get(ctx context.Context, key string) ([]pipeline.JobResult, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}

	var results []pipeline.JobResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, false
	}

	return results, true
}

func (c *Cache) set(ctx context.Context, key string, results []pipeline.JobResult) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshaling cached batch: %w", err)
	}

	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// Searcher is a read-through caching decorator around another searcher.
type Searcher struct {
	inner pipeline.Searcher
	cache *Cache
}

func NewSearcher(inner pipeline.Searcher, cache *Cache) *Searcher {
	return &Searcher{inner: inner, cache: cache}
}

// Search returns a cached batch when present and fresh, otherwise asks the
// wrapped searcher and stores its result. Cache write failures are logged
// and do not fail the search.
func (s *Searcher) Search(ctx context.Context, query pipeline.SearchQuery) ([]pipeline.JobResult, error) {
	key := buildKey(query.Text)

	if results, ok := s.cache.get(ctx, key); ok {
		s.cache.logger.Debug("search cache hit", zap.String("query", query.Text))
		return results, nil
	}

	results, err := s.inner.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := s.cache.set(ctx, key, results); err != nil {
		s.cache.logger.Warn("storing search batch in cache", zap.Error(err))
	}

	return results, nil
}

func buildKey(query string) string {
	hash := sha256.Sum256([]byte(strings.ToLower(query)))
	return fmt.Sprintf("%s:%x", keyPrefix, hash[:8])
}
