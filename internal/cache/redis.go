package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/actuallystonmai/user-directory/internal/domain"
)

const (
	defaultTTL = time.Minute
	keyPrefix  = "users:list:"
	genKey     = "users:list-gen"
)

// Cache stores list query results under the current generation. Every write
// to the users table bumps the generation, so results read before the write
// can only land on keys nobody reads any more.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Connect parses a redis:// URL and returns a client that answered PING.
func Connect(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// buildKey expects a normalized query so equivalent requests share a key.
func buildKey(gen int64, q domain.ListQuery) string {
	v := url.Values{}
	v.Set("gen", strconv.FormatInt(gen, 10))
	v.Set("search", q.Search)
	v.Set("sort", string(q.Sort))
	v.Set("page", strconv.Itoa(q.Page))
	return keyPrefix + v.Encode()
}

// Generation returns the current cache generation; 0 before the first write.
func (c *Cache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, genKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get cache generation: %w", err)
	}
	return gen, nil
}

// Get a list result from cache. A miss returns found == false and no error.
func (c *Cache) Get(ctx context.Context, gen int64, q domain.ListQuery) (*domain.ListResult, bool, error) {
	key := buildKey(gen, q)
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get list from cache: %w", err)
	}

	var res domain.ListResult
	if err := json.Unmarshal([]byte(val), &res); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal list %s: %w", key, err)
	}
	return &res, true, nil
}

// Store a list result in cache under gen, the generation read before res was
// loaded.
func (c *Cache) Set(ctx context.Context, gen int64, q domain.ListQuery, res *domain.ListResult) error {
	val, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal list: %w", err)
	}
	if err := c.client.Set(ctx, buildKey(gen, q), val, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set list in cache: %w", err)
	}
	return nil
}

// Invalidate starts a new generation and removes the cached list pages.
func (c *Cache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, genKey).Err(); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache delete %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}
