// Package session provides an optional Redis cache of access-token to user
// lookups so hot current-user checks skip the identity provider round-trip.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"docugen/api/internal/model"
)

type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewCache creates a Redis-backed user cache.
func NewCache(redisURL string, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewCacheWithClient(client, ttl), nil
}

// NewCacheWithClient creates a cache from an existing Redis client.
func NewCacheWithClient(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, prefix: "user:", ttl: ttl}
}

// key hashes the access token so raw credentials never land in Redis.
func (c *Cache) key(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return c.prefix + hex.EncodeToString(sum[:])
}

// GetUser returns the cached user for a token. Any Redis failure reads as a
// miss; the caller falls through to the provider.
func (c *Cache) GetUser(ctx context.Context, accessToken string) (*model.User, bool) {
	raw, err := c.client.Get(ctx, c.key(accessToken)).Result()
	if err != nil {
		return nil, false
	}
	var user model.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, false
	}
	return &user, true
}

// SetUser stores the user under the token hash with the cache TTL. Failures
// are silent.
func (c *Cache) SetUser(ctx context.Context, accessToken string, user model.User) {
	raw, err := json.Marshal(user)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.key(accessToken), raw, c.ttl).Err()
}

// DeleteUser drops the cached entry, used on sign-out.
func (c *Cache) DeleteUser(ctx context.Context, accessToken string) {
	_ = c.client.Del(ctx, c.key(accessToken)).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
