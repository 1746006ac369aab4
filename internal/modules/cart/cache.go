package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cart: cache miss")

// Cache stores cart summaries per user. Checkout totals never read it.
type Cache interface {
	Get(ctx context.Context, userID uint) (Summary, error)
	Set(ctx context.Context, userID uint, s Summary) error
	Delete(ctx context.Context, userID uint) error
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, baseTTL: 10 * time.Minute}
}

func (r *RedisCache) Get(ctx context.Context, userID uint) (Summary, error) {
	data, err := r.client.Get(ctx, summaryKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Summary{}, ErrCacheMiss
	}
	if err != nil {
		return Summary{}, fmt.Errorf("redis get: %w", err)
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return Summary{}, fmt.Errorf("decode cart summary: %w", err)
	}
	return s, nil
}

func (r *RedisCache) Set(ctx context.Context, userID uint, s Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode cart summary: %w", err)
	}
	// Up to a minute of jitter on top of baseTTL.
	ttl := r.baseTTL + time.Duration(rand.IntN(60))*time.Second
	if err := r.client.Set(ctx, summaryKey(userID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, userID uint) error {
	if err := r.client.Del(ctx, summaryKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func summaryKey(userID uint) string {
	return fmt.Sprintf("cart:summary:%d", userID)
}

// NoopCache always misses. It is used when Redis is not configured.
type NoopCache struct{}

func (NoopCache) Get(context.Context, uint) (Summary, error) { return Summary{}, ErrCacheMiss }
func (NoopCache) Set(context.Context, uint, Summary) error   { return nil }
func (NoopCache) Delete(context.Context, uint) error         { return nil }
