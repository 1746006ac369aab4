package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client), mr
}

func TestRedisCache_RoundTripAndMiss(t *testing.T) {
	c, mr := setupRedis(t)
	ctx := context.Background()

	_, err := c.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, 1, Summary{Count: 3, Total: decimal.RequireFromString("12.50")}))
	assert.True(t, mr.Exists("cart:summary:1"))
	assert.Greater(t, mr.TTL("cart:summary:1"), 9*time.Minute)

	got, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Count)
	assert.Equal(t, "12.50", got.Total.StringFixed(2))

	require.NoError(t, c.Delete(ctx, 1))
	_, err = c.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_CorruptValue(t *testing.T) {
	c, mr := setupRedis(t)
	require.NoError(t, mr.Set("cart:summary:5", "{not json"))

	_, err := c.Get(context.Background(), 5)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestSummary_FilledFromDBAndInvalidatedOnMutation(t *testing.T) {
	rc, mr := setupRedis(t)
	f := setup(t, rc)
	ctx := context.Background()

	require.NoError(t, f.svc.Add(ctx, 1, f.seeds.ID, 2))
	assert.False(t, mr.Exists("cart:summary:1"))

	sum, err := f.svc.Summary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Count)
	assert.Equal(t, "99.50", sum.Total.StringFixed(2))
	assert.True(t, mr.Exists("cart:summary:1"))

	require.NoError(t, f.svc.Add(ctx, 1, f.trowel.ID, 1))
	assert.False(t, mr.Exists("cart:summary:1"))

	sum, err = f.svc.Summary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Count)
	assert.Equal(t, "249.50", sum.Total.StringFixed(2))
}

func TestSummary_RedisDownFallsBackToDB(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	f := setup(t, NewRedisCache(client))
	ctx := context.Background()

	require.NoError(t, f.svc.Add(ctx, 1, f.seeds.ID, 1))

	sum, err := f.svc.Summary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Count)
}
