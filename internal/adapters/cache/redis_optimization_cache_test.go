package cache

import (
	"context"
	"routeflow/internal/domain"
	"routeflow/internal/optimizer"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T) (*RedisOptimizationCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisOptimizationCache(client, time.Minute, nil), mr
}

func TestRedisOptimizationCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	eta := time.Date(2024, 5, 1, 9, 3, 0, 0, time.UTC)
	stop := domain.NewStop("Pier 39", domain.Coordinates{Lat: 37.8087, Lon: -122.4098}, "", eta)
	stop.SequenceNumber = 1
	stop.EstimatedArrival = &eta
	want := optimizer.Result{
		Stops:                []domain.Stop{stop},
		TotalDistanceMeters:  1234.5,
		TotalDurationSeconds: 272,
		Passes:               1,
	}
	require.NoError(t, c.Set(ctx, "k", want))
	assert.True(t, mr.Exists("routeflow:opt:k"))

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got.Stops, 1)
	assert.Equal(t, stop.ID, got.Stops[0].ID)
	assert.True(t, eta.Equal(*got.Stops[0].EstimatedArrival))
	assert.InDelta(t, 1234.5, got.TotalDistanceMeters, 1e-9)
	assert.Equal(t, 1, got.Passes)
}

func TestRedisOptimizationCacheExpires(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)

	require.NoError(t, c.Set(ctx, "k", optimizer.Result{}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisOptimizationCacheErrors(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)

	require.NoError(t, mr.Set("routeflow:opt:bad", "not json"))
	_, _, err := c.Get(ctx, "bad")
	require.Error(t, err)

	var noClient RedisOptimizationCache
	require.Error(t, noClient.Set(ctx, "k", optimizer.Result{}))
	_, _, err = noClient.Get(ctx, "k")
	require.Error(t, err)
}
