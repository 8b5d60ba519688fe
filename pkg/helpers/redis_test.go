package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisJSONHelpers(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := NewRedisClient(mr.Addr(), "", 0)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	var got payload
	found, err := RedisGetJSON(ctx, rdb, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, RedisSetJSON(ctx, rdb, "k", payload{Name: "veri", Count: 3}, time.Minute))
	found, err = RedisGetJSON(ctx, rdb, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Name: "veri", Count: 3}, got)

	require.NoError(t, RedisDel(ctx, rdb, "k"))
	assert.False(t, mr.Exists("k"))
}

func TestRedisClaim(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := NewRedisClient(mr.Addr(), "", 0)
	ctx := context.Background()

	won, err := RedisClaim(ctx, rdb, "evt_1", time.Hour)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = RedisClaim(ctx, rdb, "evt_1", time.Hour)
	require.NoError(t, err)
	assert.False(t, won)
}

func TestRedisHelpersWithoutClient(t *testing.T) {
	ctx := context.Background()
	var got map[string]any

	_, err := RedisGetJSON(ctx, nil, "k", &got)
	assert.ErrorIs(t, err, ErrNoRedis)
	assert.ErrorIs(t, RedisSetJSON(ctx, nil, "k", 1, time.Minute), ErrNoRedis)
	assert.NoError(t, RedisDel(ctx, nil, "k"))
	_, err = RedisClaim(ctx, nil, "k", time.Minute)
	assert.ErrorIs(t, err, ErrNoRedis)
	assert.ErrorIs(t, PingRedis(ctx, nil, time.Second), ErrNoRedis)
}

func TestPingRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := NewRedisClient(mr.Addr(), "", 0)
	require.NoError(t, PingRedis(context.Background(), rdb, time.Second))

	mr.Close()
	assert.Error(t, PingRedis(context.Background(), rdb, time.Second))
}
