package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"scholarship-portal/internal/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestNewRedis_RequiresAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}

func TestRedisClient_JSONRoundTrip(t *testing.T) {
	mr, client := newMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Ping(ctx))
	require.NoError(t, client.SetJSON(ctx, "draft:u1", sample{Name: "a", Count: 2}, time.Hour))

	var got sample
	require.NoError(t, client.GetJSON(ctx, "draft:u1", &got))
	assert.Equal(t, sample{Name: "a", Count: 2}, got)
	assert.Equal(t, time.Hour, mr.TTL("draft:u1"))

	require.NoError(t, client.Del(ctx, "draft:u1"))
	assert.ErrorIs(t, client.GetJSON(ctx, "draft:u1", &got), ErrNotFound)
}

func TestRedisClient_GetJSONErrors(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	client := NewRedisFromClient(rdb)
	ctx := context.Background()

	mock.ExpectGet("broken").SetErr(errors.New("connection reset"))
	err := client.GetJSON(ctx, "broken", &sample{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	mock.ExpectGet("garbage").SetVal("{not json")
	err = client.GetJSON(ctx, "garbage", &sample{})
	assert.ErrorContains(t, err, "failed to decode")

	mock.ExpectGet("missing").RedisNil()
	assert.ErrorIs(t, client.GetJSON(ctx, "missing", &sample{}), ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisClient_SetJSONError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	client := NewRedisFromClient(rdb)

	mock.ExpectSet("k", []byte(`{"name":"x","count":1}`), time.Minute).SetErr(redis.ErrClosed)
	err := client.SetJSON(context.Background(), "k", sample{Name: "x", Count: 1}, time.Minute)
	assert.ErrorContains(t, err, "redis set k")
}
