package redis

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rc := NewRedisCache(client, 2, 8)
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

func TestSetGetDelete(t *testing.T) {
	ctx := context.Background()
	rc, mr := newTestCache(t)

	require.NoError(t, rc.Set(ctx, "chat_list_u1", "[]", time.Minute))
	got, err := rc.Get(ctx, "chat_list_u1")
	require.NoError(t, err)
	require.Equal(t, "[]", got)

	mr.FastForward(2 * time.Minute)
	got, err = rc.Get(ctx, "chat_list_u1")
	require.NoError(t, err)
	require.Empty(t, got)

	require.NoError(t, rc.Set(ctx, "a", "1", 0))
	require.NoError(t, rc.Delete(ctx, "a", "missing"))
	require.False(t, mr.Exists("a"))
	require.NoError(t, rc.Delete(ctx))
}

func TestDeleteByPattern(t *testing.T) {
	ctx := context.Background()
	rc, mr := newTestCache(t)
	for _, k := range []string{"chat_list_u1", "chat_list_u2", "keep"} {
		require.NoError(t, rc.Set(ctx, k, "x", 0))
	}
	require.NoError(t, rc.DeleteByPattern(ctx, "chat_list_*"))
	require.False(t, mr.Exists("chat_list_u1"))
	require.True(t, mr.Exists("keep"))
}

func TestSubmitTaskRunsAll(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 2, 1)

	var n atomic.Int32
	for i := 0; i < 20; i++ {
		rc.SubmitTask(func() { n.Add(1) })
	}
	require.NoError(t, rc.Close())
	require.EqualValues(t, 20, n.Load())
}

func TestGetWrapsConnectionError(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}), 1, 1)
	defer rc.Close()
	mr.Close()

	_, err := rc.Get(context.Background(), "k")
	require.Error(t, err)
	require.Error(t, rc.Ping(context.Background()))
}
