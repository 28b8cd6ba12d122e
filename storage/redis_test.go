package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func newTestRedisBackend(t *testing.T) (*RedisBackend, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backend := NewRedisBackend(RedisOptions{Client: client, Namespace: "toolmind-test"})
	return backend, mr
}

func TestRedisBackend_SetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend, _ := newTestRedisBackend(t)

	require.NoError(t, backend.Set(ctx, "greeting", map[string]interface{}{"text": "hello"}))

	v, ok, err := backend.Get(ctx, "greeting")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, map[string]interface{}{"text": "hello"}, v)
}

func TestRedisBackend_GetMissingKey(t *testing.T) {
	ctx := context.Background()
	backend, _ := newTestRedisBackend(t)

	_, ok, err := backend.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisBackend_RejectsUnserializableValue(t *testing.T) {
	ctx := context.Background()
	backend, _ := newTestRedisBackend(t)

	err := backend.Set(ctx, "bad", make(chan int))
	require.Error(t, err)
}

func TestRedisBackend_DeleteAndHas(t *testing.T) {
	ctx := context.Background()
	backend, _ := newTestRedisBackend(t)

	require.NoError(t, backend.Set(ctx, "k", 1.0))
	has, err := backend.Has(ctx, "k")
	require.NoError(t, err)
	require.True(t, has)

	deleted, err := backend.Delete(ctx, "k")
	require.NoError(t, err)
	require.True(t, deleted)

	has, err = backend.Has(ctx, "k")
	require.NoError(t, err)
	require.False(t, has)
}

func TestRedisBackend_KeysRespectsNamespaceAndPrefix(t *testing.T) {
	ctx := context.Background()
	backend, _ := newTestRedisBackend(t)

	require.NoError(t, backend.Set(ctx, "session:1", 1.0))
	require.NoError(t, backend.Set(ctx, "session:2", 2.0))
	require.NoError(t, backend.Set(ctx, "persistent:1", 3.0))

	keys, err := backend.Keys(ctx, "session:")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"session:1", "session:2"}, keys)
}

func TestRedisBackend_Initialize(t *testing.T) {
	ctx := context.Background()
	backend, _ := newTestRedisBackend(t)
	require.NoError(t, backend.Initialize(ctx))
}
