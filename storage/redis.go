package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coderift/toolmind/core"
	"github.com/go-redis/redis/v8"
)

// RedisBackend is the durable StorageBackend, grounded on the connection
// and namespacing conventions of a plain go-redis client. Values are
// JSON-serialized before SET — anything that fails to marshal is rejected
// at the call boundary rather than silently dropped, enforcing the rule
// that durable storage only ever accepts serializable values.
type RedisBackend struct {
	client    *redis.Client
	namespace string
	logger    core.Logger
}

// RedisOptions configures a RedisBackend.
type RedisOptions struct {
	Client    *redis.Client
	Namespace string
	Logger    core.Logger
}

// NewRedisBackend wraps an existing go-redis client. The caller owns the
// client's lifecycle (construction and Close); RedisBackend only issues
// commands against it.
func NewRedisBackend(opts RedisOptions) *RedisBackend {
	logger := opts.Logger
	if logger == nil {
		logger = core.NoOpLogger{}
	}
	return &RedisBackend{client: opts.Client, namespace: opts.Namespace, logger: logger}
}

var _ core.StorageBackend = (*RedisBackend)(nil)

func (r *RedisBackend) nsKey(key string) string {
	if r.namespace == "" {
		return key
	}
	return r.namespace + ":" + key
}

func (r *RedisBackend) Get(ctx context.Context, key string) (interface{}, bool, error) {
	raw, err := r.client.Get(ctx, r.nsKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %q: %w", key, err)
	}
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, false, fmt.Errorf("redis get %q: decode: %w", key, err)
	}
	return value, true, nil
}

// Set rejects values that cannot be JSON-serialized — the durable backend
// never accepts a value it cannot faithfully round-trip.
func (r *RedisBackend) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("redis set %q: value is not serializable: %w", key, err)
	}
	if err := r.client.Set(ctx, r.nsKey(key), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (r *RedisBackend) Delete(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Del(ctx, r.nsKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis delete %q: %w", key, err)
	}
	return n > 0, nil
}

func (r *RedisBackend) Has(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.nsKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %q: %w", key, err)
	}
	return n > 0, nil
}

func (r *RedisBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	pattern := r.nsKey(prefix) + "*"
	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, fmt.Errorf("redis keys %q: %w", pattern, err)
	}
	out := make([]string, 0, len(keys))
	stripPrefix := ""
	if r.namespace != "" {
		stripPrefix = r.namespace + ":"
	}
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, stripPrefix))
	}
	return out, nil
}

func (r *RedisBackend) Clear(ctx context.Context, prefix string) error {
	keys, err := r.Keys(ctx, prefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	nsKeys := make([]string, len(keys))
	for i, k := range keys {
		nsKeys[i] = r.nsKey(k)
	}
	if err := r.client.Del(ctx, nsKeys...).Err(); err != nil {
		return fmt.Errorf("redis clear %q: %w", prefix, err)
	}
	return nil
}

func (r *RedisBackend) Size(ctx context.Context) (int, error) {
	keys, err := r.Keys(ctx, "")
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Initialize pings Redis so startup fails fast on a bad connection.
func (r *RedisBackend) Initialize(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		r.logger.Error("redis backend: ping failed", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("redis backend: ping: %w", err)
	}
	return nil
}

// Shutdown closes the underlying client.
func (r *RedisBackend) Shutdown(_ context.Context) error {
	return r.client.Close()
}
