package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestComposite() *Composite {
	return NewComposite(NewMemory(), NewMemory())
}

func TestComposite_RoutesByPrefix(t *testing.T) {
	ctx := context.Background()
	c := newTestComposite()

	require.NoError(t, c.Set(ctx, "session:user1", "ephemeral"))
	require.NoError(t, c.Set(ctx, "persistent:user1", "durable"))

	// The child backends observe the bare key, not the routing prefix
	// (spec.md §4.2: "session:KEY → session child with key KEY").
	v, ok, err := c.Session.Get(ctx, "user1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ephemeral", v)

	v, ok, err = c.Persistent.Get(ctx, "user1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "durable", v)

	// And the composite's own view round-trips through the prefixed key.
	v, ok, err = c.Get(ctx, "session:user1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ephemeral", v)
}

func TestComposite_UnprefixedKeyDefaultsToSession(t *testing.T) {
	ctx := context.Background()
	c := newTestComposite()

	require.NoError(t, c.Set(ctx, "nonamespace:key", "value"))

	v, ok, err := c.Session.Get(ctx, "nonamespace:key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "value", v)

	ok, err = c.Persistent.Has(ctx, "nonamespace:key")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestComposite_SetPersistentObservedAsBareKey is spec.md §8 invariant 8:
// set("persistent:k", v); get("persistent:k") yields v, and the
// underlying persistent child observes set("k", v) — nothing in session.
func TestComposite_SetPersistentObservedAsBareKey(t *testing.T) {
	ctx := context.Background()
	c := newTestComposite()

	require.NoError(t, c.Set(ctx, "persistent:k", "v"))

	v, ok, err := c.Get(ctx, "persistent:k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", v)

	v, ok, err = c.Persistent.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", v)

	ok, err = c.Session.Has(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = c.Session.Has(ctx, "persistent:k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestComposite_SizeSumsBothTiers(t *testing.T) {
	ctx := context.Background()
	c := newTestComposite()
	require.NoError(t, c.Set(ctx, "session:a", 1))
	require.NoError(t, c.Set(ctx, "persistent:b", 2))

	size, err := c.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, size)
}

func TestComposite_ClearWithNoPrefixClearsBothTiers(t *testing.T) {
	ctx := context.Background()
	c := newTestComposite()
	require.NoError(t, c.Set(ctx, "session:a", 1))
	require.NoError(t, c.Set(ctx, "persistent:b", 2))

	require.NoError(t, c.Clear(ctx, ""))

	size, err := c.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, size)
}
