package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "a", 1))
	v, ok, err := m.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, v)

	deleted, err := m.Delete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, ok, err = m.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_KeysWithPrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "session:1", "x"))
	require.NoError(t, m.Set(ctx, "session:2", "y"))
	require.NoError(t, m.Set(ctx, "persistent:1", "z"))

	keys, err := m.Keys(ctx, "session:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"session:1", "session:2"}, keys)
}

func TestMemory_ClearWithPrefixOnlyAffectsMatching(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "session:1", "x"))
	require.NoError(t, m.Set(ctx, "persistent:1", "z"))

	require.NoError(t, m.Clear(ctx, "session:"))

	has, err := m.Has(ctx, "session:1")
	require.NoError(t, err)
	assert.False(t, has)

	has, err = m.Has(ctx, "persistent:1")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestMemory_Size(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	size, err := m.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, size)

	require.NoError(t, m.Set(ctx, "a", 1))
	require.NoError(t, m.Set(ctx, "b", 2))

	size, err = m.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, size)
}
