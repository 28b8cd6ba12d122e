package contextmgr_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coderift/toolmind/contextmgr"
	"github.com/coderift/toolmind/core"
	"github.com/coderift/toolmind/storage"
)

func newManager(t *testing.T, historyCap int) *contextmgr.Manager {
	t.Helper()
	return contextmgr.New(storage.NewMemory(), storage.NewMemory(), historyCap)
}

func TestSessionRoundTrip(t *testing.T) {
	m := newManager(t, 10)
	m.SessionSet("k", "v")
	v, ok := m.SessionGet("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	assert.True(t, m.SessionHas("k"))
	assert.True(t, m.SessionDelete("k"))
	assert.False(t, m.SessionHas("k"))
}

func TestPersistentRoundTrip(t *testing.T) {
	m := newManager(t, 10)
	ctx := context.Background()
	require.NoError(t, m.PersistentSet(ctx, "k", 42))
	v, ok, err := m.PersistentGet(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestIndexSlot(t *testing.T) {
	m := newManager(t, 10)
	assert.False(t, m.HasIndex())
	_, err := m.GetIndex()
	assert.ErrorIs(t, err, core.ErrIndexNotReady)

	m.SetIndex("fake-index-handle")
	assert.True(t, m.HasIndex())
	v, err := m.GetIndex()
	require.NoError(t, err)
	assert.Equal(t, "fake-index-handle", v)
}

// TestHistoryOverwrite is scenario D from spec.md §8: capacity 10, append
// 20 messages "m-0".."m-19", expect "m-10".."m-19" in order.
func TestHistoryOverwrite(t *testing.T) {
	m := newManager(t, 10)
	for i := 0; i < 20; i++ {
		m.AddToHistory(core.Message{ID: fmt.Sprintf("m-%d", i)})
	}
	history := m.GetHistory(0)
	require.Len(t, history, 10)
	for i, msg := range history {
		assert.Equal(t, fmt.Sprintf("m-%d", i+10), msg.ID)
	}
}

func TestClearHistory(t *testing.T) {
	m := newManager(t, 10)
	m.AddToHistory(core.Message{ID: "m-0"})
	m.ClearHistory()
	assert.Empty(t, m.GetHistory(0))
}

func TestGetStats(t *testing.T) {
	m := newManager(t, 5)
	m.SessionSet("a", 1)
	require.NoError(t, m.PersistentSet(context.Background(), "b", 2))
	m.AddToHistory(core.Message{ID: "m-0"})
	m.SetIndex(struct{}{})

	stats := m.GetStats()
	assert.Equal(t, 1, stats.SessionSize)
	assert.Equal(t, 1, stats.PersistentSize)
	assert.Equal(t, 1, stats.HistorySize)
	assert.Equal(t, 5, stats.MaxHistorySize)
	assert.True(t, stats.HasIndex)
}

func TestInitializeShutdownFanOut(t *testing.T) {
	m := newManager(t, 10)
	require.NoError(t, m.Initialize(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))
}

func TestContextAccessorSatisfiedByManager(t *testing.T) {
	var _ core.ContextAccessor = (*contextmgr.Manager)(nil)
}

func TestSessionValueSurvivesJSONRoundTripIndependently(t *testing.T) {
	// Session values are opaque to the manager; a caller storing a raw
	// JSON payload should get the identical bytes back.
	m := newManager(t, 10)
	payload := json.RawMessage(`{"a":1}`)
	m.SessionSet("raw", payload)
	v, ok := m.SessionGet("raw")
	require.True(t, ok)
	assert.Equal(t, payload, v)
}
