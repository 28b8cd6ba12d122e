// Package contextmgr implements the ContextManager described in spec.md
// §4.3: the owner of session (ephemeral) and persistent (durable) storage,
// the bounded message history, and the nullable RepositoryIndex slot
// shared agents read through. It is the superset of the two ContextManager
// variants the teacher's source carries (one with persistent storage, one
// without) — see DESIGN.md "Open Questions resolved".
package contextmgr

import (
	"context"
	"fmt"
	"sync"

	"github.com/coderift/toolmind/buffer"
	"github.com/coderift/toolmind/core"
)

// DefaultHistoryCapacity is used when a Manager is built with capacity <= 0.
const DefaultHistoryCapacity = 1000

// Manager owns one session backend, one persistent backend, one bounded
// history buffer, and a nullable RepositoryIndex slot. The session backend
// is accessed synchronously: per spec.md §4.3/§5, the sync helpers are only
// a convenience over a guaranteed-synchronous (in-memory) backend, so a
// Manager must be constructed with an in-memory session store. Persistent
// access is always async, since that backend may be a network round trip
// (e.g. storage.RedisBackend).
type Manager struct {
	session    core.StorageBackend
	persistent core.StorageBackend
	history    *buffer.Circular[core.Message]

	mu    sync.RWMutex
	index interface{}
}

var _ core.ContextAccessor = (*Manager)(nil)

// New builds a Manager. historyCapacity <= 0 uses DefaultHistoryCapacity.
func New(session, persistent core.StorageBackend, historyCapacity int) *Manager {
	if historyCapacity <= 0 {
		historyCapacity = DefaultHistoryCapacity
	}
	return &Manager{
		session:    session,
		persistent: persistent,
		history:    buffer.NewCircular[core.Message](historyCapacity),
	}
}

// Initialize fans out to both backends' optional Initialize hook.
func (m *Manager) Initialize(ctx context.Context) error {
	if init, ok := m.session.(core.InitializableBackend); ok {
		if err := init.Initialize(ctx); err != nil {
			return fmt.Errorf("contextmgr: session backend initialize: %w", err)
		}
	}
	if init, ok := m.persistent.(core.InitializableBackend); ok {
		if err := init.Initialize(ctx); err != nil {
			return fmt.Errorf("contextmgr: persistent backend initialize: %w", err)
		}
	}
	return nil
}

// Shutdown fans out to both backends' optional Shutdown hook, running both
// even if the first fails, and returns the first error encountered.
func (m *Manager) Shutdown(ctx context.Context) error {
	var first error
	if sd, ok := m.session.(core.ShutdownableBackend); ok {
		if err := sd.Shutdown(ctx); err != nil {
			first = fmt.Errorf("contextmgr: session backend shutdown: %w", err)
		}
	}
	if sd, ok := m.persistent.(core.ShutdownableBackend); ok {
		if err := sd.Shutdown(ctx); err != nil && first == nil {
			first = fmt.Errorf("contextmgr: persistent backend shutdown: %w", err)
		}
	}
	return first
}

// --- session: synchronous convenience wrappers ---

// SessionGet reads key from the session store, blocking only as long as the
// in-memory backend's own lock is held.
func (m *Manager) SessionGet(key string) (interface{}, bool) {
	v, ok, _ := m.session.Get(context.Background(), key)
	return v, ok
}

// SessionSet writes key to the session store.
func (m *Manager) SessionSet(key string, value interface{}) {
	_ = m.session.Set(context.Background(), key, value)
}

// SessionDelete removes key from the session store, reporting whether it
// existed.
func (m *Manager) SessionDelete(key string) bool {
	existed, _ := m.session.Delete(context.Background(), key)
	return existed
}

// SessionHas reports whether key is present in the session store.
func (m *Manager) SessionHas(key string) bool {
	has, _ := m.session.Has(context.Background(), key)
	return has
}

// SessionKeys returns session keys matching prefix.
func (m *Manager) SessionKeys(prefix string) []string {
	keys, _ := m.session.Keys(context.Background(), prefix)
	return keys
}

// SessionClear removes every session key matching prefix ("" clears all).
func (m *Manager) SessionClear(prefix string) {
	_ = m.session.Clear(context.Background(), prefix)
}

// --- persistent: async helpers ---

// PersistentGet reads key from the persistent store.
func (m *Manager) PersistentGet(ctx context.Context, key string) (interface{}, bool, error) {
	return m.persistent.Get(ctx, key)
}

// PersistentSet writes key to the persistent store.
func (m *Manager) PersistentSet(ctx context.Context, key string, value interface{}) error {
	return m.persistent.Set(ctx, key, value)
}

// PersistentDelete removes key from the persistent store.
func (m *Manager) PersistentDelete(ctx context.Context, key string) (bool, error) {
	return m.persistent.Delete(ctx, key)
}

// PersistentHas reports whether key is present in the persistent store.
func (m *Manager) PersistentHas(ctx context.Context, key string) (bool, error) {
	return m.persistent.Has(ctx, key)
}

// PersistentKeys returns persistent keys matching prefix.
func (m *Manager) PersistentKeys(ctx context.Context, prefix string) ([]string, error) {
	return m.persistent.Keys(ctx, prefix)
}

// PersistentClear removes every persistent key matching prefix.
func (m *Manager) PersistentClear(ctx context.Context, prefix string) error {
	return m.persistent.Clear(ctx, prefix)
}

// --- RepositoryIndex slot ---

// SetIndex installs the shared RepositoryIndex handle. The concrete type is
// left opaque here (collab.RepositoryIndex in practice) so this package
// never depends on the collab package.
func (m *Manager) SetIndex(index interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index = index
}

// GetIndex returns the installed index handle, failing when none was set.
func (m *Manager) GetIndex() (interface{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.index == nil {
		return nil, core.NewOrchestrationError("contextmgr.GetIndex", "index", "", core.ErrIndexNotReady)
	}
	return m.index, nil
}

// HasIndex reports whether an index handle is currently installed.
func (m *Manager) HasIndex() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.index != nil
}

// --- message history ---

// AddToHistory appends msg to the bounded history buffer, evicting the
// oldest entry on overflow.
func (m *Manager) AddToHistory(msg core.Message) {
	m.history.Push(msg)
}

// GetHistory returns the buffered messages, oldest first. limit <= 0
// returns everything buffered; otherwise at most the last limit messages.
func (m *Manager) GetHistory(limit int) []core.Message {
	if limit <= 0 {
		return m.history.All()
	}
	return m.history.Recent(limit)
}

// ClearHistory empties the history buffer.
func (m *Manager) ClearHistory() {
	m.history.Clear()
}

// Stats is a point-in-time snapshot of the context manager's occupancy.
type Stats struct {
	SessionSize    int
	PersistentSize int
	HistorySize    int
	MaxHistorySize int
	HasIndex       bool
}

// GetStats returns the current occupancy snapshot. Persistent size uses a
// background context since the caller-facing GetStats signature is
// synchronous; embedders that need a context-scoped view should call
// PersistentKeys/PersistentGet directly instead.
func (m *Manager) GetStats() Stats {
	sessionSize, _ := m.session.Size(context.Background())
	persistentSize, _ := m.persistent.Size(context.Background())
	return Stats{
		SessionSize:    sessionSize,
		PersistentSize: persistentSize,
		HistorySize:    m.history.Len(),
		MaxHistorySize: m.history.Capacity(),
		HasIndex:       m.HasIndex(),
	}
}
