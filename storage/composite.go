package storage

import (
	"context"
	"strings"

	"github.com/coderift/toolmind/core"
)

// Session/persistent key prefixes the Composite backend routes on.
const (
	SessionPrefix    = "session:"
	PersistentPrefix = "persistent:"
)

// Composite routes keys to an underlying session or persistent backend
// based on a "session:"/"persistent:" prefix, the way the context manager
// addresses its two storage tiers through a single interface.
type Composite struct {
	Session    core.StorageBackend
	Persistent core.StorageBackend
}

// NewComposite wires a session and a persistent backend behind one
// StorageBackend.
func NewComposite(session, persistent core.StorageBackend) *Composite {
	return &Composite{Session: session, Persistent: persistent}
}

var _ core.StorageBackend = (*Composite)(nil)

// route picks the child backend for key and strips the matched prefix, so
// the child only ever observes the bare key (spec.md §4.2: "session:KEY →
// session child with key KEY"). A key carrying neither prefix defaults to
// the session child, unstripped.
func (c *Composite) route(key string) (core.StorageBackend, string) {
	switch {
	case strings.HasPrefix(key, SessionPrefix):
		return c.Session, strings.TrimPrefix(key, SessionPrefix)
	case strings.HasPrefix(key, PersistentPrefix):
		return c.Persistent, strings.TrimPrefix(key, PersistentPrefix)
	default:
		return c.Session, key
	}
}

func (c *Composite) Get(ctx context.Context, key string) (interface{}, bool, error) {
	backend, childKey := c.route(key)
	return backend.Get(ctx, childKey)
}

func (c *Composite) Set(ctx context.Context, key string, value interface{}) error {
	backend, childKey := c.route(key)
	return backend.Set(ctx, childKey, value)
}

func (c *Composite) Delete(ctx context.Context, key string) (bool, error) {
	backend, childKey := c.route(key)
	return backend.Delete(ctx, childKey)
}

func (c *Composite) Has(ctx context.Context, key string) (bool, error) {
	backend, childKey := c.route(key)
	return backend.Has(ctx, childKey)
}

// Keys searches both tiers when prefix doesn't itself disambiguate, and a
// single tier when it does, re-adding the matched prefix to every key
// returned so callers see the same "session:"/"persistent:" addressing
// they used on Get/Set (spec.md §4.2: "keys() returns prefixed keys drawn
// from both children").
func (c *Composite) Keys(ctx context.Context, prefix string) ([]string, error) {
	if strings.HasPrefix(prefix, SessionPrefix) {
		keys, err := c.Session.Keys(ctx, strings.TrimPrefix(prefix, SessionPrefix))
		if err != nil {
			return nil, err
		}
		return withPrefix(keys, SessionPrefix), nil
	}
	if strings.HasPrefix(prefix, PersistentPrefix) {
		keys, err := c.Persistent.Keys(ctx, strings.TrimPrefix(prefix, PersistentPrefix))
		if err != nil {
			return nil, err
		}
		return withPrefix(keys, PersistentPrefix), nil
	}

	sessionKeys, err := c.Session.Keys(ctx, prefix)
	if err != nil {
		return nil, err
	}
	persistentKeys, err := c.Persistent.Keys(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(sessionKeys)+len(persistentKeys))
	out = append(out, withPrefix(sessionKeys, SessionPrefix)...)
	out = append(out, withPrefix(persistentKeys, PersistentPrefix)...)
	return out, nil
}

func withPrefix(keys []string, prefix string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = prefix + k
	}
	return out
}

func (c *Composite) Clear(ctx context.Context, prefix string) error {
	switch {
	case prefix == "":
		if err := c.Session.Clear(ctx, ""); err != nil {
			return err
		}
		return c.Persistent.Clear(ctx, "")
	case strings.HasPrefix(prefix, SessionPrefix):
		return c.Session.Clear(ctx, strings.TrimPrefix(prefix, SessionPrefix))
	case strings.HasPrefix(prefix, PersistentPrefix):
		return c.Persistent.Clear(ctx, strings.TrimPrefix(prefix, PersistentPrefix))
	default:
		return c.Session.Clear(ctx, prefix)
	}
}

func (c *Composite) Size(ctx context.Context) (int, error) {
	sessionSize, err := c.Session.Size(ctx)
	if err != nil {
		return 0, err
	}
	persistentSize, err := c.Persistent.Size(ctx)
	if err != nil {
		return 0, err
	}
	return sessionSize + persistentSize, nil
}
