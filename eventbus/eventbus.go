// Package eventbus provides an in-process, topic-keyed publish/subscribe
// mechanism used by the coordinator to fan out agent registration events
// (agent.registered, agent.unregistered) and by agents through
// AgentContext.Publish, without coupling publishers to subscribers.
package eventbus

import (
	"sync"

	"github.com/coderift/toolmind/core"
)

// Handler receives a published payload for a topic it subscribed to.
type Handler func(payload interface{})

// Unsubscribe removes a previously registered handler.
type Unsubscribe func()

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a concurrent-safe, topic-keyed pub/sub bus. Publish fans out to
// every current subscriber of a topic concurrently; a handler that panics
// or otherwise fails is logged, never allowed to take down the publisher
// or other subscribers.
type Bus struct {
	mu     sync.RWMutex
	topics map[string][]subscription
	nextID uint64
	logger core.Logger
}

// New builds an empty Bus. A nil logger falls back to a no-op logger.
func New(logger core.Logger) *Bus {
	if logger == nil {
		logger = core.NoOpLogger{}
	}
	return &Bus{topics: make(map[string][]subscription), logger: logger}
}

// Subscribe registers handler for topic and returns a function that
// removes it. Calling the returned Unsubscribe more than once is a no-op.
func (b *Bus) Subscribe(topic string, handler Handler) Unsubscribe {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.topics[topic] = append(b.topics[topic], subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			subs := b.topics[topic]
			for i, s := range subs {
				if s.id == id {
					b.topics[topic] = append(subs[:i], subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers payload to every subscriber of topic concurrently. A
// handler panic is recovered and logged so one bad subscriber never
// disrupts delivery to the others.
func (b *Bus) Publish(topic string, payload interface{}) {
	b.mu.RLock()
	subs := make([]subscription, len(b.topics[topic]))
	copy(subs, b.topics[topic])
	b.mu.RUnlock()

	var wg sync.WaitGroup
	for _, s := range subs {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("eventbus: subscriber panicked", map[string]interface{}{
						"topic": topic,
						"panic": r,
					})
				}
			}()
			h(payload)
		}(s.handler)
	}
	wg.Wait()
}

// RemoveAll clears every subscriber on every topic, used during shutdown.
func (b *Bus) RemoveAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics = make(map[string][]subscription)
}

// SubscriberCount reports how many handlers are registered for topic.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}
