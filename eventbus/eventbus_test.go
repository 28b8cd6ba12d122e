package eventbus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBus_PublishFansOutToAllSubscribers(t *testing.T) {
	b := New(nil)
	var mu sync.Mutex
	received := map[int]interface{}{}

	for i := 0; i < 3; i++ {
		idx := i
		b.Subscribe("task.completed", func(payload interface{}) {
			mu.Lock()
			defer mu.Unlock()
			received[idx] = payload
		})
	}

	b.Publish("task.completed", "task-1")

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, received, 3)
	for _, v := range received {
		assert.Equal(t, "task-1", v)
	}
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	b := New(nil)
	var calls int
	var mu sync.Mutex

	unsub := b.Subscribe("topic", func(interface{}) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	b.Publish("topic", nil)
	unsub()
	b.Publish("topic", nil)
	unsub() // idempotent

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestBus_SubscriberPanicDoesNotAffectOthers(t *testing.T) {
	b := New(nil)
	var otherCalled bool
	var mu sync.Mutex

	b.Subscribe("topic", func(interface{}) { panic("boom") })
	b.Subscribe("topic", func(interface{}) {
		mu.Lock()
		otherCalled = true
		mu.Unlock()
	})

	assert.NotPanics(t, func() { b.Publish("topic", nil) })

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, otherCalled)
}

func TestBus_RemoveAllClearsEveryTopic(t *testing.T) {
	b := New(nil)
	var calls int32
	b.Subscribe("a", func(interface{}) { calls++ })
	b.Subscribe("b", func(interface{}) { calls++ })

	b.RemoveAll()
	b.Publish("a", nil)
	b.Publish("b", nil)

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), calls)
	assert.Equal(t, 0, b.SubscriberCount("a"))
}

func TestBus_PublishToTopicWithNoSubscribersIsSafe(t *testing.T) {
	b := New(nil)
	assert.NotPanics(t, func() { b.Publish("nothing-here", "x") })
}
