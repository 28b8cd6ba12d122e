// Package ratelimit implements an in-process, per-key token bucket limiter
// used by the tool registry to throttle calls per caller or per tool.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// bucket tracks one key's token count and the last time it was refilled.
type bucket struct {
	tokens   float64
	lastFill time.Time
}

// Limiter is a per-key token bucket. Buckets are created lazily on first
// use and share one capacity/refill rate; callers needing per-tool limits
// run one Limiter per tool.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity float64
	refill   float64 // tokens added per second
	now      func() time.Time
}

// Config configures a Limiter's capacity and continuous refill rate.
type Config struct {
	Capacity        float64
	RefillPerSecond float64
}

// New builds a Limiter. A zero-value Config disables limiting implicitly
// (Allow always succeeds) since capacity <= 0 is treated as unlimited.
func New(cfg Config) *Limiter {
	return &Limiter{
		buckets:  make(map[string]*bucket),
		capacity: cfg.Capacity,
		refill:   cfg.RefillPerSecond,
		now:      time.Now,
	}
}

// Status reports a key's current token count and, when not allowed, the
// number of whole seconds before another token is available.
type Status struct {
	Allowed          bool
	TokensRemaining  float64
	RetryAfterSecond int
}

// Allow deducts one token for key if available, lazily creating and
// refilling its bucket first. When refused, RetryAfterSecond is computed
// as ceil((1 - tokens) / refillRate) against the post-refill token count —
// this can under-report true wait time right at a refill boundary, a
// known rounding quirk callers should treat as a lower bound, not a
// guarantee.
func (l *Limiter) Allow(key string) Status {
	if l.capacity <= 0 {
		return Status{Allowed: true, TokensRemaining: math.Inf(1)}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	now := l.now()
	if !ok {
		b = &bucket{tokens: l.capacity, lastFill: now}
		l.buckets[key] = b
	} else {
		elapsed := now.Sub(b.lastFill).Seconds()
		if elapsed > 0 {
			b.tokens = math.Min(l.capacity, b.tokens+elapsed*l.refill)
			b.lastFill = now
		}
	}

	if b.tokens >= 1 {
		b.tokens--
		return Status{Allowed: true, TokensRemaining: b.tokens}
	}

	retryAfter := 0
	if l.refill > 0 {
		retryAfter = int(math.Ceil((1 - b.tokens) / l.refill))
	}
	return Status{Allowed: false, TokensRemaining: b.tokens, RetryAfterSecond: retryAfter}
}

// KeyStatus reports a tracked key's current availability without
// consuming a token.
type KeyStatus struct {
	Available float64
	Capacity  float64
}

// GetStatus returns a point-in-time availability snapshot for every
// tracked key, refilling each bucket to "now" first but never deducting a
// token — callers that only want to observe state (status/health tools)
// use this instead of Allow.
func (l *Limiter) GetStatus() map[string]KeyStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	out := make(map[string]KeyStatus, len(l.buckets))
	for key, b := range l.buckets {
		elapsed := now.Sub(b.lastFill).Seconds()
		tokens := b.tokens
		if elapsed > 0 {
			tokens = math.Min(l.capacity, tokens+elapsed*l.refill)
		}
		out[key] = KeyStatus{Available: tokens, Capacity: l.capacity}
	}
	return out
}

// Reset clears a single key's bucket, restoring it to full capacity on
// next use.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// ResetAll clears every tracked bucket.
func (l *Limiter) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets = make(map[string]*bucket)
}
