package adapters

import (
	"context"
	"fmt"
	"sync"
	"time"

	ports "github.com/ZanzyTHEbar/toolbridge/bridge/client/ports"
)

// TokenBucket implements a per-key token bucket rate limiter.
type TokenBucket struct {
	mu          sync.Mutex
	buckets     map[string]*bucket
	capacity    int           // max tokens per bucket
	refillEvery time.Duration // time between token refills
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// NewTokenBucket creates a token bucket limiter granting capacity tokens
// per key, refilling one token every refillEvery.
func NewTokenBucket(capacity int, refillEvery time.Duration) *TokenBucket {
	if capacity < 1 {
		capacity = 1
	}
	if refillEvery <= 0 {
		refillEvery = time.Second
	}
	return &TokenBucket{
		buckets:     make(map[string]*bucket),
		capacity:    capacity,
		refillEvery: refillEvery,
	}
}

// Acquire takes a token for key, or fails with a RateLimitError when the
// bucket is empty.
func (tb *TokenBucket) Acquire(ctx context.Context, key string) (release func(), err error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{
			tokens:     tb.capacity,
			lastRefill: time.Now(),
		}
		tb.buckets[key] = b
	}

	// refill based on elapsed time
	refilled := int(time.Since(b.lastRefill) / tb.refillEvery)
	if refilled > 0 {
		b.tokens = min(b.tokens+refilled, tb.capacity)
		b.lastRefill = b.lastRefill.Add(time.Duration(refilled) * tb.refillEvery)
	}

	if b.tokens <= 0 {
		return nil, &RateLimitError{Key: key}
	}
	b.tokens--

	release = func() {
		tb.mu.Lock()
		defer tb.mu.Unlock()
		b.tokens = min(b.tokens+1, tb.capacity)
	}

	return release, nil
}

// RateLimitError reports an exhausted bucket.
type RateLimitError struct {
	Key string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %q", e.Key)
}

// Ensure TokenBucket implements the RateLimiter interface.
var _ ports.RateLimiter = (*TokenBucket)(nil)
