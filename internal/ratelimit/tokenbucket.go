// Hand-rolled token bucket, deliberately not golang.org/x/time/rate: one
// small mutex-protected struct covering exactly the per-connection message
// rate limit this codebase needs.
package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket limits the rate of discrete events (e.g. chat messages per
// connection) to ratePerSec, with burst headroom up to capacity.
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	ratePerSec float64
	tokens     float64
	lastRefill time.Time
	now        func() time.Time
}

// New creates a TokenBucket starting full.
func New(ratePerSec float64, capacity float64) *TokenBucket {
	if capacity <= 0 {
		capacity = ratePerSec
	}
	return &TokenBucket{
		capacity:   capacity,
		ratePerSec: ratePerSec,
		tokens:     capacity,
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// Allow reports whether one event may proceed now, consuming a token if so.
func (b *TokenBucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.lastRefill = now
	b.tokens += elapsed * b.ratePerSec
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
