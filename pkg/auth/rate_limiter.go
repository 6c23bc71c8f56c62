package auth

import (
	"sync"
	"time"
)

// LoginLimiter throttles credential attempts per client key (usually the
// source IP). It is a token bucket kept in process memory; in Lambda each
// execution environment keeps its own bucket, which still blunts
// single-source brute force between cold starts.
type LoginLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity int
	refill   time.Duration
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// NewLoginLimiter creates a limiter allowing capacity attempts, refilling
// one attempt per refill interval.
func NewLoginLimiter(capacity int, refill time.Duration) *LoginLimiter {
	return &LoginLimiter{
		buckets:  make(map[string]*bucket),
		capacity: capacity,
		refill:   refill,
	}
}

// Allow reports whether the key may attempt a login now.
func (l *LoginLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.capacity, lastRefill: now}
		l.buckets[key] = b
	}

	if elapsed := now.Sub(b.lastRefill); elapsed >= l.refill {
		refilled := int(elapsed / l.refill)
		b.tokens += refilled
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.lastRefill = b.lastRefill.Add(time.Duration(refilled) * l.refill)
	}

	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// Reset clears the bucket for a key, used after a successful login.
func (l *LoginLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}
