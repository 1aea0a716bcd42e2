// Package ratelimit provides token buckets keyed by any comparable value.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key. Buckets idle for longer than the
// TTL are dropped by a sweep that runs at most once per TTL.
type Limiter[K comparable] struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu        sync.Mutex
	buckets   map[K]*bucket
	lastSweep time.Time
}

type bucket struct {
	tokens   *rate.Limiter
	lastSeen time.Time
}

// New returns a limiter allowing rps events per second per key with the
// given burst. It returns nil when rps or burst is not positive; a nil
// Limiter allows everything.
func New[K comparable](rps float64, burst int, idleTTL time.Duration) *Limiter[K] {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &Limiter[K]{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		buckets: make(map[K]*bucket),
	}
}

// Allow consumes one token for key at now. A key's first event always
// passes, and the zero key is never limited.
func (l *Limiter[K]) Allow(key K, now time.Time) bool {
	var zero K
	if l == nil || key == zero {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lastSweep.IsZero() {
		l.lastSweep = now
	} else if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweepLocked(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.tokens.AllowN(now, 1)
}

func (l *Limiter[K]) sweepLocked(now time.Time) {
	cutoff := now.Add(-l.idleTTL)
	for k, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, k)
		}
	}
	l.lastSweep = now
}
