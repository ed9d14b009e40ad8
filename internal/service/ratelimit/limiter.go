package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key.
type Limiter struct {
	mu       sync.Mutex
	m        map[string]*rate.Limiter
	limit    rate.Limit
	capacity int
}

// New creates a limiter allowing refillPerSec events per second per key with bursts of capacity.
func New(capacity int, refillPerSec float64) *Limiter {
	return &Limiter{
		m:        make(map[string]*rate.Limiter),
		limit:    rate.Limit(refillPerSec),
		capacity: capacity,
	}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	b, ok := l.m[key]
	if !ok {
		b = rate.NewLimiter(l.limit, l.capacity)
		l.m[key] = b
	}
	l.mu.Unlock()
	return b.Allow()
}
