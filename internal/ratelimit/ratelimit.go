// Package ratelimit caps each caller to a fixed request budget per window.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter decides whether the caller identified by key may make another request.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per key. A bucket holds max tokens and
// refills one token every window/max, so a caller may spend the whole budget
// at once and then regains it over one window.
type MemoryLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
}

// NewMemoryLimiter allows max requests per window per key.
func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	if max < 1 {
		max = 1
	}
	return &MemoryLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Every(window / time.Duration(max)),
		burst:    max,
		idle:     window,
		now:      time.Now,
	}
}

func (rl *MemoryLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = rl.now()
	return v.limiter
}

// Allow spends one token from key's bucket.
func (rl *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	return rl.get(key).AllowN(rl.now(), 1), nil
}

// Cleanup drops visitors idle for a full window. Their bucket has refilled by
// then, so forgetting them changes nothing.
func (rl *MemoryLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idle)
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
		}
	}
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (rl *MemoryLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup()
			}
		}
	}()
}

// Len reports how many keys are tracked.
func (rl *MemoryLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}
