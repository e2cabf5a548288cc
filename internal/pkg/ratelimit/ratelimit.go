// Package ratelimit provides keyed token-bucket limiters.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Keyed is an in-process Limiter holding one token bucket per key, with
// periodic eviction of idle keys.
type Keyed struct {
	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	r        rate.Limit
	burst    int
	idle     time.Duration
	stop     chan struct{}
	once     sync.Once
}

// NewKeyed creates a limiter allowing r events/second per key with the given burst.
// Keys unseen for idle are evicted.
func NewKeyed(r rate.Limit, burst int, idle time.Duration) *Keyed {
	k := &Keyed{
		limiters: make(map[string]*keyedLimiter),
		r:        r,
		burst:    burst,
		idle:     idle,
		stop:     make(chan struct{}),
	}
	go k.cleanup()
	return k
}

// PerWindow builds a limiter allowing n events per window per key.
func PerWindow(n int, window time.Duration) *Keyed {
	return NewKeyed(rate.Every(window/time.Duration(n)), n, 2*window)
}

func (k *Keyed) get(key string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()
	if v, ok := k.limiters[key]; ok {
		v.lastSeen = time.Now()
		return v.limiter
	}
	l := rate.NewLimiter(k.r, k.burst)
	k.limiters[key] = &keyedLimiter{limiter: l, lastSeen: time.Now()}
	return l
}

func (k *Keyed) Allow(_ context.Context, key string) (bool, error) {
	return k.get(key).Allow(), nil
}

// Close stops the eviction goroutine.
func (k *Keyed) Close() {
	k.once.Do(func() { close(k.stop) })
}

func (k *Keyed) cleanup() {
	ticker := time.NewTicker(k.idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-k.stop:
			return
		case <-ticker.C:
			k.evictIdle(time.Now())
		}
	}
}

func (k *Keyed) evictIdle(now time.Time) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for key, v := range k.limiters {
		if now.Sub(v.lastSeen) > k.idle {
			delete(k.limiters, key)
		}
	}
}
