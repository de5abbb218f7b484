package httpapi

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// friendLimiter throttles friend requests per requester with a token bucket.
type friendLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	entries   map[string]*limiterEntry
	lastPrune time.Time
}

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

func newFriendLimiter(perMinute int) *friendLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	return &friendLimiter{
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   perMinute,
		entries: make(map[string]*limiterEntry),
	}
}

func (l *friendLimiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastPrune) > limiterIdleTTL {
		for k, e := range l.entries {
			if now.Sub(e.seen) > limiterIdleTTL {
				delete(l.entries, k)
			}
		}
		l.lastPrune = now
	}

	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.seen = now
	return e.lim.AllowN(now, 1)
}
