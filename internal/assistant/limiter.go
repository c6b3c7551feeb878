package assistant

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	RequestsPerMinute = 5
	Burst             = 3
)

// RateLimiter keeps one token bucket per user.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewRateLimiter(limit rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{limiters: make(map[string]*rate.Limiter), limit: limit, burst: burst}
}

func NewDefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(rate.Every(time.Minute/RequestsPerMinute), Burst)
}

func (l *RateLimiter) Allow(userID string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[userID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
