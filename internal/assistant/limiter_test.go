package assistant

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimiter_BurstPerUser(t *testing.T) {
	l := NewDefaultRateLimiter()
	for i := 0; i < Burst; i++ {
		assert.True(t, l.Allow("u1"), "request %d", i+1)
	}
	assert.False(t, l.Allow("u1"))
	assert.True(t, l.Allow("u2"))
}

func TestRateLimiter_Concurrent(t *testing.T) {
	l := NewRateLimiter(rate.Every(time.Hour), 5)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("u1") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, allowed)
}
