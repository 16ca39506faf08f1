package middleware

import (
	"sync"
	"time"

	"payflow/internal/apperr"
	"payflow/internal/domain"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyedRateLimiter keeps one token bucket per key (API key or client IP).
type KeyedRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rps      rate.Limit
	burst    int
	idle     time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewKeyedRateLimiter(rps float64, burst int) *KeyedRateLimiter {
	r := &KeyedRateLimiter{
		limiters: make(map[string]*limiterEntry),
		rps:      rate.Limit(rps),
		burst:    burst,
		idle:     10 * time.Minute,
	}
	go r.cleanup()
	return r
}

func (r *KeyedRateLimiter) Allow(key string) bool {
	r.mu.Lock()
	e, ok := r.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(r.rps, r.burst)}
		r.limiters[key] = e
	}
	e.lastSeen = time.Now()
	r.mu.Unlock()
	return e.limiter.Allow()
}

func (r *KeyedRateLimiter) cleanup() {
	tick := time.NewTicker(time.Minute)
	for range tick.C {
		r.mu.Lock()
		cutoff := time.Now().Add(-r.idle)
		for k, e := range r.limiters {
			if e.lastSeen.Before(cutoff) {
				delete(r.limiters, k)
			}
		}
		r.mu.Unlock()
	}
}

// RateLimit limits by API key when present, otherwise by client IP.
func RateLimit(limiter *KeyedRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Api-Key")
		if key == "" {
			key = c.ClientIP()
		}
		if !limiter.Allow(key) {
			abortWith(c, &apperr.Error{Kind: apperr.RateLimited, Code: domain.CodeRateLimited, Description: "Too many requests"})
			return
		}
		c.Next()
	}
}
