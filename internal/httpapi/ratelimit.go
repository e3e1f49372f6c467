package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyedLimiter holds one token bucket per key and forgets idle keys.
type keyedLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	entries map[string]*limiterEntry
	clock   func() time.Time
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newKeyedLimiter(limit rate.Limit, burst int, ttl time.Duration) *keyedLimiter {
	return &keyedLimiter{
		limit:   limit,
		burst:   burst,
		ttl:     ttl,
		entries: make(map[string]*limiterEntry),
		clock:   time.Now,
	}
}

func (k *keyedLimiter) allow(key string) bool {
	now := k.clock()
	k.mu.Lock()
	defer k.mu.Unlock()

	e := k.entries[key]
	if e == nil {
		e = &limiterEntry{lim: rate.NewLimiter(k.limit, k.burst)}
		k.entries[key] = e
	}
	e.lastSeen = now

	for id, v := range k.entries {
		if now.Sub(v.lastSeen) > k.ttl {
			delete(k.entries, id)
		}
	}
	return e.lim.AllowN(now, 1)
}

// LoginRateLimit throttles token issuance per client IP.
func LoginRateLimit(perMinute, burst int) gin.HandlerFunc {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	lim := newKeyedLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst, 10*time.Minute)
	return rateLimit(lim)
}

func rateLimit(lim *keyedLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !lim.allow(c.ClientIP()) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
			return
		}
		c.Next()
	}
}
