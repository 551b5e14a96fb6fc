package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientLimiter tracks one client's token bucket and its last use so idle
// entries can be evicted.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client IP. Idle buckets are evicted by a
// background loop that runs until Stop.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	perSecond float64
	burst     int
	stop      chan struct{}
}

// NewRateLimiter creates a rate limiter and starts its eviction loop.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		clients:   make(map[string]*clientLimiter),
		perSecond: perSecond,
		burst:     burst,
		stop:      make(chan struct{}),
	}
	go rl.evictLoop()
	return rl
}

// Stop terminates the eviction loop.
func (rl *RateLimiter) Stop() {
	close(rl.stop)
}

// Middleware returns the gin handler enforcing the per-IP limit.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		rl.mu.Lock()
		cl, ok := rl.clients[ip]
		if !ok {
			cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(rl.perSecond), rl.burst)}
			rl.clients[ip] = cl
		}
		cl.lastSeen = time.Now()
		allowed := cl.limiter.Allow()
		rl.mu.Unlock()

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle(3 * time.Minute)
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) evictIdle(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, cl := range rl.clients {
		if time.Since(cl.lastSeen) > idle {
			delete(rl.clients, ip)
		}
	}
}
