package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func rateLimitedRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestRateLimiterAllowsBurstThenBlocks(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	defer rl.Stop()
	router := rateLimitedRouter(rl)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	defer rl.Stop()
	router := rateLimitedRouter(rl)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	rl.mu.Lock()
	registered := len(rl.clients)
	rl.mu.Unlock()
	assert.Equal(t, 1, registered)

	rl.evictIdle(0)

	rl.mu.Lock()
	remaining := len(rl.clients)
	rl.mu.Unlock()
	assert.Zero(t, remaining)
}

func TestRateLimiterStop(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	assert.NotPanics(t, rl.Stop)

	// The limiter still serves requests after the eviction loop exits.
	router := rateLimitedRouter(rl)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
