package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cobranca/backend/internal/interfaces/http/dto"
)

// RateLimiter is a fixed-window request counter per caller. Buckets live
// in process memory, so a multi-instance deployment limits per instance;
// the dashboard traffic this fronts is low enough for that to hold.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*windowBucket
	limit     int
	window    time.Duration
	lastSweep time.Time
}

type windowBucket struct {
	remaining int
	openedAt  time.Time
}

// NewRateLimiter allows up to limit requests per caller per window
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets:   make(map[string]*windowBucket),
		limit:     limit,
		window:    window,
		lastSweep: time.Now(),
	}
}

// Allow consumes one request from the caller's current window
func (rl *RateLimiter) Allow(caller string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.sweepLocked(now)

	b, ok := rl.buckets[caller]
	if !ok || now.Sub(b.openedAt) >= rl.window {
		rl.buckets[caller] = &windowBucket{remaining: rl.limit - 1, openedAt: now}
		return true
	}
	if b.remaining > 0 {
		b.remaining--
		return true
	}
	return false
}

// Remaining reports how many requests the caller has left in its window
func (rl *RateLimiter) Remaining(caller string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[caller]
	if !ok || time.Since(b.openedAt) >= rl.window {
		return rl.limit
	}
	return b.remaining
}

// sweepLocked drops buckets whose window closed long ago so the map does
// not grow with caller cardinality. Amortized over Allow calls.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.window*2 {
		return
	}
	for caller, b := range rl.buckets {
		if now.Sub(b.openedAt) >= rl.window*2 {
			delete(rl.buckets, caller)
		}
	}
	rl.lastSweep = now
}

// callerKey identifies the caller for rate limiting. Authenticated
// requests are limited per user so agents behind one office NAT do not
// share a bucket; anonymous requests fall back to the client IP.
func callerKey(c *gin.Context) string {
	if claims := GetJWTClaims(c); claims != nil && claims.UserID != "" {
		return "user:" + claims.UserID
	}
	return "ip:" + c.ClientIP()
}

// RateLimit rejects callers that exhausted their window with 429 and the
// standard error envelope.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := callerKey(c)

		if !limiter.Allow(caller) {
			c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
			c.Header("X-RateLimit-Remaining", "0")
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				dto.NewErrorResponse(dto.ErrCodeRateLimited, "Too many requests. Please try again later."))
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(caller)))
		c.Next()
	}
}
