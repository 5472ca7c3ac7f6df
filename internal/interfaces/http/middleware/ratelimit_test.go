package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobranca/backend/internal/infrastructure/auth"
	"github.com/cobranca/backend/internal/interfaces/http/dto"
)

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("allows up to the limit inside one window", func(t *testing.T) {
		rl := NewRateLimiter(3, time.Minute)

		assert.True(t, rl.Allow("user:ana"))
		assert.True(t, rl.Allow("user:ana"))
		assert.True(t, rl.Allow("user:ana"))
		assert.False(t, rl.Allow("user:ana"))
	})

	t.Run("callers have independent windows", func(t *testing.T) {
		rl := NewRateLimiter(1, time.Minute)

		assert.True(t, rl.Allow("user:ana"))
		assert.False(t, rl.Allow("user:ana"))
		assert.True(t, rl.Allow("user:bruno"))
	})

	t.Run("window expiry refills the bucket", func(t *testing.T) {
		rl := NewRateLimiter(1, 10*time.Millisecond)

		assert.True(t, rl.Allow("ip:10.0.0.1"))
		assert.False(t, rl.Allow("ip:10.0.0.1"))

		time.Sleep(15 * time.Millisecond)
		assert.True(t, rl.Allow("ip:10.0.0.1"))
	})
}

func TestRateLimiter_Remaining(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)

	assert.Equal(t, 5, rl.Remaining("user:ana"), "unseen caller has the full window")

	rl.Allow("user:ana")
	rl.Allow("user:ana")
	assert.Equal(t, 3, rl.Remaining("user:ana"))
}

func TestRateLimiter_SweepDropsStaleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, time.Millisecond)
	rl.Allow("ip:10.0.0.1")
	rl.Allow("ip:10.0.0.2")

	time.Sleep(5 * time.Millisecond)
	rl.lastSweep = time.Time{}
	rl.Allow("ip:10.0.0.3")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Len(t, rl.buckets, 1, "only the fresh caller survives the sweep")
}

func newRateLimitedRouter(limiter *RateLimiter, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if userID != "" {
		router.Use(func(c *gin.Context) {
			c.Set(JWTClaimsKey, &auth.Claims{UserID: userID})
			c.Next()
		})
	}
	router.Use(RateLimit(limiter))
	router.GET("/api/v1/dashboard/clientes", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestRateLimit_Middleware(t *testing.T) {
	t.Run("passes requests under the limit and sets headers", func(t *testing.T) {
		router := newRateLimitedRouter(NewRateLimiter(2, time.Minute), "")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/clientes", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("rejects the caller past the limit with the error envelope", func(t *testing.T) {
		router := newRateLimitedRouter(NewRateLimiter(1, time.Minute), "")

		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/clientes", nil)
			router.ServeHTTP(w, req)

			if i == 0 {
				require.Equal(t, http.StatusOK, w.Code)
				continue
			}
			require.Equal(t, http.StatusTooManyRequests, w.Code)
			assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, dto.ErrCodeRateLimited, resp.Error.Code)
		}
	})

	t.Run("authenticated callers are limited per user not per address", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)

		ana := newRateLimitedRouter(limiter, "user-ana")
		bruno := newRateLimitedRouter(limiter, "user-bruno")

		w := httptest.NewRecorder()
		ana.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/clientes", nil))
		require.Equal(t, http.StatusOK, w.Code)

		// Same source address, different user: own bucket.
		w = httptest.NewRecorder()
		bruno.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/clientes", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		// Ana's bucket is exhausted.
		w = httptest.NewRecorder()
		ana.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/clientes", nil))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})
}
