package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRateLimiter creates a rate limiter with miniredis for testing
func setupTestRateLimiter(t testing.TB, maxRequests int, window, block time.Duration) (*RateLimiter, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	rl := NewRateLimiter(client, RateLimiterConfig{
		Scope:       "auth",
		MaxRequests: maxRequests,
		Window:      window,
		BlockTime:   block,
	})

	return rl, mr
}

func newLimitedRouter(rl *RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(rl.Middleware())
	router.POST("/auth/token", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})
	return router
}

func hit(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/token", nil)
	req.RemoteAddr = ip + ":12345"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_AllowsRequestsUnderLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl, _ := setupTestRateLimiter(t, 5, time.Minute, 0)
	router := newLimitedRouter(rl)

	for i := 0; i < 5; i++ {
		w := hit(router, "192.168.1.1")
		assert.Equal(t, http.StatusOK, w.Code, "Request %d should succeed", i+1)
	}
}

func TestRateLimiter_BlocksRequestsOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl, _ := setupTestRateLimiter(t, 3, time.Minute, 0)
	router := newLimitedRouter(rl)

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, hit(router, "192.168.1.1").Code)
	}

	w := hit(router, "192.168.1.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "retry_after")
}

func TestRateLimiter_DifferentIPsIndependent(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl, _ := setupTestRateLimiter(t, 2, time.Minute, 0)
	router := newLimitedRouter(rl)

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, hit(router, "10.0.0.1").Code)
	}
	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, hit(router, "10.0.0.2").Code, "second IP keeps its own quota")
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(router, "10.0.0.1").Code)
}

func TestRateLimiter_WindowExpiry(t *testing.T) {
	rl, mr := setupTestRateLimiter(t, 2, time.Second, 0)
	ctx := context.Background()
	ip := "192.168.1.100"

	for i := 0; i < 2; i++ {
		allowed, _, err := rl.CheckLimit(ctx, ip)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, retryAfter, err := rl.CheckLimit(ctx, ip)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))

	mr.FastForward(2 * time.Second)

	allowed, _, err = rl.CheckLimit(ctx, ip)
	require.NoError(t, err)
	assert.True(t, allowed, "counter resets after the window")
}

func TestRateLimiter_BlockOutlastsWindow(t *testing.T) {
	rl, mr := setupTestRateLimiter(t, 1, time.Second, time.Minute)
	ctx := context.Background()
	ip := "192.168.1.100"

	allowed, _, err := rl.CheckLimit(ctx, ip)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, retryAfter, err := rl.CheckLimit(ctx, ip)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, retryAfter)

	mr.FastForward(2 * time.Second)

	allowed, retryAfter, err = rl.CheckLimit(ctx, ip)
	require.NoError(t, err)
	assert.False(t, allowed, "still locked out after the window")
	assert.Greater(t, retryAfter, 50*time.Second)

	mr.FastForward(time.Minute)

	allowed, _, err = rl.CheckLimit(ctx, ip)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiter_Reset(t *testing.T) {
	rl, _ := setupTestRateLimiter(t, 1, time.Minute, time.Minute)
	ctx := context.Background()
	ip := "192.168.1.100"

	_, _, _ = rl.CheckLimit(ctx, ip)
	allowed, _, err := rl.CheckLimit(ctx, ip)
	require.NoError(t, err)
	require.False(t, allowed)

	require.NoError(t, rl.Reset(ctx, ip))

	allowed, _, err = rl.CheckLimit(ctx, ip)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl, mr := setupTestRateLimiter(t, 1, time.Minute, 0)
	router := newLimitedRouter(rl)
	mr.Close()

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(router, "192.168.1.1").Code, "Redis down must not block requests")
	}
}

func BenchmarkRateLimiter_CheckLimit(b *testing.B) {
	rl, _ := setupTestRateLimiter(b, 1000000, time.Minute, 0)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = rl.CheckLimit(ctx, "192.168.1.100")
	}
}
