package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/3gr1v750v/api-yamdb-docker/internal/metrics"
	"github.com/3gr1v750v/api-yamdb-docker/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimiterConfig defines rate limiting rules
type RateLimiterConfig struct {
	Scope       string        // Key namespace, e.g. "auth"
	MaxRequests int           // Maximum requests allowed in the window
	Window      time.Duration // Counting window
	BlockTime   time.Duration // Lockout after exceeding the limit; 0 means until the window ends
}

// RateLimiter provides IP-based rate limiting using Redis
type RateLimiter struct {
	redis  *redis.Client
	config RateLimiterConfig
}

func NewRateLimiter(redisClient *redis.Client, config RateLimiterConfig) *RateLimiter {
	if config.Scope == "" {
		config.Scope = "default"
	}
	return &RateLimiter{
		redis:  redisClient,
		config: config,
	}
}

// Middleware rejects over-limit clients with 429 and a Retry-After header.
// Redis errors let the request through.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		allowed, retryAfter, err := rl.CheckLimit(c.Request.Context(), clientIP)
		if err != nil {
			logger.Log.Warn("Rate limiter unavailable, allowing request",
				zap.String("ip", clientIP),
				zap.Error(err),
			)
			c.Next()
			return
		}

		if !allowed {
			metrics.RateLimitHits.Inc()
			logger.Log.Warn("Rate limit exceeded",
				zap.String("ip", clientIP),
				zap.String("scope", rl.config.Scope),
				zap.Duration("retry_after", retryAfter),
			)
			seconds := int(retryAfter.Seconds())
			c.Header("Retry-After", fmt.Sprintf("%d", seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests. Please try again later.",
				"retry_after": seconds,
			})
			return
		}

		c.Next()
	}
}

// CheckLimit counts the request with INCR/EXPIRE and, once the limit is
// passed, locks the client out for BlockTime.
// Returns: (allowed bool, retryAfter duration, error)
func (rl *RateLimiter) CheckLimit(ctx context.Context, ip string) (bool, time.Duration, error) {
	blockKey := fmt.Sprintf("ratelimit:%s:block:%s", rl.config.Scope, ip)
	countKey := fmt.Sprintf("ratelimit:%s:%s", rl.config.Scope, ip)

	ttl, err := rl.redis.TTL(ctx, blockKey).Result()
	if err != nil {
		return false, 0, err
	}
	if ttl > 0 {
		return false, ttl, nil
	}

	count, err := rl.redis.Incr(ctx, countKey).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := rl.redis.Expire(ctx, countKey, rl.config.Window).Err(); err != nil {
			return false, 0, err
		}
	}

	if count <= int64(rl.config.MaxRequests) {
		return true, 0, nil
	}

	if rl.config.BlockTime > 0 {
		if err := rl.redis.Set(ctx, blockKey, 1, rl.config.BlockTime).Err(); err != nil {
			return false, 0, err
		}
		return false, rl.config.BlockTime, nil
	}

	ttl, err = rl.redis.TTL(ctx, countKey).Result()
	if err != nil || ttl <= 0 {
		ttl = rl.config.Window
	}
	return false, ttl, nil
}

// Reset clears the counter and any lockout for ip.
func (rl *RateLimiter) Reset(ctx context.Context, ip string) error {
	return rl.redis.Del(ctx,
		fmt.Sprintf("ratelimit:%s:%s", rl.config.Scope, ip),
		fmt.Sprintf("ratelimit:%s:block:%s", rl.config.Scope, ip),
	).Err()
}
