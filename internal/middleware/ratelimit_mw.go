package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"account_service/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// CodeRateLimited is returned when a client exceeds its request quota
const CodeRateLimited = "RATE_LIMITED"

// RateLimiter is a fixed-window request counter shared through Redis
type RateLimiter struct {
	redis  redis.Cmdable
	max    int
	window time.Duration
	prefix string
}

// NewRateLimiter creates a limiter allowing max requests per window and key
func NewRateLimiter(client redis.Cmdable, max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:  client,
		max:    max,
		window: window,
		prefix: "ratelimit:ip",
	}
}

// Allow counts a request for key and reports whether it is within the quota.
// The window starts with the first request for key.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	pipe := rl.redis.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, 0, fmt.Errorf("redis error: %w", err)
	}

	remaining := ttl.Val()
	if remaining < 0 {
		if err := rl.redis.Expire(ctx, redisKey, rl.window).Err(); err != nil {
			return true, 0, fmt.Errorf("redis error: %w", err)
		}
		remaining = rl.window
	}

	return incr.Val() <= int64(rl.max), remaining, nil
}

// Middleware throttles requests per client IP. Redis errors let the request through.
func (rl *RateLimiter) Middleware(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, ttl, err := rl.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.WithError(err).Warn("Rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.max))
		if allowed {
			c.Next()
			return
		}

		retryAfter := rl.window
		if ttl > 0 {
			retryAfter = ttl
		}
		metrics.RecordThrottled()
		c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"success": false,
			"error":   "Too many requests, please try again later",
			"code":    CodeRateLimited,
		})
	}
}
