package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"legal-rag-chatbot/internal/logger"
	"legal-rag-chatbot/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Counter is the subset of the Redis client used for fixed-window counting.
type Counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RateLimitMiddleware implements rate limiting using Redis
// It limits requests per IP + endpoint combination and fails open when Redis errors.
func RateLimitMiddleware(rdb Counter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip rate limiting for health checks
		if c.FullPath() == "/health" || c.FullPath() == "/ready" {
			c.Next()
			return
		}

		// Use IP + endpoint for granular rate limiting
		key := "ratelimit:" + c.ClientIP() + ":" + c.FullPath()

		ctx, cancel := utils.WithShortTimeout(c.Request.Context())
		defer cancel()

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("rate limit counter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		// Set expiration on first request
		if count == 1 {
			rdb.Expire(ctx, key, window)
		}

		if count > int64(limit) {
			c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(window).Unix(), 10))

			utils.RespondWithError(c, http.StatusTooManyRequests,
				"rate_limit_exceeded",
				"Too many requests. Please try again later.",
				gin.H{
					"retry_after": int(window.Seconds()),
					"limit":       limit,
				})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limit-int(count)))
		c.Next()
	}
}
