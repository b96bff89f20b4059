package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Limiter is a fixed-window counter; db.RedisDB implements it.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

// AssistantRateLimit caps tool dispatches per user per minute. A limiter
// failure lets the request through.
func AssistantRateLimit(limiter Limiter, perMinute int, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || perMinute <= 0 {
			c.Next()
			return
		}
		userID := GetUserID(c)
		if userID == "" {
			c.Next()
			return
		}

		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), "ratelimit:assistant:"+userID, perMinute, time.Minute)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.String("user_id", userID), zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many assistant requests, slow down"})
			return
		}
		c.Next()
	}
}
