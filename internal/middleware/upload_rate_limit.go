package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/artcatalog/backend/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// UploadRateLimit caps the number of uploads per operator per day. It must run
// after RequireAuth; without Redis it is a no-op.
func UploadRateLimit(redisClient *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil || cfg.UploadMaxPerDay <= 0 {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		username := Username(c)
		if username == "" {
			c.Next()
			return
		}

		// Rate limit key: upload_limit:{username}:{date}
		// Resets daily at midnight for predictable behavior
		now := time.Now()
		key := fmt.Sprintf("upload_limit:%s:%s", username, now.Format("2006-01-02"))

		count, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			// Redis error - don't block upload
			log.Printf("WARN: Upload limiter failed: %v", err)
			c.Next()
			return
		}
		if count == 1 {
			midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
			_ = redisClient.Expire(ctx, key, midnight.Sub(now)).Err()
		}

		if count > int64(cfg.UploadMaxPerDay) {
			ttl, _ := redisClient.TTL(ctx, key).Result()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":               "upload_rate_limit_exceeded",
				"message":             "Too many uploads today. Please try again tomorrow.",
				"retry_after_hours":   int(ttl.Hours()),
				"max_uploads_per_day": cfg.UploadMaxPerDay,
			})
			return
		}

		c.Next()
	}
}
