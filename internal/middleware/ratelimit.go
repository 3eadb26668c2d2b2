package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// windowScript counts one request. The expiry is set only when the window
// opens (or the key somehow lost its TTL), so later requests cannot extend it.
var windowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 or redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// RateLimit returns fixed-window rate limiting keyed by client IP. Counters
// live in Redis under keyPrefix.
func RateLimit(redisClient *redis.Client, keyPrefix string, maxRequests int, window time.Duration) gin.HandlerFunc {
	if redisClient == nil {
		panic("Redis client cannot be nil for RateLimit middleware")
	}
	if maxRequests <= 0 {
		panic("maxRequests must be positive for RateLimit middleware")
	}
	if window <= 0 {
		panic("window duration must be positive for RateLimit middleware")
	}

	return func(c *gin.Context) {
		key := keyPrefix + "ratelimit:" + c.ClientIP()
		ctx := c.Request.Context()

		count, err := windowScript.Run(ctx, redisClient, []string{key}, window.Milliseconds()).Int64()
		if err != nil {
			// Fail open: a Redis outage must not take the API down.
			logrus.WithError(err).Error("RateLimit: Redis counter failed")
			c.Next()
			return
		}

		remaining := int64(maxRequests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(maxRequests) {
			logrus.WithField("client_ip", c.ClientIP()).Warn("RateLimit: Too many requests")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
