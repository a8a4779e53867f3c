package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// fixedWindow increments the counter and sets its expiry on first hit.
var fixedWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

// RateLimiter is a Redis fixed-window limiter shared across instances.
type RateLimiter struct {
	client *redis.Client
	scope  string
	limit  int
	window time.Duration
	log    *zap.Logger
}

func NewRateLimiter(client *redis.Client, scope string, limit int, window time.Duration, log *zap.Logger) *RateLimiter {
	return &RateLimiter{client: client, scope: scope, limit: limit, window: window, log: log}
}

// Allow records a hit for key and reports whether it is within the limit
// along with the time until the window resets.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	res, err := fixedWindow.Run(ctx, l.client,
		[]string{"ratelimit:" + l.scope + ":" + key},
		l.window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return false, 0, err
	}

	return res[0] <= int64(l.limit), time.Duration(res[1]) * time.Millisecond, nil
}

// Middleware limits by client IP and answers rejected requests with a JSON 429.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return l.MiddlewareWith(nil)
}

// MiddlewareWith limits by client IP and hands rejected requests to deny,
// which must write the response. Retry-After is already set when deny runs.
// Redis failures let the request through.
func (l *RateLimiter) MiddlewareWith(deny gin.HandlerFunc) gin.HandlerFunc {
	if deny == nil {
		deny = denyTooManyJSON
	}
	return func(c *gin.Context) {
		ok, reset, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			l.log.Warn("rate limiter unavailable", zap.String("scope", l.scope), zap.Error(err))
			c.Next()
			return
		}

		c.Header("RateLimit-Limit", strconv.Itoa(l.limit))
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(reset.Round(time.Second).Seconds())))
			deny(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

func denyTooManyJSON(c *gin.Context) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error": "too many requests",
	})
}
