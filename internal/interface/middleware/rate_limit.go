package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/identity-service/pkg/response"
)

// KeyFunc derives the bucket a request is counted against.
type KeyFunc func(c *gin.Context) string

// AllowFunc reports whether a request skips the limiter entirely.
type AllowFunc func(*gin.Context) bool

func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

func routeOf(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

func KeyByIP() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:ip:" + ipFromCtx(c)
	}
}

// KeyByIPAndPath buckets per client, method and route template.
func KeyByIPAndPath() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:path:" + c.Request.Method + ":" + routeOf(c) + ":ip:" + ipFromCtx(c)
	}
}

// KeyByActor limits per X-Actor-ID, falling back to the client IP.
func KeyByActor() KeyFunc {
	return func(c *gin.Context) string {
		actor := c.GetString("actor")
		if actor == "" {
			return "rl:actor:anon:ip:" + ipFromCtx(c)
		}
		return "rl:actor:" + actor
	}
}

// hitScript counts a hit, opens the window on the first one and returns
// {count, remaining window in ms} in a single round trip.
var hitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

// window is the state of one bucket after a hit.
type window struct {
	count int
	reset time.Duration
}

func parseWindow(v any) (window, error) {
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		return window{}, fmt.Errorf("unexpected rate limit reply %T", v)
	}
	count, ok1 := pair[0].(int64)
	pttl, ok2 := pair[1].(int64)
	if !ok1 || !ok2 {
		return window{}, fmt.Errorf("unexpected rate limit reply %v", pair)
	}
	w := window{count: int(count)}
	if pttl > 0 {
		w.reset = time.Duration(pttl) * time.Millisecond
	}
	return w, nil
}

// writeHeaders sets X-RateLimit-* and reports whether the request is over budget.
func (w window) writeHeaders(c *gin.Context, limit int) bool {
	resetSec := int((w.reset + time.Second - 1) / time.Second)
	remaining := limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
	c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))

	over := w.count > limit
	if over && resetSec > 0 {
		c.Header("Retry-After", strconv.Itoa(resetSec))
	}
	return over
}

// RateLimit is a fixed-window limiter backed by Redis. Without a client, or
// with a non-positive limit, it passes everything through. Redis failures fail open.
func RateLimit(rdb *redis.Client, limit int, per time.Duration, keyFn KeyFunc, allow AllowFunc) gin.HandlerFunc {
	if rdb == nil || limit <= 0 || per <= 0 || keyFn == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || (allow != nil && allow(c)) {
			c.Next()
			return
		}

		reply, err := hitScript.Run(c.Request.Context(), rdb, []string{keyFn(c)}, per.Milliseconds()).Result()
		if err != nil {
			c.Next()
			return
		}
		w, err := parseWindow(reply)
		if err != nil {
			c.Next()
			return
		}
		if w.writeHeaders(c, limit) {
			response.Error[any](c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}
		c.Next()
	}
}
