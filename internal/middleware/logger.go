package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/pricebook/internal/domain/dto"
	"github.com/guttosm/pricebook/internal/logger"
)

// RequestLogger is a Gin middleware that logs method, path, status code,
// request latency, and request ID (if available).
//
// Example log output:
//
//	{"level":"info","service":"pricebook","request_id":"...","method":"GET","path":"/api/quote","status":200,"latency_ms":3,"message":"http_request"}
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		ev := logger.L().Info()
		if status >= http.StatusInternalServerError {
			ev = logger.L().Warn()
		}
		ev.Str("request_id", c.GetString(RequestIDKey)).
			Str("method", method).
			Str("path", path).
			Str("query", c.Request.URL.RawQuery).
			Int("status", status).
			Int64("latency_ms", time.Since(start).Milliseconds()).
			Str("client_ip", c.ClientIP()).
			Msg("http_request")
	}
}

// client is one rate-limited caller: requests seen in the current window.
type client struct {
	windowStart time.Time
	count       int
}

// rateLimiter is an in-memory fixed-window limiter keyed by client IP.
type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   int
	window  time.Duration
	now     func() time.Time
}

// RateLimiter limits each client IP to limit requests per window.
// A non-positive limit disables limiting.
//
// Response when limit exceeded:
//
//	HTTP/1.1 429 Too Many Requests
//	{"error": "rate limit exceeded", "hint": "retry later", ...}
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	rl := &rateLimiter{clients: make(map[string]*client), limit: limit, window: window, now: time.Now}
	return rl.handle
}

func (rl *rateLimiter) handle(c *gin.Context) {
	if rl.limit <= 0 {
		c.Next()
		return
	}

	if !rl.allow(c.ClientIP()) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests,
			dto.NewErrorResponse("rate limit exceeded").WithHint("retry later"))
		return
	}

	c.Next()
}

func (rl *rateLimiter) allow(ip string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.clients[ip]
	if !ok || now.Sub(cl.windowStart) >= rl.window {
		if len(rl.clients) > 10_000 {
			rl.evict(now)
		}
		rl.clients[ip] = &client{windowStart: now, count: 1}
		return true
	}
	cl.count++
	return cl.count <= rl.limit
}

// evict drops clients whose window has expired. Caller holds mu.
func (rl *rateLimiter) evict(now time.Time) {
	for ip, cl := range rl.clients {
		if now.Sub(cl.windowStart) >= rl.window {
			delete(rl.clients, ip)
		}
	}
}

// Timeout attaches a deadline to each request context.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
