package http

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/metrics"
	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/repo"
)

// GuestLimiter is a fixed-window counter per client IP for the guest
// registration endpoint. With Redis configured the window is shared across
// instances (INCR + EXPIRE); otherwise it falls back to in-process counters.
type GuestLimiter struct {
	rds    *repo.Redis
	limit  int
	window time.Duration
	log    *zap.Logger

	mu   sync.Mutex
	hits map[string]*windowCount
}

type windowCount struct {
	count int
	reset time.Time
}

func NewGuestLimiter(rds *repo.Redis, limit int, window time.Duration, logger *zap.Logger) *GuestLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &GuestLimiter{
		rds:    rds,
		limit:  limit,
		window: window,
		log:    logger,
		hits:   make(map[string]*windowCount),
	}
}

func (l *GuestLimiter) Allow(ctx context.Context, ip string) bool {
	if l.rds != nil {
		key := "rl:guest:" + ip
		n, err := l.rds.C.Incr(ctx, key).Result()
		if err == nil {
			if n == 1 {
				l.rds.C.Expire(ctx, key, l.window)
			}
			return n <= int64(l.limit)
		}
		l.log.Warn("redis rate limit failed, using local counters", zap.Error(err))
	}

	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.hits[ip]
	if !ok || now.After(w.reset) {
		l.hits[ip] = &windowCount{count: 1, reset: now.Add(l.window)}
		return true
	}
	w.count++
	return w.count <= l.limit
}

func (l *GuestLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := clientIP(c)
		if !l.Allow(c.Request.Context(), ip) {
			metrics.RateLimitedTotal.Inc()
			l.log.Warn("guest registration rate limit exceeded",
				zap.String("ip", ip), zap.String("user_agent", c.GetHeader("User-Agent")))
			abortCode(c, http.StatusTooManyRequests,
				"Too many guest accounts created from this IP. Please try again in 15 minutes.",
				"RATE_LIMIT_EXCEEDED")
			return
		}
		c.Next()
	}
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(ip); err == nil && host != "" {
		return host
	}
	return ip
}
