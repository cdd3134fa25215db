package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// IPRateLimiter enforces a token-bucket limit per client IP. Buckets for
// idle clients are dropped by a background sweep so the map stays bounded.
type IPRateLimiter struct {
	limiters map[string]*rateLimiterEntry
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	duration time.Duration
}

type rateLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewIPRateLimiter allows requestsPerDuration requests per duration window
// for each client IP
func NewIPRateLimiter(requestsPerDuration int, duration time.Duration) *IPRateLimiter {
	limiter := &IPRateLimiter{
		limiters: make(map[string]*rateLimiterEntry),
		rate:     rate.Limit(float64(requestsPerDuration) / duration.Seconds()),
		burst:    requestsPerDuration,
		duration: duration,
	}

	go limiter.cleanupLoop()

	return limiter
}

func (rl *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.limiters[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[ip] = &rateLimiterEntry{limiter: limiter, lastAccess: time.Now()}
		return limiter
	}

	entry.lastAccess = time.Now()
	return entry.limiter
}

func (rl *IPRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.duration)
	defer ticker.Stop()

	for range ticker.C {
		rl.cleanup()
	}
}

func (rl *IPRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for ip, entry := range rl.limiters {
		if now.Sub(entry.lastAccess) > rl.duration*2 {
			delete(rl.limiters, ip)
		}
	}
}

// Middleware rejects over-limit requests with 429 and a Retry-After hint.
// The bucket key comes from getClientIP, so a spoofed X-Forwarded-For from
// outside the trusted proxy ranges cannot dodge the limit.
func (rl *IPRateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			limiter := rl.getLimiter(getClientIP(c))

			if !limiter.Allow() {
				reservation := limiter.Reserve()
				delay := reservation.Delay()
				reservation.Cancel()

				c.Response().Header().Set("Retry-After", delay.String())

				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":   "Rate limit exceeded",
					"message": "Too many requests. Please try again later.",
				})
			}

			return next(c)
		}
	}
}

// RateLimiterConfig holds the per-endpoint-class limiters
type RateLimiterConfig struct {
	SurveyCreation *IPRateLimiter
	VoteSubmission *IPRateLimiter
	Export         *IPRateLimiter
	GeneralAPI     *IPRateLimiter
}

// NewRateLimiterConfig creates the limiters with their per-class budgets.
// Exports are the tightest: each one uploads a full table to object storage.
func NewRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		SurveyCreation: NewIPRateLimiter(5, time.Minute),
		VoteSubmission: NewIPRateLimiter(10, time.Minute),
		Export:         NewIPRateLimiter(3, time.Minute),
		GeneralAPI:     NewIPRateLimiter(60, time.Minute),
	}
}
