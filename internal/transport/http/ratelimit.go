package http

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter manages rate limiting for IPs
type RateLimiter struct {
	ips             map[string]*rate.Limiter
	mu              sync.RWMutex
	rps             rate.Limit
	burst           int
	cleanupInterval time.Duration
}

// NewRateLimiter creates a limiter allowing maxRequests per window
// per client IP.
func NewRateLimiter(window time.Duration, maxRequests int) *RateLimiter {
	rl := &RateLimiter{
		ips:             make(map[string]*rate.Limiter),
		rps:             rate.Limit(float64(maxRequests) / window.Seconds()),
		burst:           maxRequests,
		cleanupInterval: 10 * time.Minute,
	}

	go rl.cleanup()

	return rl
}

// GetLimiter returns a limiter for an IP
func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.ips[ip]
	if !exists {
		limiter = rate.NewLimiter(rl.rps, rl.burst)
		rl.ips[ip] = limiter
	}

	return limiter
}

// cleanup periodically resets the map so drive-by IPs don't
// accumulate. Active clients get a fresh limiter on the next request.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	for range ticker.C {
		rl.mu.Lock()
		rl.ips = make(map[string]*rate.Limiter)
		rl.mu.Unlock()
	}
}

// RateLimitMiddleware creates a middleware for rate limiting
func RateLimitMiddleware(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)

			limiter := rl.GetLimiter(ip)
			if !limiter.Allow() {
				respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts IP from request (handling proxies)
func getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}
