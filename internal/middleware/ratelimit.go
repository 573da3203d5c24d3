package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rentdesk/rentdesk/internal/httputil"
)

// RateLimiter is a sliding-window counter keyed by client IP.
type RateLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
	go rl.sweepLoop()
	return rl
}

// Allow records a hit for ip and reports whether it is within the limit.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	recent := within(rl.hits[ip], now.Add(-rl.window))

	if len(recent) >= rl.limit {
		rl.hits[ip] = recent
		return false
	}

	rl.hits[ip] = append(recent, now)
	return true
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.sweep(time.Now())
	}
}

// sweep forgets clients idle for two windows.
func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-2 * rl.window)
	for ip, hits := range rl.hits {
		if len(within(hits, cutoff)) == 0 {
			delete(rl.hits, ip)
		}
	}
}

// within returns the hits after cutoff. hits is ordered oldest first.
func within(hits []time.Time, cutoff time.Time) []time.Time {
	for i, t := range hits {
		if t.After(cutoff) {
			return hits[i:]
		}
	}
	return nil
}

// RateLimit allows limit requests per window per client IP and answers the
// rest with 429. Login and registration are wrapped with it.
func RateLimit(limit int, window time.Duration) func(http.HandlerFunc) http.HandlerFunc {
	limiter := NewRateLimiter(limit, window)
	retryAfter := strconv.Itoa(int(window.Seconds()))

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)
			if !limiter.Allow(ip) {
				slog.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
				w.Header().Set("Retry-After", retryAfter)
				httputil.RespondError(w, http.StatusTooManyRequests, "too many requests, please try again later", "")
				return
			}
			next(w, r)
		}
	}
}

// getClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the connection's remote address.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if i := strings.LastIndex(r.RemoteAddr, ":"); i != -1 {
		return r.RemoteAddr[:i]
	}
	return r.RemoteAddr
}
