package handlers

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

type rateLimitResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
}

// RateLimiter counts requests per client IP within a fixed window.
type RateLimiter struct {
	attempts map[string]int
	limit    int
	window   time.Duration
	resetAt  time.Time
	mutex    sync.Mutex
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		attempts: make(map[string]int),
		limit:    limit,
		window:   window,
		resetAt:  time.Now().Add(window),
	}
	go rl.cleanup()
	return rl
}

// Allow records an attempt and reports whether it fits the window,
// along with the number of requests the client has left.
func (rl *RateLimiter) Allow(ip string) (bool, int) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	count := rl.attempts[ip]
	if count >= rl.limit {
		return false, 0
	}
	rl.attempts[ip] = count + 1
	return true, rl.limit - count - 1
}

// ResetAfter reports how long until the current window ends.
func (rl *RateLimiter) ResetAfter() time.Duration {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	d := time.Until(rl.resetAt)
	if d < 0 {
		d = 0
	}
	return d
}

func (rl *RateLimiter) cleanup() {
	for {
		time.Sleep(rl.window)
		rl.mutex.Lock()
		rl.attempts = make(map[string]int)
		rl.resetAt = time.Now().Add(rl.window)
		rl.mutex.Unlock()
	}
}

// RateLimit rejects clients over the limit with a 429 and announces the
// window state in RateLimit-* headers on every response.
func (h *Handler) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining := h.RateLimiter.Allow(clientIP(r))
		reset := int(h.RateLimiter.ResetAfter().Seconds())

		w.Header().Set("RateLimit-Limit", strconv.Itoa(h.RateLimiter.limit))
		w.Header().Set("RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("RateLimit-Reset", strconv.Itoa(reset))

		if !allowed {
			sendJSON(w, http.StatusTooManyRequests, rateLimitResponse{
				Error:      "Too many requests, please try again later.",
				RetryAfter: reset,
			})
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
