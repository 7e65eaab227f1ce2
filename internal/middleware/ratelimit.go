package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// caller tracks how many AI-backed requests one session (or, for
// sessionless routes, one remote address) made in the current window.
type caller struct {
	count       int
	windowStart time.Time
}

// RateLimiter caps Gemini-backed requests per session per fixed window.
// Chat turns and board generation share the same budget.
type RateLimiter struct {
	mu      sync.Mutex
	callers map[string]*caller
	limit   int
	window  time.Duration
	now     func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		callers: make(map[string]*caller),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}

	// Cleanup goroutine
	go func() {
		for {
			time.Sleep(window)
			rl.mu.Lock()
			for key, c := range rl.callers {
				if rl.now().Sub(c.windowStart) > rl.window {
					delete(rl.callers, key)
				}
			}
			rl.mu.Unlock()
		}
	}()

	return rl
}

// callerKey prefers the session id so that several browser tabs of one
// session share a budget while distinct sessions behind one NAT do not.
// The session id is read from the path because route params are not yet
// parsed when group middleware runs.
func callerKey(r *http.Request) string {
	if id := sessionIDFromPath(r.URL.Path); id != "" {
		return "session:" + id
	}
	return "ip:" + r.RemoteAddr
}

func sessionIDFromPath(path string) string {
	const marker = "/sessions/"
	i := strings.Index(path, marker)
	if i < 0 {
		return ""
	}
	rest := path[i+len(marker):]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := callerKey(r)
		now := rl.now()

		rl.mu.Lock()
		c, exists := rl.callers[key]
		if !exists || now.Sub(c.windowStart) > rl.window {
			rl.callers[key] = &caller{count: 1, windowStart: now}
			rl.mu.Unlock()
			next.ServeHTTP(w, r)
			return
		}

		c.count++
		count := c.count
		retryAfter := rl.window - now.Sub(c.windowStart)
		rl.mu.Unlock()

		if count > rl.limit {
			seconds := int(retryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", r)
			return
		}

		next.ServeHTTP(w, r)
	})
}
