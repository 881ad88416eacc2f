package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures per-client rate limiting.
type RateLimitConfig struct {
	// RPS is the sustained requests per second per client IP. Zero disables.
	RPS float64
	// Burst is the bucket size. Defaults to one second of RPS.
	Burst int
}

const (
	visitorTTL    = 3 * time.Minute
	sweepInterval = time.Minute
)

// RateLimiter keeps a token bucket per client IP.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter from cfg.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = int(math.Max(1, math.Ceil(cfg.RPS)))
	}
	return &RateLimiter{
		visitors:  make(map[string]*visitor),
		limit:     rate.Limit(cfg.RPS),
		burst:     burst,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// visitorFor returns the bucket for ip, creating it if needed. Idle buckets
// are swept at most once per sweepInterval.
func (rl *RateLimiter) visitorFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > sweepInterval {
		for key, v := range rl.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(rl.visitors, key)
			}
		}
		rl.lastSweep = now
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Middleware rejects requests over the client's budget with 429 and writes
// x-ratelimit-* headers on every response.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := rl.visitorFor(clientIP(r))

		reservation := limiter.Reserve()
		h := w.Header()
		h.Set("x-ratelimit-limit-requests", strconv.Itoa(rl.burst))

		if delay := reservation.Delay(); !reservation.OK() || delay > 0 {
			reservation.Cancel()
			retry := int(math.Ceil(delay.Seconds()))
			if retry < 1 {
				retry = 1
			}
			h.Set("x-ratelimit-remaining-requests", "0")
			h.Set("Retry-After", strconv.Itoa(retry))
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "Too many requests"})
			return
		}

		remaining := int(math.Max(0, math.Floor(limiter.Tokens())))
		h.Set("x-ratelimit-remaining-requests", strconv.Itoa(remaining))
		next.ServeHTTP(w, r)
	})
}

// Visitors reports how many client buckets are tracked.
func (rl *RateLimiter) Visitors() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = strings.TrimSuffix(strings.TrimPrefix(r.RemoteAddr, "["), "]")
	}
	return ip
}
