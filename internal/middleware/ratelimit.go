package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

type bucket struct {
	count int
	until time.Time
}

// limiter is a fixed-window counter per client IP.
type limiter struct {
	mu      sync.Mutex
	limit   int
	per     time.Duration
	buckets map[string]*bucket
	now     func() time.Time
}

func newLimiter(limit int, per time.Duration) *limiter {
	return &limiter{limit: limit, per: per, buckets: make(map[string]*bucket), now: time.Now}
}

// allow reports whether key may proceed and, if not, how long until it may.
func (l *limiter) allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	b, ok := l.buckets[key]
	if !ok || now.After(b.until) {
		l.sweep(now)
		b = &bucket{until: now.Add(l.per)}
		l.buckets[key] = b
	}
	if b.count >= l.limit {
		return false, b.until.Sub(now)
	}
	b.count++
	return true, 0
}

// sweep drops expired windows; callers hold mu.
func (l *limiter) sweep(now time.Time) {
	for k, b := range l.buckets {
		if now.After(b.until) {
			delete(l.buckets, k)
		}
	}
}

// RateLimit allows limit requests per client per window. A non-positive limit
// disables it.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	lim := newLimiter(limit, per)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := lim.allow(clientIPForRateLimit(r))
			if !ok {
				secs := int(wait.Round(time.Second) / time.Second)
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIPForRateLimit(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip == "" {
				continue
			}
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		if net.ParseIP(host) != nil {
			return host
		}
	} else if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}

	return r.RemoteAddr
}
