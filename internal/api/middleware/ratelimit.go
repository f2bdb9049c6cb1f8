package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/krishkrishna03/techex-sub003/internal/common"
)

const limiterIdleTTL = 3 * time.Minute

// UserRateLimiter keeps one token bucket per caller.
type UserRateLimiter struct {
	mu        sync.Mutex
	entries   map[string]*rateLimiterEntry
	r         rate.Limit
	burst     int
	lastSweep time.Time
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewUserRateLimiter allows perMinute requests per caller with the given burst.
func NewUserRateLimiter(perMinute float64, burst int) *UserRateLimiter {
	return &UserRateLimiter{
		entries:   make(map[string]*rateLimiterEntry),
		r:         rate.Limit(perMinute / 60.0),
		burst:     burst,
		lastSweep: time.Now(),
	}
}

// GetLimiter returns the limiter for key, creating it on first use. Idle
// entries are swept at most once a minute.
func (rl *UserRateLimiter) GetLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSweep) > time.Minute {
		for k, e := range rl.entries {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(rl.entries, k)
			}
		}
		rl.lastSweep = now
	}

	entry, ok := rl.entries[key]
	if !ok {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(rl.r, rl.burst)}
		rl.entries[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// RateLimit keys on the authenticated user, falling back to the remote address.
func RateLimit(limiter *UserRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := GetUserIDFromContext(r.Context())
			if !ok {
				key = r.RemoteAddr
			}
			if !limiter.GetLimiter(key).Allow() {
				slog.WarnContext(r.Context(), "Rate limit exceeded", slog.String("key", key), slog.String("path", r.URL.Path))
				w.Header().Set("Retry-After", "60")
				common.RespondWithError(w, http.StatusTooManyRequests, common.ErrRateLimited.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
