package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/frahmantamala/tenant-admin/internal"
)

// RateLimiter throttles requests per client IP. It counts in Redis when a
// client is configured and falls back to in-process token buckets when Redis
// is absent or failing.
type RateLimiter struct {
	redis  *redis_rate.Limiter
	local  *localBuckets
	limit  redis_rate.Limit
	prefix string
	logger *slog.Logger
}

// NewRateLimiter allows perMinute requests per minute per IP, with the same burst.
// rdb may be nil.
func NewRateLimiter(rdb *redis.Client, prefix string, perMinute int, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		local:  &localBuckets{buckets: make(map[string]*bucket)},
		limit:  redis_rate.PerMinute(perMinute),
		prefix: prefix,
		logger: logger,
	}
	if rdb != nil {
		rl.redis = redis_rate.NewLimiter(rdb)
	}
	return rl
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ratelimit:" + rl.prefix + ":" + ClientIP(r)
		res := rl.allow(r.Context(), key)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit.Rate))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if res.Allowed == 0 {
			retry := int(res.RetryAfter.Seconds())
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))

			status, body := internal.ErrRateLimited.ToHTTPResponse()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(body)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ctx context.Context, key string) *redis_rate.Result {
	if rl.redis != nil {
		res, err := rl.redis.Allow(ctx, key, rl.limit)
		if err == nil {
			return res
		}
		rl.logger.WarnContext(ctx, "redis rate limiter unavailable, using local buckets", "error", err)
	}
	return rl.local.allow(key, rl.limit)
}

// ClientIP prefers the last X-Forwarded-For hop, the one appended by our proxy.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		return strings.TrimSpace(hops[len(hops)-1])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type localBuckets struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	sweeps  int
}

const bucketTTL = 10 * time.Minute

func (l *localBuckets) allow(key string, limit redis_rate.Limit) *redis_rate.Result {
	perSecond := float64(limit.Rate) / limit.Period.Seconds()
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweeps++
	if l.sweeps%1024 == 0 {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > bucketTTL {
				delete(l.buckets, k)
			}
		}
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(perSecond), limit.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	res := &redis_rate.Result{Limit: limit, RetryAfter: -1}
	if b.limiter.AllowN(now, 1) {
		res.Allowed = 1
	} else {
		res.RetryAfter = time.Duration(float64(time.Second) / perSecond)
	}
	if remaining := int(b.limiter.TokensAt(now)); remaining > 0 {
		res.Remaining = remaining
	}
	return res
}
