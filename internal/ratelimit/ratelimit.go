package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/segfal/Lockdin/internal/shared/httpx"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error)
}

// RedisLimiter counts hits per key in Redis, so every replica shares the budget.
// Each hit pushes the key's expiry out by one window.
type RedisLimiter struct{ R *redis.Client }

func NewRedis(r *redis.Client) *RedisLimiter { return &RedisLimiter{R: r} }

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	k := "rl:" + key
	pipe := l.R.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= limit, nil
}

// LocalLimiter keeps a token bucket per key in process memory. Buckets idle
// for a few windows are evicted.
type LocalLimiter struct {
	buckets *cache.Cache
}

func NewLocal(window time.Duration) *LocalLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &LocalLimiter{buckets: cache.New(3*window, 6*window)}
}

func (l *LocalLimiter) Allow(_ context.Context, key string, limit int64, window time.Duration) (bool, error) {
	if limit <= 0 {
		return false, nil
	}
	b := l.bucket(key, limit, window)
	return b.Allow(), nil
}

func (l *LocalLimiter) bucket(key string, limit int64, window time.Duration) *rate.Limiter {
	if v, ok := l.buckets.Get(key); ok {
		l.buckets.SetDefault(key, v)
		return v.(*rate.Limiter)
	}
	b := rate.NewLimiter(rate.Every(window/time.Duration(limit)), int(limit))
	if err := l.buckets.Add(key, b, cache.DefaultExpiration); err != nil {
		// lost the race against another request for the same key
		if v, ok := l.buckets.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return b
}

var errMissingKey = errors.New("cannot identify client")

// LimitHTTP rejects requests beyond limit per window for the key keyFn derives.
func LimitHTTP(l Limiter, limit int64, window time.Duration, keyFn func(*http.Request) string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := keyFn(r)
		if key == "" {
			httpx.WriteError(w, http.StatusBadRequest, errMissingKey, "missing_client")
			return
		}
		ok, err := l.Allow(r.Context(), key, limit, window)
		if err != nil {
			httpx.WriteError(w, http.StatusTooManyRequests, errors.New("rate limiter error"), "rate_limiter_error")
			return
		}
		if !ok {
			httpx.WriteError(w, http.StatusTooManyRequests,
				fmt.Errorf("rate limit exceeded (limit=%d per %s)", limit, window),
				"rate_limited")
			return
		}
		next.ServeHTTP(w, r)
	})
}
