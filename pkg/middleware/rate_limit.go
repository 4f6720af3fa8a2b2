package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/composables"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/httpapi"
)

const rateLimitPrefix = "logistics:limiter"

type RateLimitConfig struct {
	RequestsPerPeriod int
	// Defaults to one second.
	Period time.Duration
	Store  limiter.Store
	// Separates counters of limiters that share a store.
	Name string
}

func NewMemoryStore() limiter.Store {
	return memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          rateLimitPrefix,
		CleanUpInterval: time.Minute,
	})
}

// NewRedisStore connects to redisURL and returns a limiter store backed by it.
func NewRedisStore(redisURL string) (limiter.Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: rateLimitPrefix})
}

// RateLimit limits requests per client IP. A non-positive rate disables it.
func RateLimit(cfg RateLimitConfig) mux.MiddlewareFunc {
	if cfg.RequestsPerPeriod <= 0 || cfg.Store == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	period := cfg.Period
	if period <= 0 {
		period = time.Second
	}
	lim := limiter.New(cfg.Store, limiter.Rate{
		Period: period,
		Limit:  int64(cfg.RequestsPerPeriod),
	})
	mw := stdlib.NewMiddleware(
		lim,
		stdlib.WithKeyGetter(func(r *http.Request) string {
			return cfg.Name + ":" + clientKey(r)
		}),
		stdlib.WithLimitReachedHandler(limitReached),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			composables.UseLogger(r.Context()).WithError(err).Error("rate limiter store failed")
			writeLimitError(w, r, http.StatusServiceUnavailable, "RATE_LIMIT_UNAVAILABLE", "rate limiter unavailable")
		}),
	)
	return func(next http.Handler) http.Handler {
		h := mw.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			h.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if ip, ok := composables.UseIP(r.Context()); ok && ip != "" {
		return ip
	}
	addr := r.RemoteAddr
	if i := strings.LastIndexByte(addr, ':'); i > 0 {
		addr = addr[:i]
	}
	return addr
}

func limitReached(w http.ResponseWriter, r *http.Request) {
	writeLimitError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
}

func writeLimitError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	meta := map[string]string{}
	if id, ok := composables.UseRequestID(r.Context()); ok {
		meta["request_id"] = id
	}
	_ = httpapi.WriteError(w, status, code, message, meta)
}
