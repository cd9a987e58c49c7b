package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// CounterStore is the shared windowed counter behind the rate limiter.
// Incr bumps the counter for key and returns its value; the first bump
// in a window arms the window's expiry.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisStore counts in Redis so the limit holds across server
// instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return incr.Val(), nil
}

// MemoryStore is the single-node fallback when no Redis is configured.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
}

type memoryWindow struct {
	count   int64
	resetAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]*memoryWindow)}
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	w, ok := s.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &memoryWindow{resetAt: now.Add(window)}
		s.windows[key] = w
	}

	w.count++
	return w.count, nil
}

// RateLimit rejects a client IP with 429 once it exceeds limit requests
// within the window. A broken counter store fails open: throttling is
// best effort, auth itself is not.
func RateLimit(store CounterStore, name string, limit int64, window time.Duration, message string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		key := "ratelimit:" + name + ":" + ctx.ClientIP()

		count, err := store.Incr(ctx.Request.Context(), key, window)

		if err != nil {
			slog.Warn("rate limiter unavailable", "name", name, "error", err)
			ctx.Next()
			return
		}

		if count > limit {
			slog.Warn("rate limit exceeded", "name", name, "ip", ctx.ClientIP())
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": message})
			return
		}

		ctx.Next()
	}
}
