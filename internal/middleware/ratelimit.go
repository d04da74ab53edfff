package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimiter counts requests per caller in fixed Redis windows.
type RateLimiter struct {
	rdb     *redis.Client
	enabled bool
}

// NewRateLimiter returns a limiter backed by rdb. When enabled is false every
// request is allowed, which is what development and test environments use.
func NewRateLimiter(rdb *redis.Client, enabled bool) *RateLimiter {
	return &RateLimiter{rdb: rdb, enabled: enabled}
}

// Allow increments the counter for resource/id and reports whether the caller is
// still within limit for the current window.
func (l *RateLimiter) Allow(ctx context.Context, resource, id string, limit int, window time.Duration) (bool, error) {
	if l == nil || !l.enabled {
		return true, nil
	}
	if l.rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		l.rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// Limit returns a Fiber middleware enforcing limit POST submissions per window
// for the named resource. Callers are keyed by user ID when a session is
// present, otherwise by remote IP. Redis failures let the request through.
func (l *RateLimiter) Limit(resource string, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			return c.Next()
		}

		id := fmt.Sprintf("ip:%s", c.IP())
		if uid, ok := c.Locals(LocalsUserID).(uint); ok && uid != 0 {
			id = fmt.Sprintf("user:%d", uid)
		}

		allowed, err := l.Allow(c.UserContext(), resource, id, limit, window)
		if err != nil {
			Logger.WarnContext(c.UserContext(), "rate limit check failed, allowing request",
				slog.String("resource", resource), slog.String("error", err.Error()))
			return c.Next()
		}
		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests, please try again later.")
		}
		return c.Next()
	}
}
