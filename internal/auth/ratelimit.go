package auth

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/bug-tracker/pkg/util"
)

// RateLimiter throttles credential endpoints using a fixed window counter
// in Redis. When Redis is unavailable the limiter fails open; losing rate
// limiting is preferable to losing logins.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	logger *zap.Logger
}

// NewRateLimiter constructs the limiter.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window, logger: logger}
}

// Handle counts requests per client IP and path.
func (r *RateLimiter) Handle(c *fiber.Ctx) error {
	if r == nil || r.client == nil || r.limit <= 0 {
		return c.Next()
	}

	key := fmt.Sprintf("ratelimit:%s:%s", c.IP(), c.Path())
	ctx := c.Context()

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		r.logger.Warn("rate limiter unavailable", zap.Error(err))
		return c.Next()
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			r.logger.Warn("rate limiter expire failed", zap.Error(err))
		}
	}
	if count > int64(r.limit) {
		return apperrors.NewDomainError("RATE_LIMITED", "too many requests", fiber.StatusTooManyRequests, nil)
	}
	return c.Next()
}
