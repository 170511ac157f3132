package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/lofiradio/automation/pkg/response"
)

type RateLimitMiddleware struct {
	redis *redis.Client
}

func NewRateLimitMiddleware(redisClient *redis.Client) *RateLimitMiddleware {
	return &RateLimitMiddleware{redis: redisClient}
}

// LimitRuns caps how many runs a caller can trigger per hour. The counter
// lives in redis keyed by caller identity, falling back to the client IP
// for unauthenticated paths.
func (m *RateLimitMiddleware) LimitRuns(perHour int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if perHour <= 0 {
			return c.Next()
		}

		identity := GetUserID(c)
		if identity == "" {
			identity = c.IP()
		}
		key := fmt.Sprintf("ratelimit:runs:%s", identity)
		ctx := context.Background()

		count, err := m.redis.Incr(ctx, key).Result()
		if err != nil {
			// A broken limiter must not take the trigger path down.
			return c.Next()
		}
		if count == 1 {
			m.redis.Expire(ctx, key, time.Hour)
		}
		if count > int64(perHour) {
			return response.TooManyRequests(c, fmt.Sprintf("Run limit of %d per hour exceeded", perHour))
		}

		return c.Next()
	}
}
