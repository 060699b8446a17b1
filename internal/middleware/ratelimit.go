package middleware

import (
	"context"
	"errors"
	"os"
	"time"

	"guildkeeper/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what a limiter does when Redis cannot be reached.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

// TooManyRequestsMessage is returned by every limiter once its budget is spent.
const TooManyRequestsMessage = "Too many requests from this IP, please try again later."

// ErrNoRateLimitStore is returned when limiting is active but no Redis client was wired.
var ErrNoRateLimitStore = errors.New("rate limit store unavailable")

// rateLimitExempt lists the APP_ENV values that run without limits. Unset counts as development.
var rateLimitExempt = map[string]bool{"": true, "test": true, "development": true, "stress": true}

// CheckRateLimit counts one hit for client id against resource and reports whether it
// is still within limit hits per window. The window starts at the first hit.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rateLimitExempt[os.Getenv("APP_ENV")] {
		return true, nil
	}
	if rdb == nil {
		return false, ErrNoRateLimitStore
	}

	key := "rl:" + resource + ":" + id
	var hits *redis.IntCmd
	_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, window)
		hits = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return false, err
	}
	return hits.Val() <= int64(limit), nil
}

// RateLimit limits resource to limit requests per window for each client, failing open.
// Authenticated callers are counted per account, everyone else per IP.
func RateLimit(rdb *redis.Client, resource string, limit int, window time.Duration) fiber.Handler {
	return RateLimitWithPolicy(rdb, resource, limit, window, FailOpen)
}

// RateLimitWithPolicy is RateLimit with an explicit failure policy.
func RateLimitWithPolicy(rdb *redis.Client, resource string, limit int, window time.Duration, policy FailPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := "ip:" + c.IP()
		if uid, ok := c.Locals(LocalUserID).(string); ok && uid != "" {
			id = "user:" + uid
		}

		allowed, err := CheckRateLimit(c.UserContext(), rdb, resource, id, limit, window)
		switch {
		case err != nil && policy == FailClosed:
			Logger.WarnContext(c.UserContext(), "rate limit store failed, rejecting",
				"resource", resource, "error", err)
			return models.RespondWithError(c, fiber.StatusServiceUnavailable,
				errors.New("Rate limiting is temporarily unavailable"))
		case err != nil:
			Logger.WarnContext(c.UserContext(), "rate limit store failed, allowing",
				"resource", resource, "error", err)
			return c.Next()
		case !allowed:
			return models.RespondWithError(c, fiber.StatusTooManyRequests, errors.New(TooManyRequestsMessage))
		}
		return c.Next()
	}
}
