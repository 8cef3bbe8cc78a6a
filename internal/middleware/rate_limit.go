package middleware

import (
	"fmt"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/englishmastery-api/internal/observability"
	"github.com/noah-isme/englishmastery-api/internal/utils"
)

// RateLimit throttles a route group with a sliding window keyed by learner,
// or by client IP for anonymous callers.
func RateLimit(scope string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}
	retryAfter := int(math.Ceil(window.Seconds()))

	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        window,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			if id := UserID(c); id != 0 {
				return fmt.Sprintf("%s:learner:%d", scope, id)
			}
			return fmt.Sprintf("%s:ip:%s", scope, c.IP())
		},
		LimitReached: func(c *fiber.Ctx) error {
			observability.RateLimited().WithLabelValues(scope).Inc()
			return utils.Fail(c, fiber.StatusTooManyRequests, "too many requests, slow down", fiber.Map{
				"scope":               scope,
				"retry_after_seconds": retryAfter,
			})
		},
	})
}
