package ratelimit

import (
	"fmt"
	"strconv"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
)

// Middleware applies a Limiter to Fiber routes.
type Middleware struct {
	limiter Limiter
	limit   int
	logger  types.Logger
}

// NewMiddleware creates a middleware reporting limit in its headers. The
// logger may be nil.
func NewMiddleware(limiter Limiter, limit int, logger types.Logger) *Middleware {
	return &Middleware{limiter: limiter, limit: limit, logger: logger}
}

// PerIP limits requests by client IP. If the limiter fails the request
// is let through.
func (m *Middleware) PerIP() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if ip == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "forbidden",
				"message": "Unable to determine client IP address",
			})
		}

		result, err := m.limiter.Allow(c.UserContext(), c.Route().Path+":"+ip)
		if err != nil {
			if m.logger != nil {
				m.logger.Warn("rate limiter unavailable, allowing request",
					"ip", ip, "path", c.Path(), "error", err)
			}
			return c.Next()
		}

		setRateLimitHeaders(c, result, m.limit)
		if !result.Allowed {
			return sendRateLimitExceeded(c, result)
		}
		return c.Next()
	}
}

func setRateLimitHeaders(c *fiber.Ctx, result *Result, limit int) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func sendRateLimitExceeded(c *fiber.Ctx, result *Result) error {
	retryAfter := int(result.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Set("Retry-After", strconv.Itoa(retryAfter))

	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error":   "rate_limited",
		"message": fmt.Sprintf("Too many attempts. Please retry after %d seconds.", retryAfter),
	})
}
