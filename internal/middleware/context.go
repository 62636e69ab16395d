package middleware

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/logging"
	"github.com/gofiber/fiber/v2"
)

// RequestContext tags the request context with the request id so service
// log lines can be correlated. It must run after requestid.
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id := c.GetRespHeader(fiber.HeaderXRequestID); id != "" {
			c.SetUserContext(logging.WithAttrs(c.UserContext(), "request_id", id))
		}
		return c.Next()
	}
}

// Timeout bounds the store and identity provider calls made for one request.
func Timeout(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}
