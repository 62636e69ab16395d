package middleware

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

const callerKey = "caller"

// Authenticate resolves the bearer token into a Caller. Failures go to the
// app error handler, which maps them to 401, 403 or 503.
func Authenticate(access *services.AccessService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := access.Resolve(c.UserContext(), BearerToken(c))
		if err != nil {
			return err
		}

		c.Locals(callerKey, caller)
		c.SetUserContext(logging.WithAttrs(c.UserContext(), "caller_id", caller.ID.String()))
		return c.Next()
	}
}

// GetCaller returns the caller set by Authenticate, or nil on public routes.
func GetCaller(c *fiber.Ctx) *services.Caller {
	caller, _ := c.Locals(callerKey).(*services.Caller)
	return caller
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
// Anything else yields "".
func BearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
