package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/englishmastery-api/internal/utils"
)

// RequireRole ensures the authenticated user holds one of the allowed roles.
// Admins always pass.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles)+1)
	for _, role := range roles {
		if normalized := normalizeRole(role); normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}
	allowed[AuthRoleAdmin] = struct{}{}

	return func(c *fiber.Ctx) error {
		if _, ok := allowed[normalizeRole(c.Locals("user_role"))]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
