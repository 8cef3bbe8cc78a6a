package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/englishmastery-api/internal/utils"
)

// Roles carried in the JWT role claim.
const (
	AuthRoleAny     = "any"
	AuthRoleAdmin   = "admin"
	AuthRoleTeacher = "teacher"
	AuthRoleLearner = "learner"
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	Role        string
	RequireUser bool
}

// WithAuth wraps a handler with authentication and role guards.
// Any role other than AuthRoleAny implies RequireUser. Admins pass every
// role check; teachers also pass learner checks so they can try exercises.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := strings.ToLower(strings.TrimSpace(opts.Role))
	if role == "" {
		role = AuthRoleAny
	}

	requireUser := opts.RequireUser || role != AuthRoleAny

	return func(c *fiber.Ctx) error {
		if requireUser && UserID(c) == 0 {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		if role == AuthRoleAny {
			return handler(c)
		}

		current := UserRole(c)
		if !roleSatisfies(current, role) {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}

		return handler(c)
	}
}

func roleSatisfies(current, required string) bool {
	if current == AuthRoleAdmin {
		return true
	}
	switch required {
	case AuthRoleLearner:
		return current == AuthRoleLearner || current == AuthRoleTeacher
	default:
		return current == required
	}
}

// UserID returns the authenticated learner id stored by JWTProtected, or 0.
func UserID(c *fiber.Ctx) uint {
	switch id := c.Locals("user_id").(type) {
	case uint:
		return id
	case int:
		if id > 0 {
			return uint(id)
		}
	}
	return 0
}

// UserRole returns the normalised role stored by JWTProtected.
func UserRole(c *fiber.Ctx) string {
	return normalizeRole(c.Locals("user_role"))
}
