package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/bunkwise-api/internal/utils"
)

// Auth roles understood by WithAuth. Guests hold trial tokens and cannot use the
// screenshot extractor.
const (
	AuthRoleAny    = "any"
	AuthRoleMember = "member"
	AuthRoleAdmin  = "admin"
	AuthRoleGuest  = "guest"
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	Role        string
	RequireUser bool
}

// WithAuth wraps a handler with authentication and role guards.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := normalizeRole(opts.Role)
	if role == "" {
		role = AuthRoleAny
	}

	requireUser := opts.RequireUser || role != AuthRoleAny

	return func(c *fiber.Ctx) error {
		_, authenticated := c.Locals("user_id").(uint)
		if requireUser && !authenticated {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		current := normalizeRole(c.Locals("user_role"))
		if current == "" && authenticated {
			current = AuthRoleMember
		}

		switch role {
		case AuthRoleAny:
		case AuthRoleMember:
			if current != AuthRoleMember && current != AuthRoleAdmin {
				return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", fiber.Map{"required_role": role})
			}
		default:
			if current != role {
				return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", fiber.Map{"required_role": role})
			}
		}

		return handler(c)
	}
}

func normalizeRole(value interface{}) string {
	if role, ok := value.(string); ok {
		return strings.ToLower(strings.TrimSpace(role))
	}
	return ""
}
