package middleware

import (
	authsvc "propertydeals-backend/internal/application/auth"
	"propertydeals-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const userLocal = "user"

// RequireAuth ensures an operator is in the session. Returns 401 with the standard error
// format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		op, err := authsvc.VerifyOperator(c.Locals(userLocal))
		if err != nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		c.Locals("auth", op)
		return c.Next()
	}
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// GetOperator returns the operator attached by RequireAuth.
func GetOperator(c *fiber.Ctx) *authsvc.Operator {
	op, _ := c.Locals("auth").(*authsvc.Operator)
	return op
}
