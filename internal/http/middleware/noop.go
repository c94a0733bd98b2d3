package middleware

import "github.com/gofiber/fiber/v2"

// Noop passes the request straight to the next handler. Useful as a
// placeholder when a middleware slot must stay wired but inactive.
func Noop() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Next()
	}
}
