// Package authtest fakes the JWT middleware for handler tests.
package authtest

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// HeaderToken stores an unsigned token built from the X-User-ID and X-Role
// request headers, the same way the real middleware stores a verified one.
// Requests without X-User-ID stay anonymous.
func HeaderToken(c *fiber.Ctx) error {
	if v := c.Get("X-User-ID"); v != "" {
		id, err := strconv.Atoi(v)
		if err == nil {
			claims := jwt.MapClaims{"user_id": id}
			if role := c.Get("X-Role"); role != "" {
				claims["role"] = role
			}
			c.Locals("user", &jwt.Token{Claims: claims})
		}
	}
	return c.Next()
}
