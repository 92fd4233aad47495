package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/wichananm65/marketplace-backend/internal/apperr"
)

// Middleware verifies HS256 bearer tokens and stores the parsed token in
// c.Locals("user").
func Middleware(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: []byte(secret),
		ContextKey: localsKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return apperr.Unauthorized("missing or invalid token").Wrap(err)
		},
	})
}

// RequireRole rejects callers whose role is not listed.
func RequireRole(roles ...Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := ActorFromCtx(c)
		if err != nil {
			return err
		}
		for _, r := range roles {
			if actor.Role == r {
				return c.Next()
			}
		}
		return apperr.Forbidden("role %s may not access this resource", actor.Role)
	}
}

// SignToken issues a token in the shape Middleware accepts. Only local tooling
// and tests mint tokens; production tokens come from the identity service.
func SignToken(secret string, actor Actor, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": int64(actor.UserID),
		"role":    string(actor.Role),
		"exp":     time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
