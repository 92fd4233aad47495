package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const internalMessage = "internal server error"

// Handler renders errors returned by route handlers as
// {"error": message, "kind": kind}. Internal errors are logged and replaced
// with a generic message.
func Handler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		var ae *Error
		if !errors.As(err, &ae) || ae.Kind == KindInternal {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": internalMessage,
				"kind":  KindInternal,
			})
		}

		body := fiber.Map{"error": ae.Message, "kind": ae.Kind}
		if len(ae.Fields) > 0 {
			body["fields"] = ae.Fields
		}
		return c.Status(HTTPStatus(ae.Kind)).JSON(body)
	}
}
