package checkout

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/marketplace-backend/internal/apperr"
	"github.com/wichananm65/marketplace-backend/internal/auth"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Post("/checkout", h.checkout)
}

func (h *Handler) checkout(c *fiber.Ctx) error {
	actor, err := auth.ActorFromCtx(c)
	if err != nil {
		return err
	}

	// the body is optional
	var in Input
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return apperr.Validation("invalid request body").Wrap(err)
		}
		if err := apperr.ValidateStruct(&in); err != nil {
			return err
		}
	}

	o, err := h.service.Checkout(c.UserContext(), actor, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"order": o})
}
