package order

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/marketplace-backend/internal/apperr"
	"github.com/wichananm65/marketplace-backend/internal/auth"
	"github.com/wichananm65/marketplace-backend/internal/ids"
)

// Handler serves the buyer's order history and the admin status override.
// Vendor-facing order routes live in vendororder.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Get("/orders", h.getOrders)
	r.Get("/orders/:id", h.getOrder)
	r.Patch("/admin/orders/:id/status", auth.RequireRole(auth.RoleAdmin), h.UpdateStatus)
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) getOrders(c *fiber.Ctx) error {
	actor, err := auth.ActorFromCtx(c)
	if err != nil {
		return err
	}
	orders, err := h.service.ListForUser(c.UserContext(), actor.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"orders": orders})
}

func (h *Handler) getOrder(c *fiber.Ctx) error {
	actor, err := auth.ActorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := ids.ParseOrderID(c.Params("id"))
	if err != nil {
		return apperr.Validation("%s", err.Error())
	}
	o, err := h.service.GetForUser(c.UserContext(), actor.UserID, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"order": o})
}

// UpdateStatus handles PATCH .../orders/:id/status for whichever actor the
// route admits.
func (h *Handler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := auth.ActorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := ids.ParseOrderID(c.Params("id"))
	if err != nil {
		return apperr.Validation("%s", err.Error())
	}

	payload := new(StatusRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Validation("invalid request body").Wrap(err)
	}
	if err := apperr.ValidateStruct(payload); err != nil {
		return err
	}

	o, err := h.service.UpdateStatus(c.UserContext(), id, payload.Status, actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"order": o.StatusChange()})
}
