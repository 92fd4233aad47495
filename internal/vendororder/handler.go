package vendororder

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/marketplace-backend/internal/apperr"
	"github.com/wichananm65/marketplace-backend/internal/auth"
	"github.com/wichananm65/marketplace-backend/internal/ids"
	"github.com/wichananm65/marketplace-backend/internal/order"
)

type Handler struct {
	service *Service
	orders  *order.Handler
}

// NewHandler serves the vendor order routes. Status updates are delegated to
// the order handler so vendors and admins share one code path.
func NewHandler(s *Service, orders *order.Handler) *Handler {
	return &Handler{service: s, orders: orders}
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	g := r.Group("/vendor/orders", auth.RequireRole(auth.RoleVendor))
	g.Get("/", h.listOrders)
	g.Get("/:id", h.getOrder)
	g.Patch("/:id/status", h.orders.UpdateStatus)
}

type listQuery struct {
	Status string `query:"status"`
	Page   int    `query:"page" validate:"gte=0,lte=1000000"`
	Limit  int    `query:"limit" validate:"gte=0,lte=100"`
}

func (h *Handler) listOrders(c *fiber.Ctx) error {
	actor, err := auth.ActorFromCtx(c)
	if err != nil {
		return err
	}

	q := new(listQuery)
	if err := c.QueryParser(q); err != nil {
		return apperr.Validation("invalid query parameters").Wrap(err)
	}
	if err := apperr.ValidateStruct(q); err != nil {
		return err
	}

	page, err := h.service.ListForVendor(c.UserContext(), actor.VendorID(), Filter{
		Status: q.Status,
		Page:   q.Page,
		Limit:  q.Limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(page)
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

	p, err := h.service.GetForVendor(c.UserContext(), actor.VendorID(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"order": p})
}
