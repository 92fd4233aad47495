package product

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/marketplace-backend/internal/apperr"
	"github.com/wichananm65/marketplace-backend/internal/auth"
	"github.com/wichananm65/marketplace-backend/internal/ids"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Get("/products/:id", h.getProduct)
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Get("/vendor/products", auth.RequireRole(auth.RoleVendor), h.listVendorProducts)
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	id, err := ids.ParseProductID(c.Params("id"))
	if err != nil {
		return apperr.Validation("%s", err.Error())
	}

	p, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (h *Handler) listVendorProducts(c *fiber.Ctx) error {
	actor, err := auth.ActorFromCtx(c)
	if err != nil {
		return err
	}
	products, err := h.service.ListByVendor(c.UserContext(), actor.VendorID())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"products": products})
}
