package cart

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/marketplace-backend/internal/apperr"
	"github.com/wichananm65/marketplace-backend/internal/auth"
	"github.com/wichananm65/marketplace-backend/internal/ids"
)

// Handler delegates cart operations to the cart service.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Get("/cart", h.getCart)
	r.Post("/cart", h.addToCart)
	r.Patch("/cart/:productId", h.updateQuantity)
	r.Delete("/cart/:productId", h.removeItem)
	r.Delete("/cart", h.clearCart)
}

type addRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  *int  `json:"quantity,omitempty" validate:"omitempty,lte=2147483647"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,lte=2147483647"`
}

func (h *Handler) addToCart(c *fiber.Ctx) error {
	actor, err := auth.ActorFromCtx(c)
	if err != nil {
		return err
	}

	payload := new(addRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Validation("invalid request body").Wrap(err)
	}
	if err := apperr.ValidateStruct(payload); err != nil {
		return err
	}

	line, created, err := h.service.AddItem(c.UserContext(), actor.UserID, ids.ProductID(payload.ProductID), payload.Quantity)
	if err != nil {
		return err
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"item": line})
}

func (h *Handler) updateQuantity(c *fiber.Ctx) error {
	actor, err := auth.ActorFromCtx(c)
	if err != nil {
		return err
	}
	productID, err := ids.ParseProductID(c.Params("productId"))
	if err != nil {
		return apperr.Validation("%s", err.Error())
	}

	payload := new(quantityRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Validation("invalid request body").Wrap(err)
	}
	if err := apperr.ValidateStruct(payload); err != nil {
		return err
	}

	line, err := h.service.UpdateQuantity(c.UserContext(), actor.UserID, productID, *payload.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"item": line})
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	actor, err := auth.ActorFromCtx(c)
	if err != nil {
		return err
	}
	productID, err := ids.ParseProductID(c.Params("productId"))
	if err != nil {
		return apperr.Validation("%s", err.Error())
	}

	if err := h.service.RemoveItem(c.UserContext(), actor.UserID, productID); err != nil {
		return err
	}
	return h.respondCart(c, actor.UserID)
}

func (h *Handler) clearCart(c *fiber.Ctx) error {
	actor, err := auth.ActorFromCtx(c)
	if err != nil {
		return err
	}
	if err := h.service.Clear(c.UserContext(), actor.UserID); err != nil {
		return err
	}
	return h.respondCart(c, actor.UserID)
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	actor, err := auth.ActorFromCtx(c)
	if err != nil {
		return err
	}
	return h.respondCart(c, actor.UserID)
}

func (h *Handler) respondCart(c *fiber.Ctx, user ids.UserID) error {
	cart, err := h.service.ListItems(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(cart)
}
