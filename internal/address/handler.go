package address

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/marketplace-backend/internal/apperr"
	"github.com/wichananm65/marketplace-backend/internal/auth"
	"github.com/wichananm65/marketplace-backend/internal/order"
)

// Handler delegates address operations to the address service.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Get("/addresses", h.getAddresses)
	r.Post("/addresses", h.addAddress)
	r.Patch("/addresses/:id", h.updateAddress)
	r.Delete("/addresses/:id", h.deleteAddress)
}

type addressRequest struct {
	Label      string `json:"label" validate:"max=64"`
	Name       string `json:"name" validate:"required"`
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone"`
	Email      string `json:"email" validate:"omitempty,email"`
}

func (r addressRequest) shipping() order.Address {
	return order.Address{
		Name:       r.Name,
		Street:     r.Street,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Phone:      r.Phone,
		Email:      r.Email,
	}
}

func parseAddressID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid address id %q", c.Params("id"))
	}
	return id, nil
}

func (h *Handler) parseRequest(c *fiber.Ctx) (*addressRequest, error) {
	payload := new(addressRequest)
	if err := c.BodyParser(payload); err != nil {
		return nil, apperr.Validation("invalid request body").Wrap(err)
	}
	if err := apperr.ValidateStruct(payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (h *Handler) getAddresses(c *fiber.Ctx) error {
	actor, err := auth.ActorFromCtx(c)
	if err != nil {
		return err
	}
	list, err := h.service.List(c.UserContext(), actor.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"addresses": list})
}

func (h *Handler) addAddress(c *fiber.Ctx) error {
	actor, err := auth.ActorFromCtx(c)
	if err != nil {
		return err
	}
	payload, err := h.parseRequest(c)
	if err != nil {
		return err
	}
	a, err := h.service.Add(c.UserContext(), actor.UserID, payload.Label, payload.shipping())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"address": a})
}

func (h *Handler) updateAddress(c *fiber.Ctx) error {
	actor, err := auth.ActorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := parseAddressID(c)
	if err != nil {
		return err
	}
	payload, err := h.parseRequest(c)
	if err != nil {
		return err
	}
	a, err := h.service.Update(c.UserContext(), actor.UserID, id, payload.Label, payload.shipping())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"address": a})
}

func (h *Handler) deleteAddress(c *fiber.Ctx) error {
	actor, err := auth.ActorFromCtx(c)
	if err != nil {
		return err
	}
	id, err := parseAddressID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), actor.UserID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
