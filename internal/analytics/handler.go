package analytics

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/marketplace-backend/internal/auth"
)

type Handler struct {
	engine *Engine
}

func NewHandler(e *Engine) *Handler {
	return &Handler{engine: e}
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Get("/vendor/analytics", auth.RequireRole(auth.RoleVendor), h.getAnalytics)
	r.Get("/vendor/dashboard-stats", auth.RequireRole(auth.RoleVendor), h.getDashboardStats)
}

func (h *Handler) getAnalytics(c *fiber.Ctx) error {
	actor, err := auth.ActorFromCtx(c)
	if err != nil {
		return err
	}
	report, err := h.engine.ComputeAnalytics(c.UserContext(), actor.VendorID(), c.Query("period"))
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func (h *Handler) getDashboardStats(c *fiber.Ctx) error {
	actor, err := auth.ActorFromCtx(c)
	if err != nil {
		return err
	}
	stats, err := h.engine.Dashboard(c.UserContext(), actor.VendorID())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}
