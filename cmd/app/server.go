package main

import (
	"context"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/wichananm65/marketplace-backend/internal/address"
	"github.com/wichananm65/marketplace-backend/internal/analytics"
	"github.com/wichananm65/marketplace-backend/internal/apperr"
	"github.com/wichananm65/marketplace-backend/internal/auth"
	"github.com/wichananm65/marketplace-backend/internal/cart"
	"github.com/wichananm65/marketplace-backend/internal/checkout"
	"github.com/wichananm65/marketplace-backend/internal/config"
	"github.com/wichananm65/marketplace-backend/internal/logger"
	"github.com/wichananm65/marketplace-backend/internal/order"
	"github.com/wichananm65/marketplace-backend/internal/product"
	"github.com/wichananm65/marketplace-backend/internal/vendororder"
)

func newServer(cfg *config.Config, log *zap.Logger, w *wiring) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          apperr.Handler(log),
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	setupCORS(app, cfg.HTTP.AllowOrigins)
	app.Use(otelfiber.Middleware())
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.HTTP.RateLimit,
		Expiration: cfg.HTTP.RateWindow,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Try again later.",
			})
		},
	}))
	app.Use(logger.Middleware(log))
	app.Use(requestTimeout(cfg.HTTP.RequestTimeout))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if w.db != nil {
			if err := w.db.PingContext(c.UserContext()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	productService := product.NewService(w.products)
	orderService := order.NewService(w.orders, log)
	productHandler := product.NewHandler(productService)
	orderHandler := order.NewHandler(orderService)
	addressService := address.NewService(w.addresses)
	addressHandler := address.NewHandler(addressService)
	cartHandler := cart.NewHandler(cart.NewService(w.carts, productService, log))
	checkoutHandler := checkout.NewHandler(checkout.NewService(
		w.store,
		productService,
		checkout.NewPricing(cfg.Pricing.FlatShippingCents, cfg.Pricing.TaxRateBPS),
		log,
	).WithAddressBook(addressService))
	vendorOrderHandler := vendororder.NewHandler(vendororder.NewService(w.orders, orderService), orderHandler)
	analyticsHandler := analytics.NewHandler(analytics.NewEngine(productService, w.orders, cfg.Analytics.Location(), log))

	api := app.Group("/api/v1")
	productHandler.RegisterPublicRoutes(api)

	api.Use(auth.Middleware(cfg.Auth.JWTSecret))
	productHandler.RegisterProtectedRoutes(api)
	addressHandler.RegisterProtectedRoutes(api)
	cartHandler.RegisterProtectedRoutes(api)
	checkoutHandler.RegisterProtectedRoutes(api)
	orderHandler.RegisterProtectedRoutes(api)
	vendorOrderHandler.RegisterProtectedRoutes(api)
	analyticsHandler.RegisterProtectedRoutes(api)

	return app
}

func setupCORS(app *fiber.App, origins string) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}

// requestTimeout bounds the context handed to services.
func requestTimeout(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if d <= 0 {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}
