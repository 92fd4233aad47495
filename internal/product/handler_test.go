package product

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wichananm65/marketplace-backend/internal/apperr"
	"github.com/wichananm65/marketplace-backend/internal/auth/authtest"
)

func makeApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperr.Handler(zap.NewNop())})
	api := app.Group("/api/v1")
	h.RegisterPublicRoutes(api)
	api.Use(authtest.HeaderToken)
	h.RegisterProtectedRoutes(api)
	return app
}

func seedRepo() *InMemoryRepository {
	return NewInMemoryRepository([]Product{
		{ID: 1, VendorID: 10, Name: "Cat Sweater", Price: 260},
		{ID: 2, VendorID: 10, Name: "Double Bowl", Price: 420},
		{ID: 3, VendorID: 20, Name: "Cheese House", Price: 399},
	})
}

func TestGetProduct(t *testing.T) {
	app := makeApp(NewHandler(NewService(seedRepo())))

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/products/1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	var p Product
	b, _ := io.ReadAll(res.Body)
	require.NoError(t, json.Unmarshal(b, &p))
	assert.Equal(t, "Cat Sweater", p.Name)

	res, err = app.Test(httptest.NewRequest("GET", "/api/v1/products/99", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
}

func TestListVendorProducts(t *testing.T) {
	app := makeApp(NewHandler(NewService(seedRepo())))

	req := httptest.NewRequest("GET", "/api/v1/vendor/products", nil)
	req.Header.Set("X-User-ID", "10")
	req.Header.Set("X-Role", "vendor")
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	var body struct {
		Products []Product `json:"products"`
	}
	b, _ := io.ReadAll(res.Body)
	require.NoError(t, json.Unmarshal(b, &body))
	require.Len(t, body.Products, 2)
	for _, p := range body.Products {
		assert.EqualValues(t, 10, p.VendorID)
	}

	req = httptest.NewRequest("GET", "/api/v1/vendor/products", nil)
	req.Header.Set("X-User-ID", "10")
	res, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)
}

func TestServiceCatalog(t *testing.T) {
	svc := NewService(seedRepo())
	cat, err := svc.Catalog(context.Background(), 10)
	require.NoError(t, err)
	assert.True(t, cat.IDs.Has(1))
	assert.True(t, cat.IDs.Has(2))
	assert.False(t, cat.IDs.Has(3))

	empty, err := svc.Catalog(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, empty.IDs)
}
