package vendororder

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wichananm65/marketplace-backend/internal/apperr"
	"github.com/wichananm65/marketplace-backend/internal/ids"
	"github.com/wichananm65/marketplace-backend/internal/money"
	"github.com/wichananm65/marketplace-backend/internal/order"
)

const (
	vendorV ids.VendorID = 10
	vendorW ids.VendorID = 20
	vendorX ids.VendorID = 30
)

// mixedOrder holds V's P x2 at 500 and W's Q x1 at 300.
func mixedOrder(status order.Status, created time.Time) order.Order {
	items := []order.Item{
		order.NewItem(100, vendorV, "P", 2, 500),
		order.NewItem(200, vendorW, "Q", 1, 300),
	}
	sub := order.Subtotal(items)
	return order.Order{
		UserID: 1, Items: items, Status: status,
		PaymentMethod: order.PaymentCard, PaymentStatus: order.PaymentPaid,
		Subtotal: sub, Total: sub, CreatedAt: created, UpdatedAt: created,
	}
}

func wOnlyOrder(created time.Time) order.Order {
	items := []order.Item{order.NewItem(200, vendorW, "Q", 3, 300)}
	sub := order.Subtotal(items)
	return order.Order{
		UserID: 2, Items: items, Status: order.StatusPending,
		PaymentMethod: order.PaymentCashOnDelivery, PaymentStatus: order.PaymentUnpaid,
		Subtotal: sub, Total: sub, CreatedAt: created, UpdatedAt: created,
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	repo := order.NewInMemoryRepository([]order.Order{
		mixedOrder(order.StatusPending, base),                  // id 1
		wOnlyOrder(base.Add(time.Hour)),                        // id 2
		mixedOrder(order.StatusShipped, base.Add(2*time.Hour)), // id 3
	})
	return NewService(repo, order.NewService(repo, zap.NewNop()))
}

func TestGetForVendor_ProjectsOwnItemsOnly(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.GetForVendor(ctx, vendorV, 1)
	require.NoError(t, err)
	require.Len(t, p.Items, 1)
	assert.Equal(t, "P", p.Items[0].ProductName)
	assert.Equal(t, money.Cents(1000), p.VendorSubtotal)
	// order-level amounts pass through untouched
	assert.Equal(t, money.Cents(1300), p.Subtotal)
	assert.Equal(t, money.Cents(0), p.ShippingCost)
	assert.Equal(t, money.Cents(0), p.Tax)
	assert.Equal(t, money.Cents(1300), p.Total)

	p, err = svc.GetForVendor(ctx, vendorW, 1)
	require.NoError(t, err)
	require.Len(t, p.Items, 1)
	assert.Equal(t, money.Cents(300), p.VendorSubtotal)
}

func TestGetForVendor_Errors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetForVendor(ctx, vendorX, 1)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = svc.GetForVendor(ctx, vendorV, 2)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = svc.GetForVendor(ctx, vendorV, 404)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListForVendor(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	page, err := svc.ListForVendor(ctx, vendorV, Filter{})
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	assert.Equal(t, ids.OrderID(3), page.Orders[0].ID, "newest first")
	assert.Equal(t, ids.OrderID(1), page.Orders[1].ID)
	assert.Equal(t, Pagination{Page: 1, Limit: 10, Total: 2, TotalPages: 1}, page.Pagination)
	for _, o := range page.Orders {
		for _, it := range o.Items {
			assert.Equal(t, vendorV, it.VendorID)
		}
	}

	page, err = svc.ListForVendor(ctx, vendorW, Filter{Limit: 2, Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, Pagination{Page: 2, Limit: 2, Total: 3, TotalPages: 2}, page.Pagination)

	page, err = svc.ListForVendor(ctx, vendorV, Filter{Status: "shipped"})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, order.StatusShipped, page.Orders[0].Status)

	page, err = svc.ListForVendor(ctx, vendorX, Filter{})
	require.NoError(t, err)
	assert.Empty(t, page.Orders)
	assert.Equal(t, 0, page.Pagination.TotalPages)
}

func TestListForVendor_InvalidFilter(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for name, f := range map[string]Filter{
		"status":    {Status: "lost"},
		"page":      {Page: -1},
		"limit":     {Limit: 101},
		"neg limit": {Limit: -5},
		"huge page": {Page: math.MaxInt, Limit: 10},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ListForVendor(ctx, vendorV, f)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}
