package cart

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wichananm65/marketplace-backend/internal/apperr"
	"github.com/wichananm65/marketplace-backend/internal/ids"
	"github.com/wichananm65/marketplace-backend/internal/money"
	"github.com/wichananm65/marketplace-backend/internal/product"
)

func intPtr(v int) *int { return &v }

func newTestService(t *testing.T) (*Service, *product.InMemoryRepository, *InMemoryRepository) {
	t.Helper()
	products := product.NewInMemoryRepository([]product.Product{
		{ID: 1, VendorID: 10, Name: "Cat Sweater", Price: 260},
		{ID: 2, VendorID: 20, Name: "Double Bowl", Price: 420},
	})
	repo := NewInMemoryRepository(nil)
	svc := NewService(repo, product.NewService(products), zap.NewNop())

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return svc, products, repo
}

func TestAddItem_DefaultsAndIncrements(t *testing.T) {
	svc, products, _ := newTestService(t)
	ctx := context.Background()

	line, created, err := svc.AddItem(ctx, 7, 1, nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, line.Quantity)
	assert.Equal(t, money.Cents(260), line.PriceAtTimeOfAdding)
	require.NotNil(t, line.Product)

	// a later price change must not touch the snapshot
	_, err = products.Create(ctx, product.Product{ID: 1, VendorID: 10, Name: "Cat Sweater", Price: 999})
	require.NoError(t, err)

	line, created, err = svc.AddItem(ctx, 7, 1, intPtr(2))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 3, line.Quantity)
	assert.Equal(t, money.Cents(260), line.PriceAtTimeOfAdding)
}

func TestAddItem_Errors(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.AddItem(ctx, 7, 1, intPtr(0))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, _, err = svc.AddItem(ctx, 7, 99, nil)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestAddItem_QuantityLimit(t *testing.T) {
	svc, _, repo := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.AddItem(ctx, 7, 1, intPtr(MaxQuantity+1))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	line, _, err := svc.AddItem(ctx, 7, 1, intPtr(MaxQuantity-1))
	require.NoError(t, err)
	assert.Equal(t, MaxQuantity-1, line.Quantity)

	// the increment would pass the limit, so the line keeps its quantity
	_, _, err = svc.AddItem(ctx, 7, 1, intPtr(2))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	lines, err := repo.List(ctx, 7)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, MaxQuantity-1, lines[0].Quantity)

	_, err = svc.UpdateQuantity(ctx, 7, 1, MaxQuantity+1)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdateQuantity(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpdateQuantity(ctx, 7, 1, 3)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, _, err = svc.AddItem(ctx, 7, 1, nil)
	require.NoError(t, err)

	_, err = svc.UpdateQuantity(ctx, 7, 1, 0)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	line, err := svc.UpdateQuantity(ctx, 7, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, line.Quantity)
	assert.Equal(t, money.Cents(260), line.PriceAtTimeOfAdding)
}

func TestListItems_NewestFirstWithTotal(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.AddItem(ctx, 7, 1, intPtr(2))
	require.NoError(t, err)
	_, _, err = svc.AddItem(ctx, 7, 2, nil)
	require.NoError(t, err)

	c, err := svc.ListItems(ctx, 7)
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	assert.Equal(t, ids.ProductID(2), c.Items[0].ProductID)
	assert.Equal(t, ids.ProductID(1), c.Items[1].ProductID)
	assert.Equal(t, money.Cents(2*260+420), c.Total)
	assert.Equal(t, 3, c.Count)
	for _, l := range c.Items {
		assert.NotNil(t, l.Product)
	}

	other, err := svc.ListItems(ctx, 8)
	require.NoError(t, err)
	assert.Empty(t, other.Items)
	assert.Zero(t, other.Total)
}

func TestRemoveAndClearAreIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.AddItem(ctx, 7, 1, nil)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveItem(ctx, 7, 1))
	require.NoError(t, svc.RemoveItem(ctx, 7, 1))
	require.NoError(t, svc.Clear(ctx, 7))
	require.NoError(t, svc.Clear(ctx, 7))

	c, err := svc.ListItems(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestDrain_LeavesCartOnFailure(t *testing.T) {
	svc, _, repo := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.AddItem(ctx, 7, 1, nil)
	require.NoError(t, err)

	err = repo.Drain(ctx, 7, func(lines []Line) error {
		require.Len(t, lines, 1)
		return apperr.Validation("nope")
	})
	require.Error(t, err)

	lines, err := repo.List(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	require.NoError(t, repo.Drain(ctx, 7, func(lines []Line) error { return nil }))
	lines, err = repo.List(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, lines)
}
