package order

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wichananm65/marketplace-backend/internal/apperr"
	"github.com/wichananm65/marketplace-backend/internal/auth"
	"github.com/wichananm65/marketplace-backend/internal/ids"
	"github.com/wichananm65/marketplace-backend/internal/money"
)

var (
	buyer   = auth.Actor{UserID: 1, Role: auth.RoleBuyer}
	vendorV = auth.Actor{UserID: 10, Role: auth.RoleVendor}
	vendorW = auth.Actor{UserID: 20, Role: auth.RoleVendor}
	vendorX = auth.Actor{UserID: 30, Role: auth.RoleVendor}
	admin   = auth.Actor{UserID: 99, Role: auth.RoleAdmin}
)

func sampleOrder(status Status) Order {
	items := []Item{
		NewItem(100, 10, "P", 2, 500),
		NewItem(200, 20, "Q", 1, 300),
	}
	sub := Subtotal(items)
	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	return Order{
		UserID: 1, Items: items, Status: status,
		PaymentMethod: PaymentCashOnDelivery, PaymentStatus: PaymentUnpaid,
		Subtotal: sub, Total: sub, CreatedAt: created, UpdatedAt: created,
	}
}

func newService(t *testing.T, seed ...Order) (*Service, *InMemoryRepository) {
	t.Helper()
	repo := NewInMemoryRepository(seed)
	return NewService(repo, zap.NewNop()), repo
}

func TestUpdateStatus_HappyPath(t *testing.T) {
	svc, repo := newService(t, sampleOrder(StatusPending))
	ctx := context.Background()
	before, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)

	path := []Status{StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered}
	for _, next := range path {
		o, err := svc.UpdateStatus(ctx, 1, string(next), vendorV)
		require.NoError(t, err, "to %s", next)
		assert.Equal(t, next, o.Status)
	}

	after, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, after.Status)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
	// nothing but status and updatedAt moves
	assert.Equal(t, before.Total, after.Total)
	assert.Equal(t, before.Items, after.Items)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
}

func TestUpdateStatus_TerminalStatesRejectEverything(t *testing.T) {
	for _, terminal := range []Status{StatusDelivered, StatusCancelled} {
		svc, _ := newService(t, sampleOrder(terminal))
		for _, to := range allStatuses {
			_, err := svc.UpdateStatus(context.Background(), 1, string(to), admin)
			assert.True(t, apperr.Is(err, apperr.KindInvalidTransition), "%s -> %s: %v", terminal, to, err)
		}
	}
}

func TestUpdateStatus_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		id     ids.OrderID
		status string
		actor  auth.Actor
		want   apperr.Kind
	}{
		{"unknown status", 1, "teleported", admin, apperr.KindValidation},
		{"missing order", 42, "confirmed", admin, apperr.KindNotFound},
		{"vendor without items", 1, "confirmed", vendorX, apperr.KindForbidden},
		{"buyer", 1, "cancelled", buyer, apperr.KindForbidden},
		{"skip ahead", 1, "shipped", vendorW, apperr.KindInvalidTransition},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newService(t, sampleOrder(StatusPending))
			_, err := svc.UpdateStatus(ctx, tc.id, tc.status, tc.actor)
			require.Error(t, err)
			assert.Equal(t, tc.want, apperr.KindOf(err))
		})
	}
}

// racingRepo lets another writer move the order between the read and the
// compare-and-set.
type racingRepo struct {
	*InMemoryRepository
	raced bool
}

func (r *racingRepo) UpdateStatus(ctx context.Context, id ids.OrderID, from, to Status, at time.Time) error {
	if !r.raced {
		r.raced = true
		if err := r.InMemoryRepository.UpdateStatus(ctx, id, from, StatusCancelled, at); err != nil {
			return err
		}
	}
	return r.InMemoryRepository.UpdateStatus(ctx, id, from, to, at)
}

func TestUpdateStatus_ConcurrentChangeIsConflict(t *testing.T) {
	repo := &racingRepo{InMemoryRepository: NewInMemoryRepository([]Order{sampleOrder(StatusPending)})}
	svc := NewService(repo, zap.NewNop())

	_, err := svc.UpdateStatus(context.Background(), 1, "confirmed", vendorV)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "got %v", err)

	o, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, o.Status)
}

func TestBuyerOrders(t *testing.T) {
	mine := sampleOrder(StatusPending)
	theirs := sampleOrder(StatusPending)
	theirs.UserID = 2
	newer := sampleOrder(StatusConfirmed)
	newer.CreatedAt = mine.CreatedAt.Add(time.Hour)
	svc, _ := newService(t, mine, theirs, newer)
	ctx := context.Background()

	list, err := svc.ListForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids.OrderID(3), list[0].ID)

	_, err = svc.GetForUser(ctx, 1, 2)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	o, err := svc.GetForUser(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(1300), o.Total)
}

func TestOrderVendorHelpers(t *testing.T) {
	o := sampleOrder(StatusPending)
	assert.True(t, o.HasVendor(10))
	assert.False(t, o.HasVendor(30))
	items := o.ItemsForVendor(20)
	require.Len(t, items, 1)
	assert.Equal(t, money.Cents(300), items[0].LineTotal)
	assert.Empty(t, o.ItemsForVendor(30))
}
