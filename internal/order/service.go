package order

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/wichananm65/marketplace-backend/internal/apperr"
	"github.com/wichananm65/marketplace-backend/internal/auth"
	"github.com/wichananm65/marketplace-backend/internal/ids"
	"github.com/wichananm65/marketplace-backend/internal/logger"
)

// Service provides business logic for orders.
type Service struct {
	repo Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewService(r Repository, log *zap.Logger) *Service {
	return &Service{
		repo: r,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Get loads an order regardless of who asks.
func (s *Service) Get(ctx context.Context, id ids.OrderID) (Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Order{}, apperr.NotFound("order %d not found", id).Wrap(err)
	}
	if err != nil {
		return Order{}, apperr.Internal(err, "loading order")
	}
	return o, nil
}

// UpdateStatus moves an order to newStatus on behalf of actor. Admins may
// update any order; vendors only orders holding at least one of their items.
// Only the status and updatedAt change.
func (s *Service) UpdateStatus(ctx context.Context, id ids.OrderID, newStatus string, actor auth.Actor) (Order, error) {
	to, ok := ParseStatus(newStatus)
	if !ok {
		return Order{}, apperr.Validation("invalid status %q", newStatus)
	}

	o, err := s.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}

	switch {
	case actor.IsAdmin():
	case actor.IsVendor() && o.HasVendor(actor.VendorID()):
	default:
		return Order{}, apperr.Forbidden("not allowed to update order %d", id)
	}

	if !CanTransition(o.Status, to) {
		return Order{}, apperr.InvalidTransition("cannot change status from %s to %s", o.Status, to)
	}

	at := s.now()
	err = s.repo.UpdateStatus(ctx, id, o.Status, to, at)
	switch {
	case errors.Is(err, ErrStatusConflict):
		return Order{}, apperr.Conflict("order %d was updated concurrently, reload and retry", id).Wrap(err)
	case errors.Is(err, ErrNotFound):
		return Order{}, apperr.NotFound("order %d not found", id).Wrap(err)
	case err != nil:
		logger.Error(ctx, s.log, "order status update failed", zap.Int64("order_id", int64(id)), zap.Error(err))
		return Order{}, apperr.Internal(err, "updating order status")
	}

	logger.Info(ctx, s.log, "order status changed",
		zap.Int64("order_id", int64(id)),
		zap.String("from", string(o.Status)),
		zap.String("to", string(to)),
		zap.Int64("actor_id", int64(actor.UserID)),
	)

	o.Status = to
	o.UpdatedAt = at
	return o, nil
}

// ListForUser returns the buyer's orders, newest first.
func (s *Service) ListForUser(ctx context.Context, user ids.UserID) ([]Order, error) {
	list, err := s.repo.ListByUser(ctx, user)
	if err != nil {
		return nil, apperr.Internal(err, "loading orders")
	}
	return list, nil
}

// GetForUser returns one of the buyer's own orders. Another user's order is
// reported as not found.
func (s *Service) GetForUser(ctx context.Context, user ids.UserID, id ids.OrderID) (Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if o.UserID != user {
		return Order{}, apperr.NotFound("order %d not found", id)
	}
	return o, nil
}
