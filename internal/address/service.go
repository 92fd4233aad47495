package address

import (
	"context"
	"errors"
	"time"

	"github.com/wichananm65/marketplace-backend/internal/apperr"
	"github.com/wichananm65/marketplace-backend/internal/ids"
	"github.com/wichananm65/marketplace-backend/internal/order"
)

// Service manages a buyer's saved shipping addresses.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) List(ctx context.Context, user ids.UserID) ([]Address, error) {
	list, err := s.repo.List(ctx, user)
	if err != nil {
		return nil, apperr.Internal(err, "loading addresses")
	}
	return list, nil
}

func (s *Service) Add(ctx context.Context, user ids.UserID, label string, shipping order.Address) (Address, error) {
	now := s.now()
	a, err := s.repo.Create(ctx, Address{
		UserID:    user,
		Label:     label,
		Address:   shipping,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Address{}, apperr.Internal(err, "saving address")
	}
	return a, nil
}

func (s *Service) Update(ctx context.Context, user ids.UserID, id int64, label string, shipping order.Address) (Address, error) {
	a, err := s.repo.Update(ctx, Address{
		ID:        id,
		UserID:    user,
		Label:     label,
		Address:   shipping,
		UpdatedAt: s.now(),
	})
	if err != nil {
		return Address{}, s.classify(err, id, "updating address")
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, user ids.UserID, id int64) error {
	if err := s.repo.Delete(ctx, user, id); err != nil {
		return s.classify(err, id, "deleting address")
	}
	return nil
}

// Resolve returns the shipping details of one of the user's saved addresses.
func (s *Service) Resolve(ctx context.Context, user ids.UserID, id int64) (order.Address, error) {
	a, err := s.repo.Get(ctx, user, id)
	if err != nil {
		return order.Address{}, s.classify(err, id, "loading address")
	}
	return a.Address, nil
}

func (s *Service) classify(err error, id int64, op string) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("address %d not found", id).Wrap(err)
	}
	return apperr.Internal(err, "%s", op)
}
