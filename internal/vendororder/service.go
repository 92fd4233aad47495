package vendororder

import (
	"context"
	"math"

	"github.com/wichananm65/marketplace-backend/internal/apperr"
	"github.com/wichananm65/marketplace-backend/internal/ids"
	"github.com/wichananm65/marketplace-backend/internal/order"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// Filter narrows and pages a vendor's order list. Zero Page and Limit take
// the defaults.
type Filter struct {
	Status string
	Page   int
	Limit  int
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type Page struct {
	Orders     []Projection `json:"orders"`
	Pagination Pagination   `json:"pagination"`
}

// Service exposes orders from the point of view of one vendor.
type Service struct {
	orders *order.Service
	repo   order.Repository
}

func NewService(repo order.Repository, orders *order.Service) *Service {
	return &Service{orders: orders, repo: repo}
}

// ListForVendor returns the orders that contain at least one of the vendor's
// items, newest first.
func (s *Service) ListForVendor(ctx context.Context, vendor ids.VendorID, f Filter) (Page, error) {
	if f.Page == 0 {
		f.Page = defaultPage
	}
	if f.Limit == 0 {
		f.Limit = defaultLimit
	}
	if f.Page < 1 {
		return Page{}, apperr.Validation("page must be at least 1")
	}
	if f.Limit < 1 || f.Limit > maxLimit {
		return Page{}, apperr.Validation("limit must be between 1 and %d", maxLimit)
	}
	if f.Page > math.MaxInt/f.Limit {
		return Page{}, apperr.Validation("page %d is out of range", f.Page)
	}

	q := order.VendorQuery{Limit: f.Limit, Offset: (f.Page - 1) * f.Limit}
	if f.Status != "" {
		st, ok := order.ParseStatus(f.Status)
		if !ok {
			return Page{}, apperr.Validation("invalid status %q", f.Status)
		}
		q.Status = &st
	}

	list, total, err := s.repo.ListByVendor(ctx, vendor, q)
	if err != nil {
		return Page{}, apperr.Internal(err, "loading vendor orders")
	}

	out := make([]Projection, len(list))
	for i, o := range list {
		out[i] = project(o, vendor)
	}
	return Page{
		Orders: out,
		Pagination: Pagination{
			Page:       f.Page,
			Limit:      f.Limit,
			Total:      total,
			TotalPages: (total + f.Limit - 1) / f.Limit,
		},
	}, nil
}

// GetForVendor returns one order projected for vendor. A vendor with no items
// in the order is refused.
func (s *Service) GetForVendor(ctx context.Context, vendor ids.VendorID, id ids.OrderID) (Projection, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return Projection{}, err
	}
	if !o.HasVendor(vendor) {
		return Projection{}, apperr.Forbidden("order %d has no items from this vendor", id)
	}
	return project(o, vendor), nil
}
