package product

import (
	"context"
	"errors"
	"time"

	"github.com/wichananm65/marketplace-backend/internal/apperr"
	"github.com/wichananm65/marketplace-backend/internal/ids"
)

// Service reads products. Reads that decide what a buyer pays or which
// vendor gets an order go through fresh, which bypasses any cache.
type Service struct {
	repo  Repository
	fresh Repository
}

func NewService(repo Repository) *Service {
	s := &Service{repo: repo, fresh: repo}
	if c, ok := repo.(*CachedRepository); ok {
		s.fresh = c.Fresh()
	}
	return s
}

func (s *Service) GetByID(ctx context.Context, id ids.ProductID) (Product, error) {
	return s.get(ctx, s.repo, id)
}

// Current is GetByID without the cache.
func (s *Service) Current(ctx context.Context, id ids.ProductID) (Product, error) {
	return s.get(ctx, s.fresh, id)
}

func (s *Service) get(ctx context.Context, repo Repository, id ids.ProductID) (Product, error) {
	p, err := repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Product{}, apperr.NotFound("product %d not found", id).Wrap(err)
	}
	if err != nil {
		return Product{}, apperr.Internal(err, "loading product")
	}
	return p, nil
}

// Lookup returns the existing products among productIDs keyed by id.
func (s *Service) Lookup(ctx context.Context, productIDs []ids.ProductID) (map[ids.ProductID]Product, error) {
	return s.lookup(ctx, s.repo, productIDs)
}

// LookupCurrent is Lookup without the cache.
func (s *Service) LookupCurrent(ctx context.Context, productIDs []ids.ProductID) (map[ids.ProductID]Product, error) {
	return s.lookup(ctx, s.fresh, productIDs)
}

func (s *Service) lookup(ctx context.Context, repo Repository, productIDs []ids.ProductID) (map[ids.ProductID]Product, error) {
	list, err := repo.ListByIDs(ctx, productIDs)
	if err != nil {
		return nil, apperr.Internal(err, "loading products")
	}
	out := make(map[ids.ProductID]Product, len(list))
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

func (s *Service) ListByVendor(ctx context.Context, vendor ids.VendorID) ([]Product, error) {
	list, err := s.repo.ListByVendor(ctx, vendor)
	if err != nil {
		return nil, apperr.Internal(err, "loading vendor products")
	}
	return list, nil
}

// VendorCatalog is a vendor's products and the set of their ids.
type VendorCatalog struct {
	Products []Product
	IDs      ids.ProductSet
}

// CreatedSince counts catalog products created at or after t.
func (c VendorCatalog) CreatedSince(t time.Time) int {
	n := 0
	for _, p := range c.Products {
		if !p.CreatedAt.Before(t) {
			n++
		}
	}
	return n
}

// Catalog resolves the vendor's current product set.
func (s *Service) Catalog(ctx context.Context, vendor ids.VendorID) (VendorCatalog, error) {
	list, err := s.ListByVendor(ctx, vendor)
	if err != nil {
		return VendorCatalog{}, err
	}
	set := make(ids.ProductSet, len(list))
	for _, p := range list {
		set[p.ID] = struct{}{}
	}
	return VendorCatalog{Products: list, IDs: set}, nil
}
