package cart

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/wichananm65/marketplace-backend/internal/apperr"
	"github.com/wichananm65/marketplace-backend/internal/ids"
	"github.com/wichananm65/marketplace-backend/internal/logger"
	"github.com/wichananm65/marketplace-backend/internal/product"
)

// Products is the catalog lookup the cart needs. Current must not serve
// cached data since it fixes the line's price snapshot.
type Products interface {
	Current(ctx context.Context, id ids.ProductID) (product.Product, error)
	Lookup(ctx context.Context, productIDs []ids.ProductID) (map[ids.ProductID]product.Product, error)
}

// Service orchestrates cart operations.
type Service struct {
	repo     Repository
	products Products
	log      *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, products Products, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		products: products,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AddItem puts quantity units of a product in the cart. A nil quantity means
// one unit. created is false when an existing line was incremented.
func (s *Service) AddItem(ctx context.Context, user ids.UserID, productID ids.ProductID, quantity *int) (Line, bool, error) {
	qty := 1
	if quantity != nil {
		qty = *quantity
	}
	if qty < 1 || qty > MaxQuantity {
		return Line{}, false, apperr.Validation("quantity must be between 1 and %d", MaxQuantity)
	}

	p, err := s.products.Current(ctx, productID)
	if err != nil {
		return Line{}, false, err
	}

	line, created, err := s.repo.Add(ctx, Line{
		UserID:              user,
		ProductID:           productID,
		Quantity:            qty,
		PriceAtTimeOfAdding: p.Price,
		AddedAt:             s.now(),
	})
	if errors.Is(err, ErrQuantityLimit) {
		return Line{}, false, apperr.Validation("quantity of product %d would exceed %d", productID, MaxQuantity).Wrap(err)
	}
	if err != nil {
		logger.Error(ctx, s.log, "add cart line failed", zap.Int64("user_id", int64(user)), zap.Error(err))
		return Line{}, false, apperr.Internal(err, "adding to cart")
	}
	line.Product = &p
	return line, created, nil
}

// UpdateQuantity replaces a line's quantity. Last write wins.
func (s *Service) UpdateQuantity(ctx context.Context, user ids.UserID, productID ids.ProductID, quantity int) (Line, error) {
	if quantity < 1 || quantity > MaxQuantity {
		return Line{}, apperr.Validation("quantity must be between 1 and %d", MaxQuantity)
	}

	line, err := s.repo.SetQuantity(ctx, user, productID, quantity)
	if errors.Is(err, ErrNotFound) {
		return Line{}, apperr.NotFound("product %d is not in the cart", productID).Wrap(err)
	}
	if err != nil {
		logger.Error(ctx, s.log, "update cart line failed", zap.Int64("user_id", int64(user)), zap.Error(err))
		return Line{}, apperr.Internal(err, "updating cart")
	}
	s.attach(ctx, []*Line{&line})
	return line, nil
}

// RemoveItem deletes a line. Removing an absent line is not an error.
func (s *Service) RemoveItem(ctx context.Context, user ids.UserID, productID ids.ProductID) error {
	if err := s.repo.Remove(ctx, user, productID); err != nil {
		return apperr.Internal(err, "removing from cart")
	}
	return nil
}

// Clear empties the cart. Clearing an empty cart is not an error.
func (s *Service) Clear(ctx context.Context, user ids.UserID) error {
	if err := s.repo.Clear(ctx, user); err != nil {
		return apperr.Internal(err, "clearing cart")
	}
	return nil
}

// ListItems returns the cart newest first with product data joined in and
// the total at snapshot prices.
func (s *Service) ListItems(ctx context.Context, user ids.UserID) (Cart, error) {
	lines, err := s.repo.List(ctx, user)
	if err != nil {
		return Cart{}, apperr.Internal(err, "loading cart")
	}
	ptrs := make([]*Line, len(lines))
	for i := range lines {
		ptrs[i] = &lines[i]
	}
	s.attach(ctx, ptrs)
	return newCart(lines), nil
}

// attach joins current product data into lines. A failed lookup leaves the
// lines without product data rather than failing the read.
func (s *Service) attach(ctx context.Context, lines []*Line) {
	if len(lines) == 0 {
		return
	}
	productIDs := make([]ids.ProductID, len(lines))
	for i, l := range lines {
		productIDs[i] = l.ProductID
	}
	found, err := s.products.Lookup(ctx, productIDs)
	if err != nil {
		logger.Warn(ctx, s.log, "product lookup for cart failed", zap.Error(err))
		return
	}
	for _, l := range lines {
		if p, ok := found[l.ProductID]; ok {
			l.Product = &p
		}
	}
}
