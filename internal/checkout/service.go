package checkout

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/wichananm65/marketplace-backend/internal/apperr"
	"github.com/wichananm65/marketplace-backend/internal/auth"
	"github.com/wichananm65/marketplace-backend/internal/cart"
	"github.com/wichananm65/marketplace-backend/internal/ids"
	"github.com/wichananm65/marketplace-backend/internal/logger"
	"github.com/wichananm65/marketplace-backend/internal/money"
	"github.com/wichananm65/marketplace-backend/internal/order"
	"github.com/wichananm65/marketplace-backend/internal/product"
)

// Products resolves the products referenced by cart lines, uncached.
type Products interface {
	LookupCurrent(ctx context.Context, productIDs []ids.ProductID) (map[ids.ProductID]product.Product, error)
}

// AddressBook resolves one of the buyer's saved shipping addresses.
type AddressBook interface {
	Resolve(ctx context.Context, user ids.UserID, id int64) (order.Address, error)
}

// Input is the optional checkout request body. AddressID, when set, takes
// precedence over ShippingAddress.
type Input struct {
	AddressID       *int64              `json:"addressId,omitempty" validate:"omitempty,gt=0"`
	ShippingAddress order.Address       `json:"shippingAddress"`
	PaymentMethod   order.PaymentMethod `json:"paymentMethod"`
	PaymentStatus   order.PaymentStatus `json:"paymentStatus"`
	Notes           string              `json:"notes" validate:"max=1000"`
}

type Service struct {
	store    Store
	products Products
	pricing  PricingPolicy
	book     AddressBook
	log      *zap.Logger
	now      func() time.Time
}

func NewService(store Store, products Products, pricing PricingPolicy, log *zap.Logger) *Service {
	if pricing == nil {
		pricing = ZeroPricing{}
	}
	return &Service{
		store:    store,
		products: products,
		pricing:  pricing,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithAddressBook lets checkout requests refer to a saved address by id.
func (s *Service) WithAddressBook(book AddressBook) *Service {
	s.book = book
	return s
}

// Checkout converts the actor's cart into a pending order. Items keep the
// price captured when each line was added. The cart lines that went into the
// order are removed in the same unit of work. Checkout is never retried.
func (s *Service) Checkout(ctx context.Context, actor auth.Actor, in Input) (order.Order, error) {
	if in.PaymentMethod == "" {
		in.PaymentMethod = order.PaymentCashOnDelivery
	}
	if in.PaymentStatus == "" {
		in.PaymentStatus = order.PaymentUnpaid
	}
	if !in.PaymentMethod.Valid() {
		return order.Order{}, apperr.Validation("invalid payment method %q", in.PaymentMethod)
	}
	if !in.PaymentStatus.Valid() {
		return order.Order{}, apperr.Validation("invalid payment status %q", in.PaymentStatus)
	}
	if in.AddressID != nil {
		if s.book == nil {
			return order.Order{}, apperr.Validation("saved addresses are not available")
		}
		shipping, err := s.book.Resolve(ctx, actor.UserID, *in.AddressID)
		if err != nil {
			return order.Order{}, err
		}
		in.ShippingAddress = shipping
	}

	placed, err := s.store.PlaceOrder(ctx, actor.UserID, func(lines []cart.Line) (order.Order, error) {
		return s.build(ctx, actor.UserID, in, lines)
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return order.Order{}, err
		}
		logger.Error(ctx, s.log, "checkout failed", zap.Int64("user_id", int64(actor.UserID)), zap.Error(err))
		return order.Order{}, apperr.Internal(err, "placing order")
	}

	logger.Info(ctx, s.log, "order placed",
		zap.Int64("order_id", int64(placed.ID)),
		zap.Int64("user_id", int64(placed.UserID)),
		zap.Int("items", len(placed.Items)),
		zap.Int64("total_cents", int64(placed.Total)),
	)
	return placed, nil
}

func (s *Service) build(ctx context.Context, user ids.UserID, in Input, lines []cart.Line) (order.Order, error) {
	if len(lines) == 0 {
		return order.Order{}, apperr.Validation("Cart is empty")
	}

	found, err := s.products.LookupCurrent(ctx, cart.ProductIDs(lines))
	if err != nil {
		return order.Order{}, err
	}

	items := make([]order.Item, 0, len(lines))
	for _, l := range lines {
		p, ok := found[l.ProductID]
		if !ok {
			return order.Order{}, apperr.Validation("product %d in the cart no longer exists", l.ProductID)
		}
		if _, err := l.PriceAtTimeOfAdding.MulChecked(l.Quantity); err != nil {
			return order.Order{}, apperr.Validation("line total for product %d is out of range", l.ProductID).Wrap(err)
		}
		items = append(items, order.NewItem(l.ProductID, p.VendorID, p.Name, l.Quantity, l.PriceAtTimeOfAdding))
	}

	lineTotals := make([]money.Cents, len(items))
	for i, it := range items {
		lineTotals[i] = it.LineTotal
	}
	subtotal, err := money.SumChecked(lineTotals...)
	if err != nil {
		return order.Order{}, apperr.Validation("order subtotal is out of range").Wrap(err)
	}
	shipping, tax := s.pricing.Quote(subtotal)
	total, err := money.SumChecked(subtotal, shipping, tax)
	if err != nil {
		return order.Order{}, apperr.Validation("order total is out of range").Wrap(err)
	}
	now := s.now()
	return order.Order{
		UserID:          user,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		Status:          order.StatusPending,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   in.PaymentStatus,
		Subtotal:        subtotal,
		ShippingCost:    shipping,
		Tax:             tax,
		Total:           total,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}
