package checkout

import "github.com/wichananm65/marketplace-backend/internal/money"

// PricingPolicy decides the shipping cost and tax charged on top of an
// order's subtotal.
type PricingPolicy interface {
	Quote(subtotal money.Cents) (shipping, tax money.Cents)
}

// ZeroPricing charges neither shipping nor tax.
type ZeroPricing struct{}

func (ZeroPricing) Quote(money.Cents) (money.Cents, money.Cents) { return 0, 0 }

// FlatPricing charges a fixed shipping fee per order and a tax rate, in basis
// points, on the subtotal. Tax is rounded once, half away from zero.
type FlatPricing struct {
	Shipping money.Cents
	TaxBPS   int64
}

func (p FlatPricing) Quote(subtotal money.Cents) (money.Cents, money.Cents) {
	return p.Shipping, money.BasisPoints(subtotal, p.TaxBPS)
}

// NewPricing picks ZeroPricing when nothing is configured.
func NewPricing(shippingCents, taxBPS int64) PricingPolicy {
	if shippingCents == 0 && taxBPS == 0 {
		return ZeroPricing{}
	}
	return FlatPricing{Shipping: money.Cents(shippingCents), TaxBPS: taxBPS}
}
