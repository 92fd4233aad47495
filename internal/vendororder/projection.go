package vendororder

import (
	"time"

	"github.com/wichananm65/marketplace-backend/internal/ids"
	"github.com/wichananm65/marketplace-backend/internal/money"
	"github.com/wichananm65/marketplace-backend/internal/order"
)

// Projection is an order as one vendor sees it: every order-level field,
// but only that vendor's items. VendorSubtotal sums those items.
type Projection struct {
	ID              ids.OrderID         `json:"id"`
	UserID          ids.UserID          `json:"userId"`
	ShippingAddress order.Address       `json:"shippingAddress"`
	Status          order.Status        `json:"status"`
	PaymentMethod   order.PaymentMethod `json:"paymentMethod"`
	PaymentStatus   order.PaymentStatus `json:"paymentStatus"`
	Items           []order.Item        `json:"items"`
	Subtotal        money.Cents         `json:"subtotal"`
	ShippingCost    money.Cents         `json:"shippingCost"`
	Tax             money.Cents         `json:"tax"`
	Total           money.Cents         `json:"total"`
	VendorSubtotal  money.Cents         `json:"vendorSubtotal"`
	Notes           string              `json:"notes,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

func project(o order.Order, vendor ids.VendorID) Projection {
	items := o.ItemsForVendor(vendor)
	return Projection{
		ID:              o.ID,
		UserID:          o.UserID,
		ShippingAddress: o.ShippingAddress,
		Status:          o.Status,
		PaymentMethod:   o.PaymentMethod,
		PaymentStatus:   o.PaymentStatus,
		Items:           items,
		Subtotal:        o.Subtotal,
		ShippingCost:    o.ShippingCost,
		Tax:             o.Tax,
		Total:           o.Total,
		VendorSubtotal:  order.Subtotal(items),
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
