package order

import (
	"time"

	"github.com/wichananm65/marketplace-backend/internal/ids"
	"github.com/wichananm65/marketplace-backend/internal/money"
)

type PaymentMethod string

const (
	PaymentCard           PaymentMethod = "card"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentBankTransfer   PaymentMethod = "bank_transfer"
	PaymentWallet         PaymentMethod = "wallet"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCard, PaymentCashOnDelivery, PaymentBankTransfer, PaymentWallet:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentUnpaid, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

type Address struct {
	Name       string `json:"name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

// Item is an immutable snapshot of one purchased product. VendorID is the
// product's owner at the time the order was placed.
type Item struct {
	ProductID   ids.ProductID `json:"productId"`
	VendorID    ids.VendorID  `json:"vendorId"`
	ProductName string        `json:"productName"`
	Quantity    int           `json:"quantity"`
	UnitPrice   money.Cents   `json:"unitPrice"`
	LineTotal   money.Cents   `json:"lineTotal"`
}

func NewItem(productID ids.ProductID, vendor ids.VendorID, name string, qty int, unitPrice money.Cents) Item {
	return Item{
		ProductID:   productID,
		VendorID:    vendor,
		ProductName: name,
		Quantity:    qty,
		UnitPrice:   unitPrice,
		LineTotal:   unitPrice.Mul(qty),
	}
}

// Order represents a purchase made by a user. Total equals
// Subtotal+ShippingCost+Tax and is fixed when the order is created.
type Order struct {
	ID              ids.OrderID   `json:"id"`
	UserID          ids.UserID    `json:"userId"`
	Items           []Item        `json:"items"`
	ShippingAddress Address       `json:"shippingAddress"`
	Status          Status        `json:"status"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	Subtotal        money.Cents   `json:"subtotal"`
	ShippingCost    money.Cents   `json:"shippingCost"`
	Tax             money.Cents   `json:"tax"`
	Total           money.Cents   `json:"total"`
	Notes           string        `json:"notes,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// Subtotal sums the line totals of items.
func Subtotal(items []Item) money.Cents {
	var total money.Cents
	for _, it := range items {
		total += it.LineTotal
	}
	return total
}

// ItemsForVendor returns the items sold by vendor, in order.
func (o Order) ItemsForVendor(vendor ids.VendorID) []Item {
	out := make([]Item, 0)
	for _, it := range o.Items {
		if it.VendorID == vendor {
			out = append(out, it)
		}
	}
	return out
}

func (o Order) HasVendor(vendor ids.VendorID) bool {
	for _, it := range o.Items {
		if it.VendorID == vendor {
			return true
		}
	}
	return false
}

// StatusChange is the response body for a status update.
type StatusChange struct {
	ID        ids.OrderID `json:"id"`
	Status    Status      `json:"status"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func (o Order) StatusChange() StatusChange {
	return StatusChange{ID: o.ID, Status: o.Status, UpdatedAt: o.UpdatedAt}
}
