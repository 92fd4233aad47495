package cart

import (
	"time"

	"github.com/wichananm65/marketplace-backend/internal/ids"
	"github.com/wichananm65/marketplace-backend/internal/money"
	"github.com/wichananm65/marketplace-backend/internal/product"
)

// Line is one product in a user's cart. PriceAtTimeOfAdding is captured when
// the line is created and never recomputed.
type Line struct {
	UserID              ids.UserID       `json:"-"`
	ProductID           ids.ProductID    `json:"productId"`
	Quantity            int              `json:"quantity"`
	PriceAtTimeOfAdding money.Cents      `json:"priceAtTimeOfAdding"`
	AddedAt             time.Time        `json:"addedAt"`
	Product             *product.Product `json:"product,omitempty"`
}

// Total is quantity times the snapshot price.
func (l Line) Total() money.Cents {
	return l.PriceAtTimeOfAdding.Mul(l.Quantity)
}

// Cart is the listing returned to the buyer.
type Cart struct {
	Items []Line      `json:"items"`
	Total money.Cents `json:"total"`
	Count int         `json:"count"`
}

func newCart(lines []Line) Cart {
	c := Cart{Items: lines}
	if c.Items == nil {
		c.Items = []Line{}
	}
	for _, l := range lines {
		c.Total += l.Total()
		c.Count += l.Quantity
	}
	return c
}

// ProductIDs lists the products referenced by lines, in order.
func ProductIDs(lines []Line) []ids.ProductID {
	out := make([]ids.ProductID, len(lines))
	for i, l := range lines {
		out[i] = l.ProductID
	}
	return out
}
