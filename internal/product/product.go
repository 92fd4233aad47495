package product

import (
	"time"

	"github.com/wichananm65/marketplace-backend/internal/ids"
	"github.com/wichananm65/marketplace-backend/internal/money"
)

// Product is the read-side view of a catalog entry: enough to price a cart
// line and attribute a sale to its vendor. Catalog management happens
// elsewhere.
type Product struct {
	ID          ids.ProductID `json:"id"`
	VendorID    ids.VendorID  `json:"vendorId"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Category    string        `json:"category,omitempty"`
	Price       money.Cents   `json:"price"`
	Stock       int           `json:"stock"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}
