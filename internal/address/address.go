package address

import (
	"time"

	"github.com/wichananm65/marketplace-backend/internal/ids"
	"github.com/wichananm65/marketplace-backend/internal/order"
)

// Address is a shipping address saved in a buyer's address book. Label is
// the buyer's own name for it, e.g. "Home".
type Address struct {
	ID     int64      `json:"id"`
	UserID ids.UserID `json:"-"`
	Label  string     `json:"label"`
	order.Address
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
