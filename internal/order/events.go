package order

import (
	"context"
	"database/sql"
	"time"

	"github.com/wichananm65/marketplace-backend/internal/ids"
	"github.com/wichananm65/marketplace-backend/internal/money"
	"github.com/wichananm65/marketplace-backend/internal/outbox"
)

const (
	aggregateType = "order"

	EventPlaced        = "order.placed"
	EventStatusChanged = "order.status_changed"
)

// EventSink persists events in the caller's transaction.
type EventSink interface {
	Save(ctx context.Context, tx *sql.Tx, e outbox.Event) error
}

type placedPayload struct {
	OrderID   ids.OrderID    `json:"orderId"`
	UserID    ids.UserID     `json:"userId"`
	VendorIDs []ids.VendorID `json:"vendorIds"`
	Items     []Item         `json:"items"`
	Total     money.Cents    `json:"total"`
	Status    Status         `json:"status"`
}

type statusChangedPayload struct {
	OrderID ids.OrderID `json:"orderId"`
	From    Status      `json:"from"`
	To      Status      `json:"to"`
	At      time.Time   `json:"at"`
}

func placedEvent(topic string, o Order) (outbox.Event, error) {
	seen := make(map[ids.VendorID]bool)
	vendors := make([]ids.VendorID, 0)
	for _, it := range o.Items {
		if !seen[it.VendorID] {
			seen[it.VendorID] = true
			vendors = append(vendors, it.VendorID)
		}
	}
	return outbox.NewEvent(topic, aggregateType, o.ID.String(), EventPlaced, placedPayload{
		OrderID:   o.ID,
		UserID:    o.UserID,
		VendorIDs: vendors,
		Items:     o.Items,
		Total:     o.Total,
		Status:    o.Status,
	}, o.CreatedAt)
}

func statusChangedEvent(topic string, id ids.OrderID, from, to Status, at time.Time) (outbox.Event, error) {
	return outbox.NewEvent(topic, aggregateType, id.String(), EventStatusChanged, statusChangedPayload{
		OrderID: id,
		From:    from,
		To:      to,
		At:      at,
	}, at)
}
