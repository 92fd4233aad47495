package order

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/wichananm65/marketplace-backend/internal/ids"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrStatusConflict means the order's status changed between read and
	// write.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// VendorQuery filters and pages a vendor's orders.
type VendorQuery struct {
	Status *Status
	Limit  int
	Offset int
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create stores a new order with its items and assigns its id.
	Create(ctx context.Context, o Order) (Order, error)
	GetByID(ctx context.Context, id ids.OrderID) (Order, error)
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, user ids.UserID) ([]Order, error)
	// ListByVendor returns a page of orders with at least one item of the
	// vendor, newest first, plus the total number of matches.
	ListByVendor(ctx context.Context, vendor ids.VendorID, q VendorQuery) ([]Order, int, error)
	// ListContainingProducts returns orders created at or after since that
	// contain any of the products.
	ListContainingProducts(ctx context.Context, productIDs []ids.ProductID, since time.Time) ([]Order, error)
	// UpdateStatus moves the order from one status to another only if it is
	// still in from.
	UpdateStatus(ctx context.Context, id ids.OrderID, from, to Status, at time.Time) error
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu     sync.RWMutex
	orders map[ids.OrderID]Order
	nextID ids.OrderID
}

func NewInMemoryRepository(seed []Order) *InMemoryRepository {
	r := &InMemoryRepository{orders: make(map[ids.OrderID]Order), nextID: 1}
	for _, o := range seed {
		if o.ID == 0 {
			o.ID = r.nextID
		}
		if o.ID >= r.nextID {
			r.nextID = o.ID + 1
		}
		r.orders[o.ID] = clone(o)
	}
	return r
}

func clone(o Order) Order {
	o.Items = append([]Item(nil), o.Items...)
	return o
}

func (r *InMemoryRepository) Create(_ context.Context, o Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.ID = r.nextID
	r.nextID++
	r.orders[o.ID] = clone(o)
	return o, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id ids.OrderID) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return clone(o), nil
}

// newestFirst orders by creation time then id, both descending.
func newestFirst(list []Order) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
}

func (r *InMemoryRepository) filter(keep func(Order) bool) []Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Order, 0)
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, clone(o))
		}
	}
	return out
}

func (r *InMemoryRepository) ListByUser(_ context.Context, user ids.UserID) ([]Order, error) {
	out := r.filter(func(o Order) bool { return o.UserID == user })
	newestFirst(out)
	return out, nil
}

func (r *InMemoryRepository) ListByVendor(_ context.Context, vendor ids.VendorID, q VendorQuery) ([]Order, int, error) {
	matched := r.filter(func(o Order) bool {
		if q.Status != nil && o.Status != *q.Status {
			return false
		}
		return o.HasVendor(vendor)
	})
	newestFirst(matched)

	total := len(matched)
	if q.Offset >= total {
		return []Order{}, total, nil
	}
	end := total
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	return matched[q.Offset:end], total, nil
}

func (r *InMemoryRepository) ListContainingProducts(_ context.Context, productIDs []ids.ProductID, since time.Time) ([]Order, error) {
	set := ids.NewProductSet(productIDs...)
	out := r.filter(func(o Order) bool {
		if o.CreatedAt.Before(since) {
			return false
		}
		for _, it := range o.Items {
			if set.Has(it.ProductID) {
				return true
			}
		}
		return false
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) UpdateStatus(_ context.Context, id ids.OrderID, from, to Status, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}
	if o.Status != from {
		return ErrStatusConflict
	}
	o.Status = to
	o.UpdatedAt = at
	r.orders[id] = o
	return nil
}
