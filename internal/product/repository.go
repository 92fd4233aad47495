package product

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/wichananm65/marketplace-backend/internal/ids"
)

var (
	ErrNotFound = errors.New("product not found")
)

type Repository interface {
	GetByID(ctx context.Context, id ids.ProductID) (Product, error)
	// ListByIDs returns the products that exist among ids. Missing ids are
	// skipped, not reported.
	ListByIDs(ctx context.Context, productIDs []ids.ProductID) ([]Product, error)
	ListByVendor(ctx context.Context, vendor ids.VendorID) ([]Product, error)
}

// InMemoryRepository is a simple in-memory implementation useful for tests and
// seeding local data.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage map[ids.ProductID]Product
	nextID  ids.ProductID
}

func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	r := &InMemoryRepository{
		storage: make(map[ids.ProductID]Product, len(seed)),
		nextID:  1,
	}
	for _, p := range seed {
		r.put(p)
	}
	return r
}

func (r *InMemoryRepository) put(p Product) Product {
	if p.ID == 0 {
		p.ID = r.nextID
	}
	if p.ID >= r.nextID {
		r.nextID = p.ID + 1
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	r.storage[p.ID] = p
	return p
}

func (r *InMemoryRepository) GetByID(_ context.Context, id ids.ProductID) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.storage[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (r *InMemoryRepository) ListByIDs(_ context.Context, productIDs []ids.ProductID) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Product, 0, len(productIDs))
	seen := ids.NewProductSet()
	for _, id := range productIDs {
		if seen.Has(id) {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := r.storage[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) ListByVendor(_ context.Context, vendor ids.VendorID) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Product, 0)
	for _, p := range r.storage {
		if p.VendorID == vendor {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Create stores a product, assigning an id when none is set.
func (r *InMemoryRepository) Create(_ context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.put(p), nil
}

// Delete removes a product. Used to simulate catalog removals.
func (r *InMemoryRepository) Delete(_ context.Context, id ids.ProductID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.storage[id]; !ok {
		return ErrNotFound
	}
	delete(r.storage, id)
	return nil
}

// SetVendor reassigns a product to another vendor.
func (r *InMemoryRepository) SetVendor(_ context.Context, id ids.ProductID, vendor ids.VendorID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.storage[id]
	if !ok {
		return ErrNotFound
	}
	p.VendorID = vendor
	p.UpdatedAt = time.Now().UTC()
	r.storage[id] = p
	return nil
}
