package address

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/wichananm65/marketplace-backend/internal/ids"
)

var ErrNotFound = errors.New("address not found")

// Repository stores address books. Every lookup is scoped to the owner, so
// another user's address is reported as missing.
type Repository interface {
	List(ctx context.Context, user ids.UserID) ([]Address, error)
	Get(ctx context.Context, user ids.UserID, id int64) (Address, error)
	Create(ctx context.Context, a Address) (Address, error)
	Update(ctx context.Context, a Address) (Address, error)
	Delete(ctx context.Context, user ids.UserID, id int64) error
}

// InMemoryRepository for tests
type InMemoryRepository struct {
	mu     sync.RWMutex
	data   map[int64]Address
	nextID int64
}

func NewInMemoryRepository(seed []Address) *InMemoryRepository {
	r := &InMemoryRepository{data: make(map[int64]Address), nextID: 1}
	for _, a := range seed {
		if a.ID == 0 {
			a.ID = r.nextID
		}
		if a.ID >= r.nextID {
			r.nextID = a.ID + 1
		}
		r.data[a.ID] = a
	}
	return r
}

func (r *InMemoryRepository) List(_ context.Context, user ids.UserID) ([]Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Address, 0)
	for _, a := range r.data {
		if a.UserID == user {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) Get(_ context.Context, user ids.UserID, id int64) (Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.data[id]
	if !ok || a.UserID != user {
		return Address{}, ErrNotFound
	}
	return a, nil
}

func (r *InMemoryRepository) Create(_ context.Context, a Address) (Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = r.nextID
	r.nextID++
	r.data[a.ID] = a
	return a, nil
}

func (r *InMemoryRepository) Update(_ context.Context, a Address) (Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.data[a.ID]
	if !ok || cur.UserID != a.UserID {
		return Address{}, ErrNotFound
	}
	a.CreatedAt = cur.CreatedAt
	r.data[a.ID] = a
	return a, nil
}

func (r *InMemoryRepository) Delete(_ context.Context, user ids.UserID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.data[id]
	if !ok || a.UserID != user {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}
