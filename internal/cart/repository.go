package cart

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/wichananm65/marketplace-backend/internal/ids"
)

// MaxQuantity is the largest quantity a cart line may hold. It matches the
// INT quantity column.
const MaxQuantity = math.MaxInt32

var (
	ErrNotFound      = errors.New("cart line not found")
	ErrQuantityLimit = errors.New("cart line quantity limit exceeded")
)

// Repository stores cart lines keyed by (user, product).
type Repository interface {
	// Add inserts line, or increments the quantity of the existing line for
	// the same product leaving its price snapshot untouched. created reports
	// whether a new line was inserted. An increment past MaxQuantity fails
	// with ErrQuantityLimit and leaves the line as it was.
	Add(ctx context.Context, line Line) (stored Line, created bool, err error)
	SetQuantity(ctx context.Context, user ids.UserID, productID ids.ProductID, qty int) (Line, error)
	Remove(ctx context.Context, user ids.UserID, productID ids.ProductID) error
	Clear(ctx context.Context, user ids.UserID) error
	// List returns the user's lines, most recently added first.
	List(ctx context.Context, user ids.UserID) ([]Line, error)
}

type entry struct {
	line Line
	seq  uint64
}

// InMemoryRepository is used for tests and local scenarios. Every operation
// on a user's cart runs under that user's lock, which Drain holds for the
// whole of a checkout.
type InMemoryRepository struct {
	mu    sync.Mutex
	carts map[ids.UserID]map[ids.ProductID]entry
	locks map[ids.UserID]*sync.Mutex
	seq   uint64
}

func NewInMemoryRepository(seed []Line) *InMemoryRepository {
	r := &InMemoryRepository{
		carts: make(map[ids.UserID]map[ids.ProductID]entry),
		locks: make(map[ids.UserID]*sync.Mutex),
	}
	for _, l := range seed {
		r.put(l)
	}
	return r
}

func (r *InMemoryRepository) userLock(user ids.UserID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[user]
	if !ok {
		l = &sync.Mutex{}
		r.locks[user] = l
	}
	return l
}

// put stores a line; callers hold the user lock.
func (r *InMemoryRepository) put(l Line) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[l.UserID]
	if !ok {
		c = make(map[ids.ProductID]entry)
		r.carts[l.UserID] = c
	}
	e, exists := c[l.ProductID]
	if !exists {
		r.seq++
		e.seq = r.seq
	}
	l.Product = nil
	e.line = l
	c[l.ProductID] = e
}

func (r *InMemoryRepository) get(user ids.UserID, productID ids.ProductID) (Line, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.carts[user][productID]
	return e.line, ok
}

func (r *InMemoryRepository) snapshot(user ids.UserID) []Line {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]entry, 0, len(r.carts[user]))
	for _, e := range r.carts[user] {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.line.AddedAt.Equal(b.line.AddedAt) {
			return a.line.AddedAt.After(b.line.AddedAt)
		}
		return a.seq > b.seq
	})
	out := make([]Line, len(entries))
	for i, e := range entries {
		out[i] = e.line
	}
	return out
}

func (r *InMemoryRepository) remove(user ids.UserID, productIDs ...ids.ProductID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.carts[user]
	for _, id := range productIDs {
		delete(c, id)
	}
	if len(c) == 0 {
		delete(r.carts, user)
	}
}

func (r *InMemoryRepository) Add(_ context.Context, line Line) (Line, bool, error) {
	l := r.userLock(line.UserID)
	l.Lock()
	defer l.Unlock()

	if existing, ok := r.get(line.UserID, line.ProductID); ok {
		if line.Quantity > MaxQuantity-existing.Quantity {
			return Line{}, false, ErrQuantityLimit
		}
		existing.Quantity += line.Quantity
		r.put(existing)
		return existing, false, nil
	}
	r.put(line)
	line.Product = nil
	return line, true, nil
}

func (r *InMemoryRepository) SetQuantity(_ context.Context, user ids.UserID, productID ids.ProductID, qty int) (Line, error) {
	l := r.userLock(user)
	l.Lock()
	defer l.Unlock()

	existing, ok := r.get(user, productID)
	if !ok {
		return Line{}, ErrNotFound
	}
	existing.Quantity = qty
	r.put(existing)
	return existing, nil
}

func (r *InMemoryRepository) Remove(_ context.Context, user ids.UserID, productID ids.ProductID) error {
	l := r.userLock(user)
	l.Lock()
	defer l.Unlock()
	r.remove(user, productID)
	return nil
}

func (r *InMemoryRepository) Clear(_ context.Context, user ids.UserID) error {
	l := r.userLock(user)
	l.Lock()
	defer l.Unlock()
	r.mu.Lock()
	delete(r.carts, user)
	r.mu.Unlock()
	return nil
}

func (r *InMemoryRepository) List(_ context.Context, user ids.UserID) ([]Line, error) {
	return r.snapshot(user), nil
}

// Drain holds the user's cart lock, hands the current lines to place and,
// when place succeeds, deletes exactly those lines. The cart is left
// untouched when place fails.
func (r *InMemoryRepository) Drain(ctx context.Context, user ids.UserID, place func(lines []Line) error) error {
	l := r.userLock(user)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	lines := r.snapshot(user)
	if err := place(lines); err != nil {
		return err
	}
	r.remove(user, ProductIDs(lines)...)
	return nil
}
