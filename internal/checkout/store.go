package checkout

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/wichananm65/marketplace-backend/internal/cart"
	"github.com/wichananm65/marketplace-backend/internal/database"
	"github.com/wichananm65/marketplace-backend/internal/ids"
	"github.com/wichananm65/marketplace-backend/internal/order"
)

// BuildFunc turns the cart lines read under the checkout lock into the order
// to persist. Returning an error aborts the checkout with the cart intact.
type BuildFunc func(lines []cart.Line) (order.Order, error)

// Store runs a checkout as one unit: lock the user's cart, read it, persist
// the order built from it, then drop exactly the lines that were read.
type Store interface {
	PlaceOrder(ctx context.Context, user ids.UserID, build BuildFunc) (order.Order, error)
}

// InMemoryStore serializes checkouts with the cart repository's per-user lock.
type InMemoryStore struct {
	carts  *cart.InMemoryRepository
	orders order.Repository
}

func NewInMemoryStore(carts *cart.InMemoryRepository, orders order.Repository) *InMemoryStore {
	return &InMemoryStore{carts: carts, orders: orders}
}

func (s *InMemoryStore) PlaceOrder(ctx context.Context, user ids.UserID, build BuildFunc) (order.Order, error) {
	var placed order.Order
	err := s.carts.Drain(ctx, user, func(lines []cart.Line) error {
		o, err := build(lines)
		if err != nil {
			return err
		}
		placed, err = s.orders.Create(ctx, o)
		return err
	})
	if err != nil {
		return order.Order{}, err
	}
	return placed, nil
}

// PostgresStore runs the whole checkout in a single transaction. The
// transaction-scoped advisory lock on the user id keeps a concurrent checkout
// waiting until this one commits, after which it reads an empty cart.
type PostgresStore struct {
	db     *sql.DB
	carts  *cart.PostgresRepository
	orders *order.PostgresRepository
	log    *zap.Logger
}

func NewPostgresStore(db *sql.DB, carts *cart.PostgresRepository, orders *order.PostgresRepository, log *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, carts: carts, orders: orders, log: log}
}

func (s *PostgresStore) PlaceOrder(ctx context.Context, user ids.UserID, build BuildFunc) (order.Order, error) {
	var placed order.Order
	err := database.WithTx(ctx, s.db, s.log, func(tx *sql.Tx) error {
		lines, err := s.carts.LockForCheckout(ctx, tx, user)
		if err != nil {
			return err
		}
		o, err := build(lines)
		if err != nil {
			return err
		}
		placed, err = s.orders.InsertTx(ctx, tx, o)
		if err != nil {
			return err
		}
		return s.carts.DeleteLinesTx(ctx, tx, user, cart.ProductIDs(lines))
	})
	if err != nil {
		return order.Order{}, err
	}
	return placed, nil
}
