package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/wichananm65/marketplace-backend/internal/database"
	"github.com/wichananm65/marketplace-backend/internal/ids"
)

// PostgresRepository stores orders and, when an EventSink is configured,
// records an outbox event in the same transaction as every write.
type PostgresRepository struct {
	db     *sql.DB
	events EventSink
	topic  string
	log    *zap.Logger
}

const (
	orderColumns = `o.id, o.user_id, o.shipping_name, o.shipping_street, o.shipping_city, o.shipping_state,
		o.shipping_postal_code, o.shipping_phone, o.shipping_email, o.status, o.payment_method, o.payment_status,
		o.subtotal_cents, o.shipping_cost_cents, o.tax_cents, o.total_cents, o.notes, o.created_at, o.updated_at`

	insertOrderQuery = `
		INSERT INTO orders (user_id, shipping_name, shipping_street, shipping_city, shipping_state,
			shipping_postal_code, shipping_phone, shipping_email, status, payment_method, payment_status,
			subtotal_cents, shipping_cost_cents, tax_cents, total_cents, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING id
	`
	insertItemQuery = `
		INSERT INTO order_items (order_id, position, product_id, vendor_id, product_name, quantity, unit_price_cents, line_total_cents)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`
	getOrderQuery = `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1`

	listOrdersByUserQuery = `
		SELECT ` + orderColumns + `
		FROM orders o
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, o.id DESC
	`
	vendorOrdersFilter = `
		FROM orders o
		WHERE EXISTS (SELECT 1 FROM order_items i WHERE i.order_id = o.id AND i.vendor_id = $1)
		  AND ($2::text IS NULL OR o.status = $2::text)
	`
	countVendorOrdersQuery = `SELECT COUNT(*) ` + vendorOrdersFilter
	listVendorOrdersQuery  = `SELECT ` + orderColumns + vendorOrdersFilter + `
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT $3 OFFSET $4
	`
	listOrdersContainingProductsQuery = `
		SELECT ` + orderColumns + `
		FROM orders o
		WHERE o.created_at >= $2
		  AND EXISTS (SELECT 1 FROM order_items i WHERE i.order_id = o.id AND i.product_id = ANY($1::bigint[]))
		ORDER BY o.id
	`
	listItemsQuery = `
		SELECT order_id, product_id, vendor_id, product_name, quantity, unit_price_cents, line_total_cents
		FROM order_items
		WHERE order_id = ANY($1::bigint[])
		ORDER BY order_id, position
	`
	updateStatusQuery = `
		UPDATE orders
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
	`
	orderExistsQuery = `SELECT 1 FROM orders WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB, events EventSink, topic string, log *zap.Logger) *PostgresRepository {
	return &PostgresRepository{db: db, events: events, topic: topic, log: log}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(s rowScanner) (Order, error) {
	var o Order
	a := &o.ShippingAddress
	err := s.Scan(
		&o.ID, &o.UserID, &a.Name, &a.Street, &a.City, &a.State, &a.PostalCode, &a.Phone, &a.Email,
		&o.Status, &o.PaymentMethod, &o.PaymentStatus,
		&o.Subtotal, &o.ShippingCost, &o.Tax, &o.Total, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

func (r *PostgresRepository) Create(ctx context.Context, o Order) (Order, error) {
	var created Order
	err := database.WithTx(ctx, r.db, r.log, func(tx *sql.Tx) error {
		var err error
		created, err = r.InsertTx(ctx, tx, o)
		return err
	})
	return created, err
}

// InsertTx writes the order, its items and an order.placed event within tx.
func (r *PostgresRepository) InsertTx(ctx context.Context, tx *sql.Tx, o Order) (Order, error) {
	a := o.ShippingAddress
	err := tx.QueryRowContext(ctx, insertOrderQuery,
		int64(o.UserID), a.Name, a.Street, a.City, a.State, a.PostalCode, a.Phone, a.Email,
		string(o.Status), string(o.PaymentMethod), string(o.PaymentStatus),
		int64(o.Subtotal), int64(o.ShippingCost), int64(o.Tax), int64(o.Total), o.Notes, o.CreatedAt, o.UpdatedAt,
	).Scan(&o.ID)
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}

	for i, it := range o.Items {
		if _, err := tx.ExecContext(ctx, insertItemQuery,
			int64(o.ID), i, int64(it.ProductID), int64(it.VendorID), it.ProductName, it.Quantity, int64(it.UnitPrice), int64(it.LineTotal),
		); err != nil {
			return Order{}, fmt.Errorf("insert order item: %w", err)
		}
	}

	if r.events != nil {
		e, err := placedEvent(r.topic, o)
		if err != nil {
			return Order{}, err
		}
		if err := r.events.Save(ctx, tx, e); err != nil {
			return Order{}, err
		}
	}
	return o, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id ids.OrderID) (Order, error) {
	return database.RetryRead(ctx, func() (Order, error) {
		o, err := scanOrder(r.db.QueryRowContext(ctx, getOrderQuery, int64(id)))
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		if err != nil {
			return Order{}, fmt.Errorf("get order %d: %w", id, err)
		}
		list := []Order{o}
		if err := r.loadItems(ctx, list); err != nil {
			return Order{}, err
		}
		return list[0], nil
	})
}

func (r *PostgresRepository) ListByUser(ctx context.Context, user ids.UserID) ([]Order, error) {
	return database.RetryRead(ctx, func() ([]Order, error) {
		return r.listWithItems(ctx, listOrdersByUserQuery, int64(user))
	})
}

func (r *PostgresRepository) ListByVendor(ctx context.Context, vendor ids.VendorID, q VendorQuery) ([]Order, int, error) {
	var status sql.NullString
	if q.Status != nil {
		status = sql.NullString{String: string(*q.Status), Valid: true}
	}

	type page struct {
		orders []Order
		total  int
	}
	res, err := database.RetryRead(ctx, func() (page, error) {
		var total int
		if err := r.db.QueryRowContext(ctx, countVendorOrdersQuery, int64(vendor), status).Scan(&total); err != nil {
			return page{}, fmt.Errorf("count vendor orders: %w", err)
		}
		if total == 0 {
			return page{orders: []Order{}}, nil
		}
		orders, err := r.listWithItems(ctx, listVendorOrdersQuery, int64(vendor), status, q.Limit, q.Offset)
		if err != nil {
			return page{}, err
		}
		return page{orders: orders, total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return res.orders, res.total, nil
}

func (r *PostgresRepository) ListContainingProducts(ctx context.Context, productIDs []ids.ProductID, since time.Time) ([]Order, error) {
	if len(productIDs) == 0 {
		return []Order{}, nil
	}
	return database.RetryRead(ctx, func() ([]Order, error) {
		return r.listWithItems(ctx, listOrdersContainingProductsQuery, pq.Array(ids.Int64s(productIDs)), since)
	})
}

// UpdateStatus applies a compare-and-set on the status column and records an
// order.status_changed event in the same transaction.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id ids.OrderID, from, to Status, at time.Time) error {
	return database.WithTx(ctx, r.db, r.log, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, updateStatusQuery, int64(id), string(from), string(to), at)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if n == 0 {
			var one int
			err := tx.QueryRowContext(ctx, orderExistsQuery, int64(id)).Scan(&one)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("check order: %w", err)
			}
			return ErrStatusConflict
		}

		if r.events == nil {
			return nil
		}
		e, err := statusChangedEvent(r.topic, id, from, to, at)
		if err != nil {
			return err
		}
		return r.events.Save(ctx, tx, e)
	})
}

func (r *PostgresRepository) listWithItems(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresRepository) loadItems(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	index := make(map[ids.OrderID]int, len(orders))
	orderIDs := make([]int64, len(orders))
	for i, o := range orders {
		index[o.ID] = i
		orderIDs[i] = int64(o.ID)
		orders[i].Items = []Item{}
	}

	rows, err := r.db.QueryContext(ctx, listItemsQuery, pq.Array(orderIDs))
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID ids.OrderID
			it      Item
		)
		if err := rows.Scan(&orderID, &it.ProductID, &it.VendorID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return rows.Err()
}
