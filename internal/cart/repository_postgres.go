package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/wichananm65/marketplace-backend/internal/database"
	"github.com/wichananm65/marketplace-backend/internal/ids"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	lineColumns = `user_id, product_id, quantity, unit_price_cents, added_at`

	// xmax is zero only for a freshly inserted row, which tells an insert
	// apart from the conflict update. No row comes back when the increment
	// would pass $6.
	upsertLineQuery = `
		INSERT INTO cart_lines (user_id, product_id, quantity, unit_price_cents, added_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity
		WHERE cart_lines.quantity::bigint + EXCLUDED.quantity <= $6
		RETURNING ` + lineColumns + `, (xmax = 0) AS inserted
	`
	setQuantityQuery = `
		UPDATE cart_lines
		SET quantity = $3
		WHERE user_id = $1 AND product_id = $2
		RETURNING ` + lineColumns + `
	`
	removeLineQuery = `DELETE FROM cart_lines WHERE user_id = $1 AND product_id = $2`
	clearCartQuery  = `DELETE FROM cart_lines WHERE user_id = $1`
	listLinesQuery  = `
		SELECT ` + lineColumns + `
		FROM cart_lines
		WHERE user_id = $1
		ORDER BY added_at DESC, product_id DESC
	`
	advisoryLockQuery  = `SELECT pg_advisory_xact_lock($1)`
	lockLinesQuery     = listLinesQuery + ` FOR UPDATE`
	deleteLinesTxQuery = `DELETE FROM cart_lines WHERE user_id = $1 AND product_id = ANY($2::bigint[])`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLine(s rowScanner, extra ...any) (Line, error) {
	var l Line
	dest := append([]any{&l.UserID, &l.ProductID, &l.Quantity, &l.PriceAtTimeOfAdding, &l.AddedAt}, extra...)
	err := s.Scan(dest...)
	return l, err
}

func (r *PostgresRepository) Add(ctx context.Context, line Line) (Line, bool, error) {
	var inserted bool
	stored, err := scanLine(r.db.QueryRowContext(ctx, upsertLineQuery,
		int64(line.UserID), int64(line.ProductID), line.Quantity, int64(line.PriceAtTimeOfAdding), line.AddedAt, MaxQuantity,
	), &inserted)
	if errors.Is(err, sql.ErrNoRows) {
		return Line{}, false, ErrQuantityLimit
	}
	if err != nil {
		return Line{}, false, fmt.Errorf("upsert cart line: %w", err)
	}
	return stored, inserted, nil
}

func (r *PostgresRepository) SetQuantity(ctx context.Context, user ids.UserID, productID ids.ProductID, qty int) (Line, error) {
	l, err := scanLine(r.db.QueryRowContext(ctx, setQuantityQuery, int64(user), int64(productID), qty))
	if errors.Is(err, sql.ErrNoRows) {
		return Line{}, ErrNotFound
	}
	if err != nil {
		return Line{}, fmt.Errorf("update cart line: %w", err)
	}
	return l, nil
}

func (r *PostgresRepository) Remove(ctx context.Context, user ids.UserID, productID ids.ProductID) error {
	if _, err := r.db.ExecContext(ctx, removeLineQuery, int64(user), int64(productID)); err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Clear(ctx context.Context, user ids.UserID) error {
	if _, err := r.db.ExecContext(ctx, clearCartQuery, int64(user)); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, user ids.UserID) ([]Line, error) {
	return database.RetryRead(ctx, func() ([]Line, error) {
		return queryLines(ctx, r.db, listLinesQuery, user)
	})
}

// LockForCheckout serializes checkouts of one user's cart for the rest of tx
// and returns the lines, row-locked.
func (r *PostgresRepository) LockForCheckout(ctx context.Context, tx *sql.Tx, user ids.UserID) ([]Line, error) {
	if _, err := tx.ExecContext(ctx, advisoryLockQuery, int64(user)); err != nil {
		return nil, fmt.Errorf("lock cart: %w", err)
	}
	return queryLines(ctx, tx, lockLinesQuery, user)
}

// DeleteLinesTx removes the given products from the user's cart within tx.
func (r *PostgresRepository) DeleteLinesTx(ctx context.Context, tx *sql.Tx, user ids.UserID, productIDs []ids.ProductID) error {
	if len(productIDs) == 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx, deleteLinesTxQuery, int64(user), pq.Array(ids.Int64s(productIDs))); err != nil {
		return fmt.Errorf("delete cart lines: %w", err)
	}
	return nil
}

func queryLines(ctx context.Context, q database.Querier, query string, user ids.UserID) ([]Line, error) {
	rows, err := q.QueryContext(ctx, query, int64(user))
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	defer rows.Close()

	out := make([]Line, 0)
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
