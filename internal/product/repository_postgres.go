package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/wichananm65/marketplace-backend/internal/database"
	"github.com/wichananm65/marketplace-backend/internal/ids"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	productColumns = `id, vendor_id, name, description, category, price_cents, stock, created_at, updated_at`

	getProductByIDQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
	`
	listProductsByIDsQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1::bigint[])
		ORDER BY id
	`
	listProductsByVendorQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE vendor_id = $1
		ORDER BY id
	`
	insertProductQuery = `
		INSERT INTO products (vendor_id, name, description, category, price_cents, stock, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(s rowScanner) (Product, error) {
	var p Product
	err := s.Scan(&p.ID, &p.VendorID, &p.Name, &p.Description, &p.Category, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *PostgresRepository) GetByID(ctx context.Context, id ids.ProductID) (Product, error) {
	return database.RetryRead(ctx, func() (Product, error) {
		p, err := scanProduct(r.db.QueryRowContext(ctx, getProductByIDQuery, int64(id)))
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		if err != nil {
			return Product{}, fmt.Errorf("get product %d: %w", id, err)
		}
		return p, nil
	})
}

func (r *PostgresRepository) ListByIDs(ctx context.Context, productIDs []ids.ProductID) ([]Product, error) {
	if len(productIDs) == 0 {
		return []Product{}, nil
	}
	return database.RetryRead(ctx, func() ([]Product, error) {
		return r.list(ctx, listProductsByIDsQuery, pq.Array(ids.Int64s(productIDs)))
	})
}

func (r *PostgresRepository) ListByVendor(ctx context.Context, vendor ids.VendorID) ([]Product, error) {
	return database.RetryRead(ctx, func() ([]Product, error) {
		return r.list(ctx, listProductsByVendorQuery, int64(vendor))
	})
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create inserts a product. Used for seeding; catalog management is owned by
// another service.
func (r *PostgresRepository) Create(ctx context.Context, p Product) (Product, error) {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	err := r.db.QueryRowContext(ctx, insertProductQuery,
		int64(p.VendorID), p.Name, p.Description, p.Category, int64(p.Price), p.Stock, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}
