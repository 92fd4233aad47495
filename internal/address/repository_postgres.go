package address

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wichananm65/marketplace-backend/internal/database"
	"github.com/wichananm65/marketplace-backend/internal/ids"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	addressColumns = `id, user_id, label, name, street, city, state, postal_code, phone, email, created_at, updated_at`

	listAddressesQuery = `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 ORDER BY id`
	getAddressQuery    = `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 AND id = $2`
	insertAddressQuery = `
		INSERT INTO addresses (user_id, label, name, street, city, state, postal_code, phone, email, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING ` + addressColumns
	updateAddressQuery = `
		UPDATE addresses
		SET label=$3, name=$4, street=$5, city=$6, state=$7, postal_code=$8, phone=$9, email=$10, updated_at=$11
		WHERE user_id=$1 AND id=$2
		RETURNING ` + addressColumns
	deleteAddressQuery = `DELETE FROM addresses WHERE user_id=$1 AND id=$2`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAddress(s rowScanner) (Address, error) {
	var a Address
	err := s.Scan(&a.ID, &a.UserID, &a.Label, &a.Name, &a.Street, &a.City, &a.State, &a.PostalCode,
		&a.Phone, &a.Email, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Address{}, ErrNotFound
	}
	return a, err
}

func (r *PostgresRepository) List(ctx context.Context, user ids.UserID) ([]Address, error) {
	return database.RetryRead(ctx, func() ([]Address, error) {
		rows, err := r.db.QueryContext(ctx, listAddressesQuery, int64(user))
		if err != nil {
			return nil, fmt.Errorf("list addresses: %w", err)
		}
		defer rows.Close()

		out := make([]Address, 0)
		for rows.Next() {
			a, err := scanAddress(rows)
			if err != nil {
				return nil, fmt.Errorf("scan address: %w", err)
			}
			out = append(out, a)
		}
		return out, rows.Err()
	})
}

func (r *PostgresRepository) Get(ctx context.Context, user ids.UserID, id int64) (Address, error) {
	return database.RetryRead(ctx, func() (Address, error) {
		a, err := scanAddress(r.db.QueryRowContext(ctx, getAddressQuery, int64(user), id))
		if err != nil && !errors.Is(err, ErrNotFound) {
			return Address{}, fmt.Errorf("get address %d: %w", id, err)
		}
		return a, err
	})
}

func (r *PostgresRepository) Create(ctx context.Context, a Address) (Address, error) {
	created, err := scanAddress(r.db.QueryRowContext(ctx, insertAddressQuery,
		int64(a.UserID), a.Label, a.Name, a.Street, a.City, a.State, a.PostalCode, a.Phone, a.Email, a.CreatedAt, a.UpdatedAt,
	))
	if err != nil {
		return Address{}, fmt.Errorf("insert address: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) Update(ctx context.Context, a Address) (Address, error) {
	updated, err := scanAddress(r.db.QueryRowContext(ctx, updateAddressQuery,
		int64(a.UserID), a.ID, a.Label, a.Name, a.Street, a.City, a.State, a.PostalCode, a.Phone, a.Email, a.UpdatedAt,
	))
	if errors.Is(err, ErrNotFound) {
		return Address{}, err
	}
	if err != nil {
		return Address{}, fmt.Errorf("update address: %w", err)
	}
	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, user ids.UserID, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteAddressQuery, int64(user), id)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
