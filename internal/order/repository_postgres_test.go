package order

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"

	"github.com/wichananm65/marketplace-backend/internal/outbox"
)

type recordingSink struct {
	events []outbox.Event
}

func (s *recordingSink) Save(_ context.Context, _ *sql.Tx, e outbox.Event) error {
	s.events = append(s.events, e)
	return nil
}

var orderCols = []string{
	"id", "user_id", "shipping_name", "shipping_street", "shipping_city", "shipping_state",
	"shipping_postal_code", "shipping_phone", "shipping_email", "status", "payment_method", "payment_status",
	"subtotal_cents", "shipping_cost_cents", "tax_cents", "total_cents", "notes", "created_at", "updated_at",
}

var itemCols = []string{"order_id", "product_id", "vendor_id", "product_name", "quantity", "unit_price_cents", "line_total_cents"}

func TestPostgresCreate_WritesItemsAndEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	sink := &recordingSink{}
	repo := NewPostgresRepository(db, sink, "order_events", zap.NewNop())

	o := sampleOrder(StatusPending)
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(int64(5), 0, int64(100), int64(10), "P", 2, int64(500), int64(1000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(int64(5), 1, int64(200), int64(20), "Q", 1, int64(300), int64(300)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	created, err := repo.Create(context.Background(), o)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != 5 {
		t.Fatalf("expected id 5, got %d", created.ID)
	}
	if len(sink.events) != 1 || sink.events[0].EventType != EventPlaced || sink.events[0].AggregateID != "5" {
		t.Fatalf("expected one order.placed event, got %+v", sink.events)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresUpdateStatus(t *testing.T) {
	at := time.Now().UTC()

	t.Run("applied", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("sqlmock error: %v", err)
		}
		defer db.Close()
		sink := &recordingSink{}
		repo := NewPostgresRepository(db, sink, "order_events", zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE orders").WithArgs(int64(5), "pending", "confirmed", at).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		if err := repo.UpdateStatus(context.Background(), 5, StatusPending, StatusConfirmed, at); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sink.events) != 1 || sink.events[0].EventType != EventStatusChanged {
			t.Fatalf("expected a status_changed event, got %+v", sink.events)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("status moved underneath", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("sqlmock error: %v", err)
		}
		defer db.Close()
		sink := &recordingSink{}
		repo := NewPostgresRepository(db, sink, "order_events", zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE orders").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT 1 FROM orders").WithArgs(int64(5)).WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
		mock.ExpectRollback()

		err = repo.UpdateStatus(context.Background(), 5, StatusPending, StatusConfirmed, at)
		if !errors.Is(err, ErrStatusConflict) {
			t.Fatalf("expected ErrStatusConflict, got %v", err)
		}
		if len(sink.events) != 0 {
			t.Fatalf("no event may be recorded for a failed update")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("missing order", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("sqlmock error: %v", err)
		}
		defer db.Close()
		repo := NewPostgresRepository(db, nil, "order_events", zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE orders").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT 1 FROM orders").WithArgs(int64(5)).WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
		mock.ExpectRollback()

		if err := repo.UpdateStatus(context.Background(), 5, StatusPending, StatusConfirmed, at); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestPostgresGetByID_LoadsItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db, nil, "", zap.NewNop())

	now := time.Now().UTC()
	mock.ExpectQuery("FROM orders o WHERE o.id = \\$1").WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(5, 1, "Ann", "1 Road", "Town", "ST", "10000", "555", "a@x.io",
			"pending", "card", "paid", 1300, 0, 0, 1300, "", now, now))
	mock.ExpectQuery("FROM order_items").WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(itemCols).
			AddRow(5, 100, 10, "P", 2, 500, 1000).
			AddRow(5, 200, 20, "Q", 1, 300, 300))

	o, err := repo.GetByID(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(o.Items) != 2 || o.ShippingAddress.City != "Town" || o.PaymentMethod != PaymentCard {
		t.Fatalf("unexpected order %+v", o)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresListByVendor(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db, nil, "", zap.NewNop())

	now := time.Now().UTC()
	shipped := StatusShipped
	mock.ExpectQuery("SELECT COUNT").WithArgs(int64(10), "shipped").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery("LIMIT \\$3 OFFSET \\$4").WithArgs(int64(10), "shipped", 10, 10).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(5, 1, "", "", "", "", "", "", "",
			"shipped", "card", "paid", 1000, 0, 0, 1000, "", now, now))
	mock.ExpectQuery("FROM order_items").WillReturnRows(sqlmock.NewRows(itemCols).AddRow(5, 100, 10, "P", 2, 500, 1000))

	orders, total, err := repo.ListByVendor(context.Background(), 10, VendorQuery{Status: &shipped, Limit: 10, Offset: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 11 || len(orders) != 1 {
		t.Fatalf("unexpected page: total=%d len=%d", total, len(orders))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
