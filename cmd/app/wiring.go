package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/wichananm65/marketplace-backend/internal/address"
	"github.com/wichananm65/marketplace-backend/internal/cart"
	"github.com/wichananm65/marketplace-backend/internal/checkout"
	"github.com/wichananm65/marketplace-backend/internal/config"
	"github.com/wichananm65/marketplace-backend/internal/database"
	"github.com/wichananm65/marketplace-backend/internal/logger"
	"github.com/wichananm65/marketplace-backend/internal/order"
	"github.com/wichananm65/marketplace-backend/internal/outbox"
	"github.com/wichananm65/marketplace-backend/internal/product"
)

// wiring holds the storage-specific pieces the HTTP layer is built from.
type wiring struct {
	products  product.Repository
	carts     cart.Repository
	orders    order.Repository
	addresses address.Repository
	store     checkout.Store
	db        *sql.DB
	worker    *outbox.Worker
	closers   []func() error
}

func (w *wiring) close(log *zap.Logger) {
	for i := len(w.closers) - 1; i >= 0; i-- {
		if err := w.closers[i](); err != nil {
			log.Warn("error releasing resource", zap.Error(err))
		}
	}
}

// buildMemory keeps everything in process. There is no outbox in this mode.
func buildMemory(log *zap.Logger) *wiring {
	products := product.NewInMemoryRepository(seedProducts())
	carts := cart.NewInMemoryRepository(nil)
	orders := order.NewInMemoryRepository(nil)
	log.Info("using in-memory storage", zap.Int("products", len(seedProducts())))
	return &wiring{
		products:  products,
		carts:     carts,
		orders:    orders,
		addresses: address.NewInMemoryRepository(nil),
		store:     checkout.NewInMemoryStore(carts, orders),
	}
}

func buildPostgres(ctx context.Context, cfg *config.Config, log *zap.Logger) (*wiring, error) {
	db, err := database.Open(ctx, database.Options{
		URL:          cfg.Postgres.URL,
		MaxOpenConns: cfg.Postgres.MaxOpenConns,
		MaxIdleConns: cfg.Postgres.MaxIdleConns,
	})
	if err != nil {
		return nil, err
	}
	w := &wiring{db: db, closers: []func() error{db.Close}}

	if cfg.Postgres.Migrate {
		if err := database.Migrate(db); err != nil {
			w.close(log)
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	var products product.Repository = product.NewPostgresRepository(db)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn(ctx, log, "redis unreachable, product reads will fall through to postgres", zap.Error(err))
		}
		w.closers = append(w.closers, client.Close)
		products = product.NewCachedRepository(products, client, cfg.Redis.ProductTTL, log)
	}

	events := outbox.NewRepository()
	carts := cart.NewPostgresRepository(db)
	orders := order.NewPostgresRepository(db, events, cfg.Kafka.Topic, log)

	var producer outbox.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := outbox.NewKafkaProducer(cfg.Kafka.Brokers, log)
		if err != nil {
			w.close(log)
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		w.closers = append(w.closers, kp.Close)
		producer = kp
	} else {
		logger.Info(ctx, log, "no kafka brokers configured, order events are logged only")
		producer = outbox.NewLogProducer(log)
	}

	w.products = products
	w.carts = carts
	w.orders = orders
	w.addresses = address.NewPostgresRepository(db)
	w.store = checkout.NewPostgresStore(db, carts, orders, log)
	w.worker = outbox.NewWorker(db, events, producer, log, outbox.WorkerConfig{
		Interval:    cfg.Outbox.Interval,
		BatchSize:   cfg.Outbox.BatchSize,
		MaxAttempts: cfg.Outbox.MaxAttempts,
	})
	return w, nil
}
