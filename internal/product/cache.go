package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/wichananm65/marketplace-backend/internal/ids"
	"github.com/wichananm65/marketplace-backend/internal/logger"
)

// CachedRepository keeps single-product lookups in Redis. Cache failures are
// logged and fall through to the wrapped repository.
type CachedRepository struct {
	next   Repository
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewCachedRepository(next Repository, client *redis.Client, ttl time.Duration, log *zap.Logger) *CachedRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedRepository{next: next, client: client, ttl: ttl, log: log}
}

func cacheKey(id ids.ProductID) string {
	return fmt.Sprintf("product:%d", id)
}

func (r *CachedRepository) GetByID(ctx context.Context, id ids.ProductID) (Product, error) {
	val, err := r.client.Get(ctx, cacheKey(id)).Bytes()
	switch {
	case err == nil:
		var p Product
		if jerr := json.Unmarshal(val, &p); jerr == nil {
			return p, nil
		}
		logger.Warn(ctx, r.log, "discarding undecodable cached product", zap.Int64("product_id", int64(id)))
	case !errors.Is(err, redis.Nil):
		logger.Warn(ctx, r.log, "product cache read failed", zap.Error(err))
	}

	p, err := r.next.GetByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	r.store(ctx, p)
	return p, nil
}

func (r *CachedRepository) ListByIDs(ctx context.Context, productIDs []ids.ProductID) ([]Product, error) {
	if len(productIDs) == 0 {
		return []Product{}, nil
	}

	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = cacheKey(id)
	}

	out := make([]Product, 0, len(productIDs))
	misses := make([]ids.ProductID, 0)

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		logger.Warn(ctx, r.log, "product cache read failed", zap.Error(err))
		return r.next.ListByIDs(ctx, productIDs)
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			misses = append(misses, productIDs[i])
			continue
		}
		var p Product
		if err := json.Unmarshal([]byte(s), &p); err != nil {
			misses = append(misses, productIDs[i])
			continue
		}
		out = append(out, p)
	}

	if len(misses) == 0 {
		return out, nil
	}
	loaded, err := r.next.ListByIDs(ctx, misses)
	if err != nil {
		return nil, err
	}
	for _, p := range loaded {
		r.store(ctx, p)
	}
	return append(out, loaded...), nil
}

// ListByVendor always reads through.
func (r *CachedRepository) ListByVendor(ctx context.Context, vendor ids.VendorID) ([]Product, error) {
	return r.next.ListByVendor(ctx, vendor)
}

// Fresh returns the wrapped repository, for reads that must not be stale.
func (r *CachedRepository) Fresh() Repository {
	return r.next
}

// Invalidate drops a cached product.
func (r *CachedRepository) Invalidate(ctx context.Context, id ids.ProductID) {
	if err := r.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		logger.Warn(ctx, r.log, "product cache delete failed", zap.Error(err))
	}
}

func (r *CachedRepository) store(ctx context.Context, p Product) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, cacheKey(p.ID), data, r.ttl).Err(); err != nil {
		logger.Warn(ctx, r.log, "product cache write failed", zap.Error(err))
	}
}
