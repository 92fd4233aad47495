package product

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wichananm65/marketplace-backend/internal/ids"
)

// An unreachable Redis must never break product lookups.
func TestCachedRepository_FallsBackWhenRedisDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	repo := NewCachedRepository(seedRepo(), client, time.Minute, zap.NewNop())
	ctx := context.Background()

	p, err := repo.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Double Bowl", p.Name)

	list, err := repo.ListByIDs(ctx, []ids.ProductID{1, 3})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = repo.GetByID(ctx, 404)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_CurrentReadsBypassCache(t *testing.T) {
	live := seedRepo()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	svc := NewService(NewCachedRepository(live, client, time.Minute, zap.NewNop()))
	assert.Equal(t, Repository(live), svc.fresh)

	// stale stands in for a warm cache that still has the old vendor
	stale := seedRepo()
	svc.repo = stale
	ctx := context.Background()
	_, err := live.Create(ctx, Product{ID: 1, VendorID: 30, Name: "Cat Sweater", Price: 275})
	require.NoError(t, err)

	p, err := svc.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, ids.VendorID(10), p.VendorID)

	p, err = svc.Current(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, ids.VendorID(30), p.VendorID)

	found, err := svc.LookupCurrent(ctx, []ids.ProductID{1, 2})
	require.NoError(t, err)
	assert.Equal(t, ids.VendorID(30), found[1].VendorID)
	assert.Len(t, found, 2)
}
