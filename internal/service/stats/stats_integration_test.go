//go:build integration

package stats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/inventory-backend/internal/common/cache"
	"github.com/dumeirei/inventory-backend/internal/testutil"
)

func TestPostgresRedis_StatsCache(t *testing.T) {
	db := testutil.StartPostgres(t)
	rdb := testutil.StartRedis(t)
	seed(t, db)

	svc, reg := newService(t, db, cache.NewStore(rdb))
	ctx := context.Background()

	overview, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), overview.PurchaseCount)
	assert.Equal(t, "147.5", overview.TotalPurchaseAmount.String())

	byCategory, err := svc.ByCategory(ctx, DateRange{})
	require.NoError(t, err)
	require.Len(t, byCategory, 3)
	assert.Equal(t, "其他", byCategory[2].Category)

	again, err := svc.ByCategory(ctx, DateRange{})
	require.NoError(t, err)
	assert.Equal(t, byCategory[0].Category, again[0].Category)
	assert.True(t, byCategory[0].TotalAmount.Equal(again[0].TotalAmount))
	assert.Equal(t, 1.0, testutil.CounterValue(t, reg, "test_cache_hits_total", map[string]string{"cache": "stats"}))

	keys, err := rdb.Keys(ctx, "stats:*").Result()
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	svc.Invalidate(ctx)
	keys, err = rdb.Keys(ctx, "stats:*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys)
}
