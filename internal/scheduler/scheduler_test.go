package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/inventory-backend/internal/common/cache"
	"github.com/dumeirei/inventory-backend/internal/common/config"
	"github.com/dumeirei/inventory-backend/internal/common/metrics"
	"github.com/dumeirei/inventory-backend/internal/repository"
	"github.com/dumeirei/inventory-backend/internal/service/stats"
	"github.com/dumeirei/inventory-backend/internal/testutil"
)

func TestScheduler_RunsImmediatelyAndStops(t *testing.T) {
	s := NewScheduler()
	var runs atomic.Int32
	s.AddTask("count", time.Hour, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	s.AddTask("disabled", 0, func(ctx context.Context) error {
		t.Error("disabled task should not run")
		return nil
	})
	assert.Equal(t, 1, s.Tasks())

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 10*time.Millisecond)
	s.Stop()
}

func TestScheduler_Ticks(t *testing.T) {
	s := NewScheduler()
	var runs atomic.Int32
	s.AddTask("fast", 20*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("boom")
	})

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)
	s.Stop()
}

func TestScheduler_RecoversPanic(t *testing.T) {
	s := NewScheduler()
	var runs atomic.Int32
	s.AddTask("panics", 20*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		panic("bad task")
	})

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	s.Stop()
}

func newTaskHandler(t *testing.T, store *cache.Store) (*TaskHandler, *prometheus.Registry, *repository.ProductRepository) {
	t.Helper()
	db := testutil.NewTestDB(t)
	reg := prometheus.NewRegistry()
	m := metrics.New("test", reg)
	repo := repository.NewProductRepository(db)
	svc := stats.NewStatsService(db, store, &config.StatsConfig{CacheTTL: 60, LowStockThreshold: 5}, m)

	testutil.CreateProduct(t, db, "A01", "陈皮", 2)
	testutil.CreateProduct(t, db, "A02", "龙井", 5)
	testutil.CreateProduct(t, db, "A03", "纸箱", 40)
	testutil.CreateProduct(t, db, "A04", "胶带", -1)

	return NewTaskHandler(repo, svc, m), reg, repo
}

func TestReportLowStock(t *testing.T) {
	h, reg, repo := newTaskHandler(t, cache.NewStore(nil))

	require.NoError(t, h.ReportLowStock(context.Background()))
	assert.Equal(t, 3.0, testutil.GaugeValue(t, reg, "test_low_stock_products"))

	products, total, err := repo.ListLowStock(context.Background(), 5, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, products, 2)
	assert.Equal(t, "A04", products[0].Code)
	assert.Equal(t, "A01", products[1].Code)
}

func TestRefreshStats_WarmsCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	h, _, _ := newTaskHandler(t, cache.NewStore(rdb))
	require.NoError(t, h.RefreshStats(context.Background()))

	keys := mr.Keys()
	assert.Len(t, keys, 3)
	assert.Contains(t, keys, "stats:suppliers:-_-")
	assert.Contains(t, keys, "stats:categories:-_-")
}

func TestRegister(t *testing.T) {
	h, _, _ := newTaskHandler(t, cache.NewStore(nil))

	s := NewScheduler()
	h.Register(s, time.Minute)
	assert.Equal(t, 2, s.Tasks())

	s = NewScheduler()
	h.Register(s, 0)
	assert.Equal(t, 0, s.Tasks())
}
