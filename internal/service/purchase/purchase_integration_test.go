//go:build integration

package purchase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/inventory-backend/internal/common/config"
	"github.com/dumeirei/inventory-backend/internal/common/metrics"
	"github.com/dumeirei/inventory-backend/internal/models"
	"github.com/dumeirei/inventory-backend/internal/repository"
	"github.com/dumeirei/inventory-backend/internal/testutil"
)

func newPostgresFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.StartPostgres(t)
	reg := prometheus.NewRegistry()

	svc := NewPurchaseService(
		db,
		repository.NewPurchaseRepository(db),
		repository.NewProductRepository(db),
		repository.NewSupplierRepository(db),
		&config.PurchaseConfig{OrderPrefix: "PO", OrderNoRetries: 3, Timezone: "UTC"},
		metrics.New("test", reg),
	)
	svc.SetClock(func() time.Time { return fixedNow })

	return &fixture{
		db:       db,
		svc:      svc,
		reg:      reg,
		supplier: testutil.CreateSupplier(t, db, "广州干货行"),
		a:        testutil.CreateProduct(t, db, "A01", "陈皮", 10),
		b:        testutil.CreateProduct(t, db, "A02", "海参", 0),
	}
}

func TestPostgres_ConcurrentCreateNumbersSequentially(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	orderNos := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := f.svc.Create(ctx, f.request(
				ItemRequest{ProductID: f.a.ID, Quantity: 1, UnitPrice: testutil.Money("2.50")},
				ItemRequest{ProductID: f.b.ID, Quantity: 2, UnitPrice: testutil.Money("1.00")},
			))
			errs[i] = err
			if err == nil {
				orderNos[i] = p.OrderNo
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	sort.Strings(orderNos)
	for i, no := range orderNos {
		assert.Equal(t, fmt.Sprintf("PO20250214%03d", i+1), no)
	}

	// 咨询锁串行化同日分配，不应出现单号冲突重试
	assert.Zero(t, testutil.CounterValue(t, f.reg, "test_purchase_order_no_retries_total", nil))
	assert.Equal(t, 10+n, testutil.ReloadProduct(t, f.db, f.a.ID).CurrentStock)
	assert.Equal(t, 2*n, testutil.ReloadProduct(t, f.db, f.b.ID).CurrentStock)
	assert.Equal(t, int64(2*n), countRows(t, f.db, &models.PurchaseItem{}))
}

func TestPostgres_ConcurrentDeleteRestoresStock(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()

	ids := make([]int64, 0, 5)
	for i := 0; i < 5; i++ {
		p, err := f.svc.Create(ctx, f.request(ItemRequest{ProductID: f.b.ID, Quantity: 3}))
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}
	require.Equal(t, 15, testutil.ReloadProduct(t, f.db, f.b.ID).CurrentStock)

	var wg sync.WaitGroup
	errs := make([]error, len(ids)*2)
	for i, id := range ids {
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func(slot int, id int64) {
				defer wg.Done()
				errs[slot] = f.svc.Delete(ctx, id)
			}(i*2+j, id)
		}
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
		}
	}
	// 每张单据只有一次删除成功，另一次看到单据已不存在
	assert.Equal(t, len(ids), failures)
	assert.Equal(t, 0, testutil.ReloadProduct(t, f.db, f.b.ID).CurrentStock)
	assert.Zero(t, countRows(t, f.db, &models.Purchase{}))
}
