// Package stats 提供库存与采购统计
package stats

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dumeirei/inventory-backend/internal/common/cache"
	"github.com/dumeirei/inventory-backend/internal/common/config"
	"github.com/dumeirei/inventory-backend/internal/common/errors"
	"github.com/dumeirei/inventory-backend/internal/common/logger"
	"github.com/dumeirei/inventory-backend/internal/common/metrics"
	"github.com/dumeirei/inventory-backend/internal/common/utils"
	"github.com/dumeirei/inventory-backend/internal/models"
)

const (
	cacheName         = "stats"
	defaultCacheTTL   = 5 * time.Minute
	defaultLowStock   = 5
	uncategorized     = "其他"
	categoryExpr      = "COALESCE(NULLIF(pr.category, ''), '" + uncategorized + "')"
	rangeKeyLayout    = "20060102"
	rangeKeyUnbounded = "-"
)

// StatsService 统计服务
type StatsService struct {
	db       *gorm.DB
	store    *cache.Store
	metrics  *metrics.Metrics
	ttl      time.Duration
	lowStock int
	now      func() time.Time
}

// NewStatsService 创建统计服务，store 未启用时直接查询数据库
func NewStatsService(db *gorm.DB, store *cache.Store, cfg *config.StatsConfig, m *metrics.Metrics) *StatsService {
	s := &StatsService{
		db:       db,
		store:    store,
		metrics:  m,
		ttl:      defaultCacheTTL,
		lowStock: defaultLowStock,
		now:      time.Now,
	}
	if cfg != nil {
		if cfg.CacheTTL > 0 {
			s.ttl = cfg.CacheDuration()
		}
		if cfg.LowStockThreshold > 0 {
			s.lowStock = cfg.LowStockThreshold
		}
	}
	return s
}

// SetClock 替换时钟
func (s *StatsService) SetClock(now func() time.Time) {
	s.now = now
}

// LowStockThreshold 低库存阈值
func (s *StatsService) LowStockThreshold() int {
	return s.lowStock
}

// Overview 概览数据
type Overview struct {
	ProductCount        int64           `json:"product_count"`
	TotalStock          int64           `json:"total_stock"`
	LowStockCount       int64           `json:"low_stock_count"`
	LowStockThreshold   int             `json:"low_stock_threshold"`
	SupplierCount       int64           `json:"supplier_count"`
	PurchaseCount       int64           `json:"purchase_count"`
	TotalPurchaseAmount decimal.Decimal `json:"total_purchase_amount"`
	MonthPurchaseCount  int64           `json:"month_purchase_count"`
	MonthPurchaseAmount decimal.Decimal `json:"month_purchase_amount"`
}

// SupplierStat 按供应商汇总
type SupplierStat struct {
	SupplierID    int64           `json:"supplier_id"`
	SupplierName  string          `json:"supplier_name"`
	PurchaseCount int64           `json:"purchase_count"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// CategoryStat 按商品分类汇总采购明细
type CategoryStat struct {
	Category    string          `json:"category"`
	Quantity    int64           `json:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// DateRange 采购日期范围，闭区间，nil 表示不限
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

func (r DateRange) key() string {
	format := func(t *time.Time) string {
		if t == nil {
			return rangeKeyUnbounded
		}
		return t.Format(rangeKeyLayout)
	}
	return format(r.Start) + "_" + format(r.End)
}

func (r DateRange) apply(query *gorm.DB, column string) *gorm.DB {
	if r.Start != nil {
		query = query.Where(column+" >= ?", *r.Start)
	}
	if r.End != nil {
		query = query.Where(column+" <= ?", *r.End)
	}
	return query
}

// Overview 获取概览
func (s *StatsService) Overview(ctx context.Context) (*Overview, error) {
	now := s.now()
	return cached(ctx, s, overviewKey(now), func() (*Overview, error) {
		return s.loadOverview(ctx, now)
	})
}

func overviewKey(now time.Time) string {
	return cache.BuildKey(cache.KeyPrefixStats, "overview", now.Format("200601"))
}

func (s *StatsService) loadOverview(ctx context.Context, now time.Time) (*Overview, error) {
	o := &Overview{LowStockThreshold: s.lowStock}
	db := s.db.WithContext(ctx)
	monthStart := utils.StartOfMonth(now)

	if err := db.Model(&models.Product{}).Count(&o.ProductCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Product{}).
		Select("COALESCE(SUM(current_stock), 0)").
		Row().Scan(&o.TotalStock); err != nil {
		return nil, err
	}
	if err := db.Model(&models.Product{}).
		Where("current_stock <= ?", s.lowStock).
		Count(&o.LowStockCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Supplier{}).Count(&o.SupplierCount).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.Purchase{}).
		Select("COUNT(*), COALESCE(SUM(total_amount), 0)").
		Row().Scan(&o.PurchaseCount, &o.TotalPurchaseAmount); err != nil {
		return nil, err
	}
	if err := db.Model(&models.Purchase{}).
		Where("purchase_date >= ?", monthStart).
		Select("COUNT(*), COALESCE(SUM(total_amount), 0)").
		Row().Scan(&o.MonthPurchaseCount, &o.MonthPurchaseAmount); err != nil {
		return nil, err
	}

	o.TotalPurchaseAmount = o.TotalPurchaseAmount.Round(2)
	o.MonthPurchaseAmount = o.MonthPurchaseAmount.Round(2)
	return o, nil
}

// BySupplier 按供应商汇总采购金额，金额高的在前
func (s *StatsService) BySupplier(ctx context.Context, r DateRange) ([]SupplierStat, error) {
	key := cache.BuildKey(cache.KeyPrefixStats, "suppliers", r.key())
	return cached(ctx, s, key, func() ([]SupplierStat, error) {
		return s.loadBySupplier(ctx, r)
	})
}

func (s *StatsService) loadBySupplier(ctx context.Context, r DateRange) ([]SupplierStat, error) {
	stats := []SupplierStat{}
	query := s.db.WithContext(ctx).
		Table("purchases AS p").
		Select("p.supplier_id, COALESCE(s.name, '') AS supplier_name, COUNT(*) AS purchase_count, COALESCE(SUM(p.total_amount), 0) AS total_amount").
		Joins("LEFT JOIN suppliers AS s ON s.id = p.supplier_id")
	err := r.apply(query, "p.purchase_date").
		Group("p.supplier_id, s.name").
		Order("total_amount DESC, p.supplier_id ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	for i := range stats {
		stats[i].TotalAmount = stats[i].TotalAmount.Round(2)
	}
	return stats, nil
}

// ByCategory 按商品分类汇总采购数量与金额，未分类计入“其他”
func (s *StatsService) ByCategory(ctx context.Context, r DateRange) ([]CategoryStat, error) {
	key := cache.BuildKey(cache.KeyPrefixStats, "categories", r.key())
	return cached(ctx, s, key, func() ([]CategoryStat, error) {
		return s.loadByCategory(ctx, r)
	})
}

func (s *StatsService) loadByCategory(ctx context.Context, r DateRange) ([]CategoryStat, error) {
	stats := []CategoryStat{}
	query := s.db.WithContext(ctx).
		Table("purchase_items AS i").
		Select(categoryExpr + " AS category, COALESCE(SUM(i.quantity), 0) AS quantity, COALESCE(SUM(i.subtotal), 0) AS total_amount").
		Joins("JOIN purchases AS p ON p.id = i.purchase_id").
		Joins("LEFT JOIN products AS pr ON pr.id = i.product_id")
	err := r.apply(query, "p.purchase_date").
		Group(categoryExpr).
		Order("total_amount DESC, category ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	for i := range stats {
		stats[i].TotalAmount = stats[i].TotalAmount.Round(2)
	}
	return stats, nil
}

// Refresh 重新查询概览和全时段汇总并覆盖缓存，不读取已有缓存
// 缓存未启用时只做一次查询
func (s *StatsService) Refresh(ctx context.Context) error {
	now := s.now()
	all := DateRange{}
	if err := refresh(ctx, s, overviewKey(now), func() (*Overview, error) {
		return s.loadOverview(ctx, now)
	}); err != nil {
		return err
	}
	if err := refresh(ctx, s, cache.BuildKey(cache.KeyPrefixStats, "suppliers", all.key()), func() ([]SupplierStat, error) {
		return s.loadBySupplier(ctx, all)
	}); err != nil {
		return err
	}
	return refresh(ctx, s, cache.BuildKey(cache.KeyPrefixStats, "categories", all.key()), func() ([]CategoryStat, error) {
		return s.loadByCategory(ctx, all)
	})
}

// Invalidate 清除统计缓存，采购单或商品变更后调用
func (s *StatsService) Invalidate(ctx context.Context) {
	if err := s.store.DeletePrefix(ctx, cache.KeyPrefixStats); err != nil {
		logger.Warn("stats cache invalidation failed", logger.Err(err))
	}
}

func refresh[T any](ctx context.Context, s *StatsService, key string, load func() (T, error)) error {
	value, err := load()
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if !s.store.Enabled() {
		return nil
	}
	if err := s.store.Set(ctx, key, value, s.ttl); err != nil {
		logger.Warn("stats cache write failed", logger.String("key", key), logger.Err(err))
	}
	return nil
}

// cached 先读缓存，未命中或缓存异常时查询数据库并回写
func cached[T any](ctx context.Context, s *StatsService, key string, load func() (T, error)) (T, error) {
	if !s.store.Enabled() {
		value, err := load()
		if err != nil {
			return value, errors.ErrDatabaseError.WithError(err)
		}
		return value, nil
	}

	var value T
	err := s.store.Get(ctx, key, &value)
	switch {
	case err == nil:
		s.metrics.RecordCacheHit(cacheName)
		return value, nil
	case stderrors.Is(err, cache.ErrCacheMiss):
		s.metrics.RecordCacheMiss(cacheName)
	default:
		s.metrics.RecordCacheMiss(cacheName)
		logger.Warn("stats cache read failed", logger.String("key", key), logger.Err(err))
	}

	value, err = load()
	if err != nil {
		var zero T
		return zero, errors.ErrDatabaseError.WithError(err)
	}

	if err := s.store.Set(ctx, key, value, s.ttl); err != nil {
		logger.Warn("stats cache write failed", logger.String("key", key), logger.Err(err))
	}
	return value, nil
}
