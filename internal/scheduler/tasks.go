package scheduler

import (
	"context"
	"time"

	"github.com/dumeirei/inventory-backend/internal/common/logger"
	"github.com/dumeirei/inventory-backend/internal/common/metrics"
	"github.com/dumeirei/inventory-backend/internal/repository"
	"github.com/dumeirei/inventory-backend/internal/service/stats"
)

// lowStockLogLimit 每次告警日志最多列出的商品数
const lowStockLogLimit = 20

// TaskHandler 任务处理器
type TaskHandler struct {
	productRepo  *repository.ProductRepository
	statsService *stats.StatsService
	metrics      *metrics.Metrics
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(
	productRepo *repository.ProductRepository,
	statsSvc *stats.StatsService,
	m *metrics.Metrics,
) *TaskHandler {
	return &TaskHandler{
		productRepo:  productRepo,
		statsService: statsSvc,
		metrics:      m,
	}
}

// Register 注册库存相关定时任务
func (h *TaskHandler) Register(s *Scheduler, interval time.Duration) {
	s.AddTask("refresh_stats", interval, h.RefreshStats)
	s.AddTask("report_low_stock", interval, h.ReportLowStock)
}

// RefreshStats 重建统计缓存，已缓存的条目也会被最新数据覆盖
func (h *TaskHandler) RefreshStats(ctx context.Context) error {
	return h.statsService.Refresh(ctx)
}

// ReportLowStock 统计低库存商品并记录告警
func (h *TaskHandler) ReportLowStock(ctx context.Context) error {
	threshold := h.statsService.LowStockThreshold()
	products, total, err := h.productRepo.ListLowStock(ctx, threshold, lowStockLogLimit)
	if err != nil {
		return err
	}

	h.metrics.SetLowStockProducts(total)
	if total == 0 {
		return nil
	}

	codes := make([]string, 0, len(products))
	for _, p := range products {
		codes = append(codes, p.Code)
	}
	logger.Warn("low stock products",
		logger.Int("threshold", threshold),
		logger.Int64("total", total),
		logger.Any("codes", codes),
	)
	return nil
}
