package inventory

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/inventory-backend/internal/common/handler"
	"github.com/dumeirei/inventory-backend/internal/service/stats"
)

// StatsHandler 统计处理器
type StatsHandler struct {
	statsService *stats.StatsService
	location     *time.Location
}

// NewStatsHandler 创建统计处理器，loc 为采购日期所在时区
func NewStatsHandler(statsSvc *stats.StatsService, loc *time.Location) *StatsHandler {
	return &StatsHandler{statsService: statsSvc, location: loc}
}

// Overview 概览
// @Summary 库存与采购概览
// @Tags 统计
// @Produce json
// @Success 200 {object} response.Response{data=stats.Overview}
// @Router /api/v1/stats/overview [get]
func (h *StatsHandler) Overview(c *gin.Context) {
	overview, err := h.statsService.Overview(c.Request.Context())
	handler.MustSucceed(c, err, overview)
}

// Suppliers 按供应商汇总
// @Summary 按供应商汇总采购
// @Tags 统计
// @Produce json
// @Param start_date query string false "开始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Success 200 {object} response.Response{data=[]stats.SupplierStat}
// @Router /api/v1/stats/suppliers [get]
func (h *StatsHandler) Suppliers(c *gin.Context) {
	start, end, ok := handler.ParseQueryDateRange(c, h.location)
	if !ok {
		return
	}

	result, err := h.statsService.BySupplier(c.Request.Context(), stats.DateRange{Start: start, End: end})
	handler.MustSucceed(c, err, result)
}

// Categories 按分类汇总
// @Summary 按商品分类汇总采购
// @Tags 统计
// @Produce json
// @Param start_date query string false "开始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Success 200 {object} response.Response{data=[]stats.CategoryStat}
// @Router /api/v1/stats/categories [get]
func (h *StatsHandler) Categories(c *gin.Context) {
	start, end, ok := handler.ParseQueryDateRange(c, h.location)
	if !ok {
		return
	}

	result, err := h.statsService.ByCategory(c.Request.Context(), stats.DateRange{Start: start, End: end})
	handler.MustSucceed(c, err, result)
}

// RegisterRoutes 注册路由
func (h *StatsHandler) RegisterRoutes(r *gin.RouterGroup) {
	s := r.Group("/stats")
	{
		s.GET("/overview", h.Overview)
		s.GET("/suppliers", h.Suppliers)
		s.GET("/categories", h.Categories)
	}
}
