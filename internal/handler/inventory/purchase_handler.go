package inventory

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/inventory-backend/internal/common/handler"
	"github.com/dumeirei/inventory-backend/internal/common/response"
	"github.com/dumeirei/inventory-backend/internal/service/purchase"
	"github.com/dumeirei/inventory-backend/internal/service/transfer"
)

// PurchaseHandler 采购单处理器
type PurchaseHandler struct {
	purchaseService *purchase.PurchaseService
	exportService   *transfer.ExportService
	stats           StatsInvalidator
}

// NewPurchaseHandler 创建采购单处理器
func NewPurchaseHandler(purchaseSvc *purchase.PurchaseService, exportSvc *transfer.ExportService, stats StatsInvalidator) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseSvc,
		exportService:   exportSvc,
		stats:           stats,
	}
}

// purchaseFilter 解析列表与导出共用的筛选条件
func (h *PurchaseHandler) purchaseFilter(c *gin.Context) (*transfer.PurchaseExportParams, bool) {
	supplierID, ok := handler.ParseQueryID(c, "supplier_id", "供应商")
	if !ok {
		return nil, false
	}
	start, end, ok := handler.ParseQueryDateRange(c, h.purchaseService.Location())
	if !ok {
		return nil, false
	}

	params := &transfer.PurchaseExportParams{
		OrderNo:   c.Query("order_no"),
		StartDate: start,
		EndDate:   end,
	}
	if supplierID != nil {
		params.SupplierID = *supplierID
	}
	return params, true
}

// List 获取采购单列表
// @Summary 获取采购单列表
// @Tags 采购管理
// @Produce json
// @Param supplier_id query int false "供应商ID"
// @Param order_no query string false "采购单号（模糊匹配）"
// @Param start_date query string false "开始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.Purchase}}
// @Router /api/v1/purchases [get]
func (h *PurchaseHandler) List(c *gin.Context) {
	filter, ok := h.purchaseFilter(c)
	if !ok {
		return
	}
	p := handler.BindPagination(c)

	purchases, total, err := h.purchaseService.List(c.Request.Context(), &purchase.ListRequest{
		Page:       p.Page,
		PageSize:   p.PageSize,
		SupplierID: filter.SupplierID,
		OrderNo:    filter.OrderNo,
		StartDate:  filter.StartDate,
		EndDate:    filter.EndDate,
	})
	handler.MustSucceedPage(c, err, purchases, total, p.Page, p.PageSize)
}

// Create 创建采购单
// @Summary 创建采购单
// @Description 生成当日顺序单号并在同一事务内为每条明细增加库存
// @Tags 采购管理
// @Accept json
// @Produce json
// @Param request body purchase.CreateRequest true "请求参数"
// @Success 201 {object} response.Response{data=models.Purchase}
// @Router /api/v1/purchases [post]
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req purchase.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	created, err := h.purchaseService.Create(c.Request.Context(), &req)
	if handler.HandleError(c, err) {
		return
	}
	h.invalidate(c)
	response.Created(c, created)
}

// Get 获取采购单详情
// @Summary 获取采购单详情
// @Tags 采购管理
// @Produce json
// @Param id path int true "采购单ID"
// @Success 200 {object} response.Response{data=models.Purchase}
// @Router /api/v1/purchases/{id} [get]
func (h *PurchaseHandler) Get(c *gin.Context) {
	id, ok := handler.ParseID(c, "采购单")
	if !ok {
		return
	}

	p, err := h.purchaseService.Get(c.Request.Context(), id)
	handler.MustSucceed(c, err, p)
}

// Delete 删除采购单
// @Summary 删除采购单
// @Description 回滚每条明细对应的库存后删除
// @Tags 采购管理
// @Produce json
// @Param id path int true "采购单ID"
// @Success 200 {object} response.Response
// @Router /api/v1/purchases/{id} [delete]
func (h *PurchaseHandler) Delete(c *gin.Context) {
	id, ok := handler.ParseID(c, "采购单")
	if !ok {
		return
	}

	if handler.HandleError(c, h.purchaseService.Delete(c.Request.Context(), id)) {
		return
	}
	h.invalidate(c)
	response.Success(c, nil)
}

// Export 导出采购单
// @Summary 导出采购单
// @Tags 采购管理
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param supplier_id query int false "供应商ID"
// @Param order_no query string false "采购单号"
// @Param start_date query string false "开始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Success 200 {file} file
// @Router /api/v1/purchases/export [get]
func (h *PurchaseHandler) Export(c *gin.Context) {
	filter, ok := h.purchaseFilter(c)
	if !ok {
		return
	}

	data, filename, err := h.exportService.ExportPurchases(c.Request.Context(), filter)
	if handler.HandleError(c, err) {
		return
	}
	sendWorkbook(c, filename, data)
}

// RegisterRoutes 注册路由
func (h *PurchaseHandler) RegisterRoutes(r *gin.RouterGroup) {
	purchases := r.Group("/purchases")
	{
		purchases.GET("", h.List)
		purchases.POST("", h.Create)
		purchases.GET("/export", h.Export)
		purchases.GET("/:id", h.Get)
		purchases.DELETE("/:id", h.Delete)
	}
}

func (h *PurchaseHandler) invalidate(c *gin.Context) {
	if h.stats != nil {
		h.stats.Invalidate(c.Request.Context())
	}
}
