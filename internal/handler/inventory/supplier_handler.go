package inventory

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/inventory-backend/internal/common/handler"
	"github.com/dumeirei/inventory-backend/internal/common/response"
	"github.com/dumeirei/inventory-backend/internal/service/supplier"
)

// SupplierHandler 供应商处理器
type SupplierHandler struct {
	supplierService *supplier.SupplierService
}

// NewSupplierHandler 创建供应商处理器
func NewSupplierHandler(supplierSvc *supplier.SupplierService) *SupplierHandler {
	return &SupplierHandler{supplierService: supplierSvc}
}

// List 获取供应商列表
// @Summary 获取供应商列表
// @Tags 供应商管理
// @Produce json
// @Param keyword query string false "名称/联系人/电话关键字"
// @Param type query string false "供应商类型"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.Supplier}}
// @Router /api/v1/suppliers [get]
func (h *SupplierHandler) List(c *gin.Context) {
	p := handler.BindPagination(c)

	suppliers, total, err := h.supplierService.List(c.Request.Context(), p.Page, p.PageSize, c.Query("keyword"), c.Query("type"))
	handler.MustSucceedPage(c, err, suppliers, total, p.Page, p.PageSize)
}

// Create 创建供应商
// @Summary 创建供应商
// @Tags 供应商管理
// @Accept json
// @Produce json
// @Param request body supplier.SupplierRequest true "请求参数"
// @Success 201 {object} response.Response{data=models.Supplier}
// @Router /api/v1/suppliers [post]
func (h *SupplierHandler) Create(c *gin.Context) {
	var req supplier.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	s, err := h.supplierService.Create(c.Request.Context(), &req)
	if handler.HandleError(c, err) {
		return
	}
	response.Created(c, s)
}

// Get 获取供应商详情
// @Summary 获取供应商详情
// @Tags 供应商管理
// @Produce json
// @Param id path int true "供应商ID"
// @Success 200 {object} response.Response{data=models.Supplier}
// @Router /api/v1/suppliers/{id} [get]
func (h *SupplierHandler) Get(c *gin.Context) {
	id, ok := handler.ParseID(c, "供应商")
	if !ok {
		return
	}

	s, err := h.supplierService.Get(c.Request.Context(), id)
	handler.MustSucceed(c, err, s)
}

// Update 更新供应商
// @Summary 更新供应商
// @Tags 供应商管理
// @Accept json
// @Produce json
// @Param id path int true "供应商ID"
// @Param request body supplier.SupplierRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Supplier}
// @Router /api/v1/suppliers/{id} [put]
func (h *SupplierHandler) Update(c *gin.Context) {
	id, ok := handler.ParseID(c, "供应商")
	if !ok {
		return
	}

	var req supplier.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	s, err := h.supplierService.Update(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, s)
}

// Delete 删除供应商
// @Summary 删除供应商
// @Description 存在关联采购单时拒绝删除
// @Tags 供应商管理
// @Produce json
// @Param id path int true "供应商ID"
// @Success 200 {object} response.Response
// @Router /api/v1/suppliers/{id} [delete]
func (h *SupplierHandler) Delete(c *gin.Context) {
	id, ok := handler.ParseID(c, "供应商")
	if !ok {
		return
	}

	err := h.supplierService.Delete(c.Request.Context(), id)
	handler.MustSucceed(c, err, nil)
}

// RegisterRoutes 注册路由
func (h *SupplierHandler) RegisterRoutes(r *gin.RouterGroup) {
	suppliers := r.Group("/suppliers")
	{
		suppliers.GET("", h.List)
		suppliers.POST("", h.Create)
		suppliers.GET("/:id", h.Get)
		suppliers.PUT("/:id", h.Update)
		suppliers.DELETE("/:id", h.Delete)
	}
}
