// Package inventory 提供库存与采购管理的 HTTP Handler
package inventory

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/inventory-backend/internal/common/errors"
	"github.com/dumeirei/inventory-backend/internal/common/handler"
	"github.com/dumeirei/inventory-backend/internal/common/qrcode"
	"github.com/dumeirei/inventory-backend/internal/common/response"
	"github.com/dumeirei/inventory-backend/internal/service/catalog"
	"github.com/dumeirei/inventory-backend/internal/service/transfer"
)

// DefaultMaxUploadSize 导入文件默认上限（20MB）
const DefaultMaxUploadSize int64 = 20 << 20

// StatsInvalidator 数据变更后清除统计缓存
type StatsInvalidator interface {
	Invalidate(ctx context.Context)
}

// ProductHandler 商品处理器
type ProductHandler struct {
	productService *catalog.ProductService
	importService  *transfer.ImportService
	exportService  *transfer.ExportService
	stats          StatsInvalidator
	labels         *qrcode.Generator
	maxUploadSize  int64
}

// NewProductHandler 创建商品处理器
func NewProductHandler(
	productSvc *catalog.ProductService,
	importSvc *transfer.ImportService,
	exportSvc *transfer.ExportService,
	stats StatsInvalidator,
	maxUploadSize int64,
) *ProductHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &ProductHandler{
		productService: productSvc,
		importService:  importSvc,
		exportService:  exportSvc,
		stats:          stats,
		labels:         qrcode.NewGenerator(),
		maxUploadSize:  maxUploadSize,
	}
}

// List 获取商品列表
// @Summary 获取商品列表
// @Description 按分类过滤，search 配合 scope(all/name/code) 检索，结果按编码自然排序
// @Tags 商品管理
// @Produce json
// @Param category query string false "分类，all 表示全部"
// @Param search query string false "检索词"
// @Param scope query string false "检索范围" Enums(all, name, code)
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=catalog.ProductPage}
// @Router /api/v1/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var q catalog.ProductQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	page, err := h.productService.List(c.Request.Context(), &q)
	handler.MustSucceed(c, err, page)
}

// Create 创建商品
// @Summary 创建商品
// @Tags 商品管理
// @Accept json
// @Produce json
// @Param request body catalog.ProductRequest true "请求参数"
// @Success 201 {object} response.Response{data=models.Product}
// @Router /api/v1/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req catalog.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	product, err := h.productService.Create(c.Request.Context(), &req)
	if handler.HandleError(c, err) {
		return
	}
	h.invalidate(c)
	response.Created(c, product)
}

// Get 获取商品详情
// @Summary 获取商品详情
// @Tags 商品管理
// @Produce json
// @Param id path int true "商品ID"
// @Success 200 {object} response.Response{data=models.Product}
// @Router /api/v1/products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := handler.ParseID(c, "商品")
	if !ok {
		return
	}

	product, err := h.productService.Get(c.Request.Context(), id)
	handler.MustSucceed(c, err, product)
}

// Label 商品标签二维码
// @Summary 获取商品标签二维码
// @Description 内容为 INV: 加商品编码，用于货架扫码
// @Tags 商品管理
// @Produce image/png
// @Param id path int true "商品ID"
// @Param size query int false "边长（像素）" default(256)
// @Success 200 {file} file
// @Router /api/v1/products/{id}/label [get]
func (h *ProductHandler) Label(c *gin.Context) {
	id, ok := handler.ParseID(c, "商品")
	if !ok {
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "0"))

	product, err := h.productService.Get(c.Request.Context(), id)
	if handler.HandleError(c, err) {
		return
	}

	png, err := h.labels.ProductLabelPNG(product.Code, size)
	if err != nil {
		handler.HandleError(c, errors.ErrInternalError.WithError(err))
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "image/png", png)
}

// Update 更新商品
// @Summary 更新商品
// @Description 库存只能通过采购单变更
// @Tags 商品管理
// @Accept json
// @Produce json
// @Param id path int true "商品ID"
// @Param request body catalog.ProductRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Product}
// @Router /api/v1/products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := handler.ParseID(c, "商品")
	if !ok {
		return
	}

	var req catalog.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	product, err := h.productService.Update(c.Request.Context(), id, &req)
	if handler.HandleError(c, err) {
		return
	}
	h.invalidate(c)
	response.Success(c, product)
}

// Delete 删除商品
// @Summary 删除商品
// @Tags 商品管理
// @Produce json
// @Param id path int true "商品ID"
// @Success 200 {object} response.Response
// @Router /api/v1/products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := handler.ParseID(c, "商品")
	if !ok {
		return
	}

	if handler.HandleError(c, h.productService.Delete(c.Request.Context(), id)) {
		return
	}
	h.invalidate(c)
	response.Success(c, nil)
}

// Import 从 Excel 导入商品
// @Summary 导入商品
// @Description 第 3 行起为数据行，按商品编码新增或覆盖，B 列图片上传至对象存储
// @Tags 商品管理
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx 文件"
// @Success 200 {object} response.Response{data=transfer.ImportResult}
// @Router /api/v1/products/import [post]
func (h *ProductHandler) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+1<<20)

	file, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			handler.HandleError(c, errors.ErrImportFileTooLarge)
			return
		}
		handler.HandleError(c, errors.ErrImportFileRequired)
		return
	}
	if file.Size > h.maxUploadSize {
		handler.HandleError(c, errors.ErrImportFileTooLarge.WithMessagef("文件不能超过 %dMB", h.maxUploadSize>>20))
		return
	}

	src, err := file.Open()
	if err != nil {
		handler.HandleError(c, errors.ErrImportParse.WithError(err))
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		handler.HandleError(c, errors.ErrImportParse.WithError(err))
		return
	}

	result, err := h.importService.Import(c.Request.Context(), data)
	if handler.HandleError(c, err) {
		return
	}
	if result.ImportedCount > 0 {
		h.invalidate(c)
	}
	response.Success(c, result)
}

// Export 导出商品
// @Summary 导出商品
// @Tags 商品管理
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param category query string false "分类，all 表示全部"
// @Success 200 {file} file
// @Router /api/v1/products/export [get]
func (h *ProductHandler) Export(c *gin.Context) {
	data, filename, err := h.exportService.ExportProducts(c.Request.Context(), c.Query("category"))
	if handler.HandleError(c, err) {
		return
	}
	sendWorkbook(c, filename, data)
}

// ImportTemplate 下载导入模板
// @Summary 下载商品导入模板
// @Tags 商品管理
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Router /api/v1/products/import-template [get]
func (h *ProductHandler) ImportTemplate(c *gin.Context) {
	data, filename, err := transfer.Template()
	if handler.HandleError(c, err) {
		return
	}
	sendWorkbook(c, filename, data)
}

// RegisterRoutes 注册路由
func (h *ProductHandler) RegisterRoutes(r *gin.RouterGroup) {
	products := r.Group("/products")
	{
		products.GET("", h.List)
		products.POST("", h.Create)
		products.POST("/import", h.Import)
		products.GET("/export", h.Export)
		products.GET("/import-template", h.ImportTemplate)
		products.GET("/:id", h.Get)
		products.GET("/:id/label", h.Label)
		products.PUT("/:id", h.Update)
		products.DELETE("/:id", h.Delete)
	}
}

func (h *ProductHandler) invalidate(c *gin.Context) {
	if h.stats != nil {
		h.stats.Invalidate(c.Request.Context())
	}
}

// sendWorkbook 以附件形式返回 xlsx，文件名按 RFC 5987 编码
func sendWorkbook(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", "attachment; filename=\"export.xlsx\"; filename*=UTF-8''"+url.PathEscape(filename))
	c.Data(http.StatusOK, transfer.ContentType(), data)
}
