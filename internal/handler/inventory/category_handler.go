package inventory

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/inventory-backend/internal/common/handler"
	"github.com/dumeirei/inventory-backend/internal/common/response"
	"github.com/dumeirei/inventory-backend/internal/service/catalog"
)

// CategoryHandler 分类处理器
type CategoryHandler struct {
	categoryService *catalog.CategoryService
}

// NewCategoryHandler 创建分类处理器
func NewCategoryHandler(categorySvc *catalog.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categorySvc}
}

// Tree 获取分类树
// @Summary 获取分类树
// @Description 每个节点带直接关联的商品数量
// @Tags 分类管理
// @Produce json
// @Success 200 {object} response.Response{data=[]models.Category}
// @Router /api/v1/categories/tree [get]
func (h *CategoryHandler) Tree(c *gin.Context) {
	tree, err := h.categoryService.Tree(c.Request.Context())
	handler.MustSucceed(c, err, tree)
}

// List 获取分类列表
// @Summary 获取分类列表
// @Tags 分类管理
// @Produce json
// @Success 200 {object} response.Response{data=[]models.Category}
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.categoryService.List(c.Request.Context())
	handler.MustSucceed(c, err, categories)
}

// Create 创建分类
// @Summary 创建分类
// @Tags 分类管理
// @Accept json
// @Produce json
// @Param request body catalog.CategoryRequest true "请求参数"
// @Success 201 {object} response.Response{data=models.Category}
// @Router /api/v1/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req catalog.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	category, err := h.categoryService.Create(c.Request.Context(), &req)
	if handler.HandleError(c, err) {
		return
	}
	response.Created(c, category)
}

// Update 更新分类
// @Summary 更新分类
// @Description 支持改名、排序和移动到其他父分类
// @Tags 分类管理
// @Accept json
// @Produce json
// @Param id path int true "分类ID"
// @Param request body catalog.CategoryRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Category}
// @Router /api/v1/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := handler.ParseID(c, "分类")
	if !ok {
		return
	}

	var req catalog.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	category, err := h.categoryService.Update(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, category)
}

// Delete 删除分类及其子分类
// @Summary 删除分类
// @Tags 分类管理
// @Produce json
// @Param id path int true "分类ID"
// @Success 200 {object} response.Response
// @Router /api/v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := handler.ParseID(c, "分类")
	if !ok {
		return
	}

	err := h.categoryService.Delete(c.Request.Context(), id)
	handler.MustSucceed(c, err, nil)
}

// RegisterRoutes 注册路由
func (h *CategoryHandler) RegisterRoutes(r *gin.RouterGroup) {
	categories := r.Group("/categories")
	{
		categories.GET("/tree", h.Tree)
		categories.GET("", h.List)
		categories.POST("", h.Create)
		categories.PUT("/:id", h.Update)
		categories.DELETE("/:id", h.Delete)
	}
}
