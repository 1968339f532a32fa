// Package upload 提供文件上传相关的 HTTP Handler
package upload

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/inventory-backend/internal/common/handler"
	"github.com/dumeirei/inventory-backend/internal/common/response"
	"github.com/dumeirei/inventory-backend/internal/middleware"
	uploadService "github.com/dumeirei/inventory-backend/internal/service/upload"
)

// Handler 上传处理器
type Handler struct {
	uploadService *uploadService.UploadService
}

// NewHandler 创建上传处理器
func NewHandler(uploadSvc *uploadService.UploadService) *Handler {
	return &Handler{
		uploadService: uploadSvc,
	}
}

// UploadImage 上传商品图片或采购凭证
// @Summary 上传图片
// @Description 支持 jpg/jpeg/png/gif/webp 格式，最大 10MB，返回可直接写入商品 images 或采购单 photos 的地址
// @Tags 文件上传
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "图片文件"
// @Param folder formData string false "上传目录" default(products) Enums(products, purchases)
// @Success 200 {object} response.Response{data=uploadService.UploadImageResponse}
// @Router /api/v1/uploads/images [post]
func (h *Handler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "请选择要上传的文件")
		return
	}

	req := &uploadService.UploadImageRequest{
		File:   file,
		Folder: c.PostForm("folder"),
	}

	result, err := h.uploadService.UploadImage(c.Request.Context(), req)
	handler.MustSucceed(c, err, result)
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/uploads/images", middleware.RequestSizeLimiter(uploadService.MaxImageSize+1<<20), h.UploadImage)
}
