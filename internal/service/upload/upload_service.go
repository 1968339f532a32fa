// Package upload 提供图片上传服务
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/dumeirei/inventory-backend/internal/common/errors"
	"github.com/dumeirei/inventory-backend/internal/common/logger"
	"github.com/dumeirei/inventory-backend/pkg/oss"
)

// MaxImageSize 图片最大大小（10MB）
const MaxImageSize = 10 * 1024 * 1024

// 允许的上传目录
var allowedFolders = map[string]bool{
	"products":  true,
	"purchases": true,
}

// UploadService 上传服务
type UploadService struct {
	uploader oss.Uploader
}

// NewUploadService 创建上传服务
func NewUploadService(uploader oss.Uploader) *UploadService {
	return &UploadService{uploader: uploader}
}

// UploadImageRequest 上传图片请求
type UploadImageRequest struct {
	File   *multipart.FileHeader
	Folder string // products 商品图片, purchases 采购凭证
}

// UploadImageResponse 上传图片响应
type UploadImageResponse struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
}

// UploadImage 上传商品图片或采购凭证
func (s *UploadService) UploadImage(ctx context.Context, req *UploadImageRequest) (*UploadImageResponse, error) {
	if req.File == nil {
		return nil, errors.ErrInvalidParams.WithMessage("请选择要上传的文件")
	}
	if req.File.Size > MaxImageSize {
		return nil, errors.ErrInvalidParams.WithMessagef("图片大小不能超过 %dMB", MaxImageSize/(1024*1024))
	}

	folder := req.Folder
	if folder == "" {
		folder = "products"
	}
	if !allowedFolders[folder] {
		return nil, errors.ErrInvalidParams.WithMessage(fmt.Sprintf("不支持的上传目录: %s", folder))
	}

	file, err := req.File.Open()
	if err != nil {
		return nil, errors.ErrOperationFailed.WithMessage("无法打开文件").WithError(err)
	}
	defer file.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, file); err != nil {
		return nil, errors.ErrOperationFailed.WithMessage("读取文件失败").WithError(err)
	}

	reader := bytes.NewReader(buf.Bytes())
	if err := oss.ValidateImageFile(req.File.Filename, reader); err != nil {
		return nil, errors.ErrInvalidParams.WithMessage("文件格式不正确：仅支持 jpg/jpeg/png/gif/webp 格式").WithError(err)
	}
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return nil, errors.ErrOperationFailed.WithError(err)
	}

	objectKey := oss.GenerateObjectKey(folder, req.File.Filename)
	url, err := s.uploader.Upload(ctx, objectKey, reader)
	if err != nil {
		logger.Error("image upload failed", logger.String("key", objectKey), logger.Err(err))
		return nil, errors.ErrStorageError.WithMessage("上传文件失败").WithError(err)
	}

	return &UploadImageResponse{
		URL:      url,
		FileName: req.File.Filename,
		Size:     req.File.Size,
	}, nil
}
