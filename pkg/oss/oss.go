// Package oss 对象存储服务
package oss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Uploader 上传器接口
type Uploader interface {
	Upload(ctx context.Context, objectKey string, reader io.Reader) (string, error)
	Delete(ctx context.Context, objectKey string) error
	GetURL(objectKey string) string
}

// Provider 存储提供方
const (
	ProviderLocal  = "local"
	ProviderAliyun = "aliyun"
	ProviderMinio  = "minio"
	ProviderS3     = "s3"
	ProviderMock   = "mock"
)

// Config 存储配置
type Config struct {
	Provider        string
	LocalDir        string
	PublicURL       string
	Endpoint        string
	Region          string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CustomDomain    string // 自定义域名（可选）
	BasePath        string // 基础路径，如 "uploads/"
	UseSSL          bool
}

// New 根据配置创建上传器
func New(cfg *Config) (Uploader, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderLocal:
		return NewLocalUploader(cfg.LocalDir, cfg.PublicURL)
	case ProviderAliyun:
		return NewAliyunUploader(&AliyunConfig{
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			AccessKeySecret: cfg.AccessKeySecret,
			BucketName:      cfg.Bucket,
			Domain:          cfg.CustomDomain,
			BasePath:        cfg.BasePath,
		})
	case ProviderMinio:
		return NewMinioUploader(cfg)
	case ProviderS3:
		return NewS3Uploader(cfg)
	case ProviderMock:
		return NewMockUploader(), nil
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
}

// GenerateObjectKey 生成对象键
func GenerateObjectKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]

	return fmt.Sprintf("%s/%s/%s%s",
		strings.Trim(prefix, "/"),
		time.Now().Format("2006/01/02"),
		id,
		ext,
	)
}

// GetContentType 根据文件扩展名获取 Content-Type
func GetContentType(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	contentTypes := map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".gif":  "image/gif",
		".webp": "image/webp",
		".bmp":  "image/bmp",
		".xls":  "application/vnd.ms-excel",
		".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}

	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ValidateImageFile 验证图片文件，reader 读取后需由调用方重置
func ValidateImageFile(filename string, reader io.Reader) error {
	ext := strings.ToLower(path.Ext(filename))
	validExts := map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	}
	if !validExts[ext] {
		return fmt.Errorf("不支持的图片格式: %s", ext)
	}

	// 读取文件头判断真实类型
	header := make([]byte, 512)
	n, err := io.ReadFull(reader, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("读取文件失败: %w", err)
	}

	contentType := http.DetectContentType(header[:n])
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("文件不是有效的图片")
	}

	return nil
}

func joinKey(basePath, objectKey string) string {
	if basePath == "" {
		return objectKey
	}
	return path.Join(basePath, objectKey)
}
