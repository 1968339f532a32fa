package oss

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioUploader MinIO 上传器
type MinioUploader struct {
	client *minio.Client
	config *Config
}

// NewMinioUploader 创建 MinIO 上传器
func NewMinioUploader(cfg *Config) (*MinioUploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.AccessKeySecret, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}
	return &MinioUploader{client: client, config: cfg}, nil
}

// Upload 上传文件，大小未知时由客户端分片上传
func (u *MinioUploader) Upload(ctx context.Context, objectKey string, reader io.Reader) (string, error) {
	_, err := u.client.PutObject(ctx, u.config.Bucket, joinKey(u.config.BasePath, objectKey), reader, -1,
		minio.PutObjectOptions{ContentType: GetContentType(objectKey)})
	if err != nil {
		return "", fmt.Errorf("上传文件失败: %w", err)
	}
	return u.GetURL(objectKey), nil
}

// Delete 删除文件
func (u *MinioUploader) Delete(ctx context.Context, objectKey string) error {
	return u.client.RemoveObject(ctx, u.config.Bucket, joinKey(u.config.BasePath, objectKey), minio.RemoveObjectOptions{})
}

// GetURL 获取文件 URL
func (u *MinioUploader) GetURL(objectKey string) string {
	fullKey := joinKey(u.config.BasePath, objectKey)
	if u.config.CustomDomain != "" {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(u.config.CustomDomain, "/"), fullKey)
	}
	scheme := "http"
	if u.config.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, u.config.Endpoint, u.config.Bucket, fullKey)
}
