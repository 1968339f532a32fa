package oss

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// AliyunConfig 阿里云 OSS 配置
type AliyunConfig struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	BucketName      string
	Domain          string
	BasePath        string
}

// AliyunUploader 阿里云 OSS 上传器
type AliyunUploader struct {
	bucket *oss.Bucket
	config *AliyunConfig
}

// NewAliyunUploader 创建阿里云 OSS 上传器
func NewAliyunUploader(config *AliyunConfig) (*AliyunUploader, error) {
	client, err := oss.New(config.Endpoint, config.AccessKeyID, config.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("创建 OSS 客户端失败: %w", err)
	}

	bucket, err := client.Bucket(config.BucketName)
	if err != nil {
		return nil, fmt.Errorf("获取 Bucket 失败: %w", err)
	}

	return &AliyunUploader{bucket: bucket, config: config}, nil
}

// Upload 上传文件
func (u *AliyunUploader) Upload(ctx context.Context, objectKey string, reader io.Reader) (string, error) {
	fullKey := joinKey(u.config.BasePath, objectKey)

	err := u.bucket.PutObject(fullKey, reader,
		oss.ContentType(GetContentType(objectKey)),
		oss.WithContext(ctx),
	)
	if err != nil {
		return "", fmt.Errorf("上传文件失败: %w", err)
	}

	return u.GetURL(objectKey), nil
}

// Delete 删除文件
func (u *AliyunUploader) Delete(ctx context.Context, objectKey string) error {
	return u.bucket.DeleteObject(joinKey(u.config.BasePath, objectKey), oss.WithContext(ctx))
}

// GetURL 获取文件 URL
func (u *AliyunUploader) GetURL(objectKey string) string {
	fullKey := joinKey(u.config.BasePath, objectKey)

	if u.config.Domain != "" {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(u.config.Domain, "/"), fullKey)
	}

	return fmt.Sprintf("https://%s.%s/%s", u.config.BucketName, u.config.Endpoint, fullKey)
}
