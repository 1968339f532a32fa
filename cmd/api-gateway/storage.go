package main

import (
	"github.com/dumeirei/inventory-backend/internal/common/config"
	"github.com/dumeirei/inventory-backend/pkg/oss"
)

// newUploader 按存储配置创建上传器
func newUploader(cfg *config.StorageConfig) (oss.Uploader, error) {
	return oss.New(&oss.Config{
		Provider:        cfg.Provider,
		LocalDir:        cfg.LocalDir,
		PublicURL:       cfg.PublicURL,
		Endpoint:        cfg.Endpoint,
		Region:          cfg.Region,
		AccessKeyID:     cfg.AccessKeyID,
		AccessKeySecret: cfg.AccessKeySecret,
		Bucket:          cfg.Bucket,
		CustomDomain:    cfg.CustomDomain,
		BasePath:        cfg.BasePath,
		UseSSL:          cfg.UseSSL,
	})
}
