package oss

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrMockUpload 模拟上传失败
var ErrMockUpload = errors.New("mock upload failure")

// MockUploader 模拟上传器（用于开发/测试）
type MockUploader struct {
	mu    sync.Mutex
	Files map[string][]byte
	// FailKeys 命中时 Upload 返回 ErrMockUpload
	FailKeys func(objectKey string) bool
}

// NewMockUploader 创建模拟上传器
func NewMockUploader() *MockUploader {
	return &MockUploader{
		Files: make(map[string][]byte),
	}
}

// Upload 模拟上传
func (u *MockUploader) Upload(ctx context.Context, objectKey string, reader io.Reader) (string, error) {
	if u.FailKeys != nil && u.FailKeys(objectKey) {
		return "", ErrMockUpload
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	u.mu.Lock()
	u.Files[objectKey] = data
	u.mu.Unlock()
	return u.GetURL(objectKey), nil
}

// Delete 模拟删除
func (u *MockUploader) Delete(ctx context.Context, objectKey string) error {
	u.mu.Lock()
	delete(u.Files, objectKey)
	u.mu.Unlock()
	return nil
}

// GetURL 获取模拟 URL
func (u *MockUploader) GetURL(objectKey string) string {
	return fmt.Sprintf("https://mock-oss.example.com/%s", objectKey)
}

// Count 已上传文件数
func (u *MockUploader) Count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.Files)
}
