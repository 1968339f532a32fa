package oss

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalUploader 本地磁盘上传器，文件通过静态路由对外提供
type LocalUploader struct {
	dir       string
	publicURL string
}

// NewLocalUploader 创建本地上传器
func NewLocalUploader(dir, publicURL string) (*LocalUploader, error) {
	if dir == "" {
		dir = "./uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}
	return &LocalUploader{
		dir:       dir,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

// Dir 返回存储根目录
func (u *LocalUploader) Dir() string {
	return u.dir
}

// Upload 写入文件
func (u *LocalUploader) Upload(ctx context.Context, objectKey string, reader io.Reader) (string, error) {
	target, err := u.resolve(objectKey)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("创建目录失败: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("创建文件失败: %w", err)
	}
	if _, err := io.Copy(f, reader); err != nil {
		f.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("写入文件失败: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("写入文件失败: %w", err)
	}

	return u.GetURL(objectKey), nil
}

// Delete 删除文件，不存在时忽略
func (u *LocalUploader) Delete(ctx context.Context, objectKey string) error {
	target, err := u.resolve(objectKey)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// GetURL 获取文件 URL
func (u *LocalUploader) GetURL(objectKey string) string {
	return u.publicURL + "/" + strings.TrimPrefix(path.Clean("/"+objectKey), "/")
}

func (u *LocalUploader) resolve(objectKey string) (string, error) {
	cleaned := path.Clean("/" + objectKey)
	if cleaned == "/" || strings.Contains(objectKey, "..") {
		return "", fmt.Errorf("非法的对象键: %q", objectKey)
	}
	return filepath.Join(u.dir, filepath.FromSlash(strings.TrimPrefix(cleaned, "/"))), nil
}
