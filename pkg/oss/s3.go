package oss

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Uploader AWS S3（及兼容服务）上传器
type S3Uploader struct {
	client   *s3.S3
	uploader *s3manager.Uploader
	config   *Config
}

// NewS3Uploader 创建 S3 上传器
func NewS3Uploader(cfg *Config) (*S3Uploader, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.AccessKeySecret,
			"",
		),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Uploader{
		client:   s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		config:   cfg,
	}, nil
}

// Upload 上传文件
func (u *S3Uploader) Upload(ctx context.Context, objectKey string, reader io.Reader) (string, error) {
	_, err := u.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(u.config.Bucket),
		Key:         aws.String(joinKey(u.config.BasePath, objectKey)),
		Body:        reader,
		ContentType: aws.String(GetContentType(objectKey)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return u.GetURL(objectKey), nil
}

// Delete 删除文件
func (u *S3Uploader) Delete(ctx context.Context, objectKey string) error {
	_, err := u.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.config.Bucket),
		Key:    aws.String(joinKey(u.config.BasePath, objectKey)),
	})
	return err
}

// GetURL 获取文件 URL
func (u *S3Uploader) GetURL(objectKey string) string {
	fullKey := joinKey(u.config.BasePath, objectKey)
	switch {
	case u.config.CustomDomain != "":
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(u.config.CustomDomain, "/"), fullKey)
	case u.config.Endpoint != "":
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(u.config.Endpoint, "/"), u.config.Bucket, fullKey)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.config.Bucket, u.config.Region, fullKey)
	}
}
