package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"shelter-map/internal/config"
	"shelter-map/internal/logger"
)

// S3Source 从 S3 兼容存储读取数据集对象
type S3Source struct {
	client *minio.Client
	Bucket string
	Key    string
}

// NewS3Source 使用静态凭证连接 MinIO/S3
func NewS3Source(c config.S3) (*S3Source, error) {
	if c.Endpoint == "" || c.AccessKey == "" || c.SecretKey == "" {
		return nil, errors.New("dataset: s3 source needs MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY")
	}
	client, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.AccessKey, c.SecretKey, ""),
		Secure: c.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("dataset: create minio client: %w", err)
	}
	logger.L().Debug("s3_client_ok", "endpoint", c.Endpoint, "bucket", c.Bucket)
	return &S3Source{client: client, Bucket: c.Bucket, Key: c.Key}, nil
}

func (s *S3Source) Name() string { return "s3" }

// Open 先 Stat 再 GetObject，缺失对象在此处即报错而不是在首次 Read 时
func (s *S3Source) Open(ctx context.Context) (io.ReadCloser, error) {
	if _, err := s.client.StatObject(ctx, s.Bucket, s.Key, minio.StatObjectOptions{}); err != nil {
		return nil, fmt.Errorf("dataset: stat s3://%s/%s: %w", s.Bucket, s.Key, err)
	}
	obj, err := s.client.GetObject(ctx, s.Bucket, s.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("dataset: get s3://%s/%s: %w", s.Bucket, s.Key, err)
	}
	return obj, nil
}
