package storage

import (
	"context"
	"time"

	"cdstash/config"
	"cdstash/logger"

	"github.com/cockroachdb/errors"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// NewMinioClient 按配置创建 MinIO 客户端，不发起网络请求
func NewMinioClient(cfg *config.Config) (*minio.Client, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, errors.Wrap(err, "创建 MinIO 客户端失败")
	}
	return client, nil
}

// InitMinio 连接 MinIO 并确保音频存储桶存在
func InitMinio(cfg *config.Config) (*minio.Client, error) {
	logger.Info("正在连接 MinIO 服务器...",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))

	client, err := NewMinioClient(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, errors.Wrap(err, "检查存储桶失败")
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, errors.Wrap(err, "创建存储桶失败")
		}
		logger.Info("成功创建存储桶", logger.String("bucket", cfg.MinioBucket))
	} else {
		logger.Info("存储桶已存在", logger.String("bucket", cfg.MinioBucket))
	}
	return client, nil
}
