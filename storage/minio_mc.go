package storage

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/minio/minio-go/v7"
)

// BucketStats 存储桶统计信息
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
	ByKind       map[string]int64 // audio / image / other 的对象数
}

// ObjectInfo 文件信息
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Kind 根据 ContentType 或扩展名归类
func (o ObjectInfo) Kind() string {
	switch {
	case strings.HasPrefix(o.ContentType, "audio/"):
		return "audio"
	case strings.HasPrefix(o.ContentType, "image/"):
		return "image"
	}
	return inferKind(o.Key)
}

// BucketBrowser 浏览音频存储桶，供 CLI 使用
type BucketBrowser struct {
	client *minio.Client
	bucket string
}

// NewBucketBrowser 创建存储桶浏览器
func NewBucketBrowser(client *minio.Client, bucket string) *BucketBrowser {
	return &BucketBrowser{client: client, bucket: bucket}
}

// List 列出前缀下的对象并汇总统计
func (b *BucketBrowser) List(ctx context.Context, prefix string, recursive bool) ([]ObjectInfo, *BucketStats, error) {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return nil, nil, errors.Wrap(err, "检查存储桶是否存在失败")
	}
	if !exists {
		return nil, nil, errors.Newf("存储桶 %s 不存在", b.bucket)
	}

	var objects []ObjectInfo
	for object := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: recursive,
	}) {
		if object.Err != nil {
			return nil, nil, errors.Wrap(object.Err, "列出对象时出错")
		}
		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
		})
	}
	return objects, Summarize(objects), nil
}

// Summarize 汇总对象列表
func Summarize(objects []ObjectInfo) *BucketStats {
	stats := &BucketStats{ByKind: make(map[string]int64)}
	for _, o := range objects {
		stats.TotalObjects++
		stats.TotalSize += o.Size
		if o.LastModified.After(stats.LastModified) {
			stats.LastModified = o.LastModified
		}
		stats.ByKind[o.Kind()]++
	}
	return stats
}

// inferKind 从文件名推断类型
func inferKind(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".mp3", ".wav", ".flac", ".m4a", ".ogg", ".aac":
		return "audio"
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return "image"
	default:
		return "other"
	}
}
