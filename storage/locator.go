package storage

import (
	"context"
	"net/url"
	"strings"
	"time"

	"cdstash/core/apperr"
	"cdstash/model"

	"github.com/cockroachdb/errors"
	"github.com/minio/minio-go/v7"
)

// AudioLocator 把曲目的 audioReference 解析成可播放的 URL
// 绝对 http(s) 地址原样返回，其余视为存储桶中的对象键并生成预签名链接
type AudioLocator struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

// NewAudioLocator client 为 nil 时只能解析绝对 URL
func NewAudioLocator(client *minio.Client, bucket string, expiry time.Duration) *AudioLocator {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &AudioLocator{client: client, bucket: bucket, expiry: expiry}
}

// Locate 解析曲目音频地址；曲目没有音频引用时返回 NotFoundError
func (l *AudioLocator) Locate(ctx context.Context, track model.Track) (string, error) {
	if track.AudioReference == nil || strings.TrimSpace(*track.AudioReference) == "" {
		return "", apperr.NotFound("audio", trackLabel(track))
	}
	ref := strings.TrimSpace(*track.AudioReference)

	if u, err := url.Parse(ref); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return ref, nil
	}

	// 未启用对象存储时对象键无法解析，按音频不存在处理
	if l.client == nil {
		return "", errors.WithHintf(apperr.NotFound("audio", ref),
			"object storage is disabled, set MINIO_ENABLED to resolve object keys")
	}
	key := strings.TrimPrefix(ref, "/")
	presigned, err := l.client.PresignedGetObject(ctx, l.bucket, key, l.expiry, url.Values{})
	if err != nil {
		return "", errors.Wrapf(err, "failed to presign audio object %s", key)
	}
	return presigned.String(), nil
}

func trackLabel(t model.Track) string {
	if t.ID != "" {
		return t.ID
	}
	return t.Title
}
