package storage

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"cdstash/config"
	"cdstash/core/apperr"
	"cdstash/model"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ref(s string) *string { return &s }

func offlineClient(t *testing.T) *AudioLocator {
	t.Helper()
	// 设置了 Region，预签名时不会向服务端查询存储桶位置
	client, err := NewMinioClient(&config.Config{
		MinioEndpoint:  "minio.example.com:9000",
		MinioAccessKey: "AKIAEXAMPLE",
		MinioSecretKey: "secret",
		MinioRegion:    "us-east-1",
	})
	require.NoError(t, err)
	return NewAudioLocator(client, "cdstash", 15*time.Minute)
}

func TestLocateAbsoluteURL(t *testing.T) {
	l := NewAudioLocator(nil, "", 0)
	got, err := l.Locate(context.Background(), model.Track{AudioReference: ref("https://cdn.example.com/a.mp3")})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.mp3", got)
}

func TestLocateMissingReference(t *testing.T) {
	l := NewAudioLocator(nil, "", 0)
	for _, tr := range []model.Track{{ID: "t1"}, {ID: "t2", AudioReference: ref("  ")}} {
		_, err := l.Locate(context.Background(), tr)
		assert.True(t, apperr.IsNotFound(err))
	}
}

func TestLocateObjectKeyWithoutStorage(t *testing.T) {
	l := NewAudioLocator(nil, "", 0)
	_, err := l.Locate(context.Background(), model.Track{AudioReference: ref("audio/a.mp3")})
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
	assert.Contains(t, errors.FlattenHints(err), "MINIO_ENABLED")

	status, body := apperr.ToBody(err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, `audio "audio/a.mp3" not found`, body.Message)
}

func TestLocatePresignsObjectKey(t *testing.T) {
	l := offlineClient(t)
	got, err := l.Locate(context.Background(), model.Track{AudioReference: ref("/audio/nevermind/01.mp3")})
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "minio.example.com:9000", u.Host)
	assert.Equal(t, "/cdstash/audio/nevermind/01.mp3", u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}
