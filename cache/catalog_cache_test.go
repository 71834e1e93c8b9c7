package cache

import (
	"context"
	"testing"
	"time"

	"cdstash/model"
	"cdstash/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestCachedAlbumRepositoryScopedInvalidation(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	store := repository.NewMemoryStore()
	raw := store.Albums()
	repo := NewCachedAlbumRepository(raw, client, time.Minute)

	a := &model.Album{Title: "A", Artist: model.StringList{"x"}}
	b := &model.Album{Title: "B", Artist: model.StringList{"y"}}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	_, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	_, err = repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists(AlbumKey(a.ID)))
	assert.True(t, mr.Exists(AlbumKey(b.ID)))

	// 绕过缓存的写入在失效之前不可见
	stale := *a
	stale.Title = "A (direct)"
	_, err = raw.Update(ctx, &stale)
	require.NoError(t, err)
	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Title)

	a.Title = "A2"
	found, err := repo.Update(ctx, a)
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, mr.Exists(AlbumKey(a.ID)))
	assert.True(t, mr.Exists(AlbumKey(b.ID)))

	got, err = repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A2", got.Title)

	_, err = repo.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, mr.Exists(AlbumKey(a.ID)))
	got, err = repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists(AlbumKey(a.ID)))
}

func TestCachedAlbumRepositorySetsTTL(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	repo := NewCachedAlbumRepository(repository.NewMemoryStore().Albums(), client, 30*time.Second)

	a := &model.Album{Title: "A", Artist: model.StringList{"x"}}
	require.NoError(t, repo.Create(ctx, a))
	_, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, mr.TTL(AlbumKey(a.ID)))

	mr.FastForward(31 * time.Second)
	assert.False(t, mr.Exists(AlbumKey(a.ID)))
}

func TestCachedAlbumRepositoryFallsBackWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	repo := NewCachedAlbumRepository(repository.NewMemoryStore().Albums(), client, time.Minute)

	a := &model.Album{Title: "A", Artist: model.StringList{"x"}}
	require.NoError(t, repo.Create(ctx, a))
	mr.Close()

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "A", got.Title)
}

func TestCachedAlbumRepositoryDropsCorruptEntry(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	repo := NewCachedAlbumRepository(repository.NewMemoryStore().Albums(), client, time.Minute)

	a := &model.Album{Title: "A", Artist: model.StringList{"x"}}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, mr.Set(AlbumKey(a.ID), "{not json"))

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Title)
}

func TestCachedPlaylistRepository(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	repo := NewCachedPlaylistRepository(repository.NewMemoryStore().Playlists(), client, time.Minute)

	p := &model.Playlist{Name: "Mix", Tracks: []model.PlaylistTrackRef{{AlbumID: "a", TrackIndex: 1}}}
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Tracks, got.Tracks)
	assert.True(t, mr.Exists(PlaylistKey(p.ID)))

	p.Tracks = nil
	_, err = repo.Update(ctx, p)
	require.NoError(t, err)
	assert.False(t, mr.Exists(PlaylistKey(p.ID)))

	got, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tracks)

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.False(t, mr.Exists(PlaylistKey("nope")))
}

func TestCheckRedis(t *testing.T) {
	_, client := newRedis(t)
	assert.NoError(t, CheckRedis(context.Background(), client))
	assert.Error(t, CheckRedis(context.Background(), nil))
}
