package cache

import (
	"context"
	"encoding/json"
	"time"

	"cdstash/logger"
	"cdstash/model"
	"cdstash/repository"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "cdstash:"

// AlbumKey 单张专辑的缓存键
func AlbumKey(id string) string {
	return keyPrefix + "album:" + id
}

// PlaylistKey 单个播放列表的缓存键
func PlaylistKey(id string) string {
	return keyPrefix + "playlist:" + id
}

// entityCache 按实体 ID 读穿缓存，写操作只删除对应 ID 的键
// Redis 出错只记日志，退回到底层仓库
type entityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func (c entityCache) get(ctx context.Context, key string, dst interface{}) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Redis get failed", logger.String("key", key), logger.ErrorField(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		logger.Warn("Dropping undecodable cache entry", logger.String("key", key), logger.ErrorField(err))
		c.invalidate(ctx, key)
		return false
	}
	return true
}

func (c entityCache) set(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logger.Warn("Redis set failed", logger.String("key", key), logger.ErrorField(err))
	}
}

func (c entityCache) invalidate(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		logger.Warn("Redis del failed", logger.String("key", key), logger.ErrorField(err))
	}
}

// ========== 专辑 ==========

type cachedAlbumRepository struct {
	repository.AlbumRepository
	cache entityCache
}

// NewCachedAlbumRepository 为专辑仓库加上 Redis 读穿缓存
func NewCachedAlbumRepository(next repository.AlbumRepository, client *redis.Client, ttl time.Duration) repository.AlbumRepository {
	return &cachedAlbumRepository{AlbumRepository: next, cache: entityCache{client: client, ttl: ttl}}
}

func (r *cachedAlbumRepository) GetByID(ctx context.Context, id string) (*model.Album, error) {
	key := AlbumKey(id)
	var cached model.Album
	if r.cache.get(ctx, key, &cached) {
		logger.Debug("Album cache hit", logger.String("id", id))
		return &cached, nil
	}
	album, err := r.AlbumRepository.GetByID(ctx, id)
	if err != nil || album == nil {
		return album, err
	}
	r.cache.set(ctx, key, album)
	return album, nil
}

func (r *cachedAlbumRepository) Update(ctx context.Context, album *model.Album) (bool, error) {
	found, err := r.AlbumRepository.Update(ctx, album)
	if err == nil {
		r.cache.invalidate(ctx, AlbumKey(album.ID))
	}
	return found, err
}

func (r *cachedAlbumRepository) Delete(ctx context.Context, id string) (bool, error) {
	found, err := r.AlbumRepository.Delete(ctx, id)
	if err == nil {
		r.cache.invalidate(ctx, AlbumKey(id))
	}
	return found, err
}

// ========== 播放列表 ==========

type cachedPlaylistRepository struct {
	repository.PlaylistRepository
	cache entityCache
}

// NewCachedPlaylistRepository 为播放列表仓库加上 Redis 读穿缓存
func NewCachedPlaylistRepository(next repository.PlaylistRepository, client *redis.Client, ttl time.Duration) repository.PlaylistRepository {
	return &cachedPlaylistRepository{PlaylistRepository: next, cache: entityCache{client: client, ttl: ttl}}
}

func (r *cachedPlaylistRepository) GetByID(ctx context.Context, id string) (*model.Playlist, error) {
	key := PlaylistKey(id)
	var cached model.Playlist
	if r.cache.get(ctx, key, &cached) {
		logger.Debug("Playlist cache hit", logger.String("id", id))
		return &cached, nil
	}
	playlist, err := r.PlaylistRepository.GetByID(ctx, id)
	if err != nil || playlist == nil {
		return playlist, err
	}
	r.cache.set(ctx, key, playlist)
	return playlist, nil
}

func (r *cachedPlaylistRepository) Update(ctx context.Context, playlist *model.Playlist) (bool, error) {
	found, err := r.PlaylistRepository.Update(ctx, playlist)
	if err == nil {
		r.cache.invalidate(ctx, PlaylistKey(playlist.ID))
	}
	return found, err
}

func (r *cachedPlaylistRepository) Delete(ctx context.Context, id string) (bool, error) {
	found, err := r.PlaylistRepository.Delete(ctx, id)
	if err == nil {
		r.cache.invalidate(ctx, PlaylistKey(id))
	}
	return found, err
}
