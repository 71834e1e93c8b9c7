package repository

import (
	"context"

	"cdstash/model"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlaylistRepository 播放列表数据访问接口
type PlaylistRepository interface {
	// List 按创建时间升序返回
	List(ctx context.Context) ([]model.Playlist, error)
	GetByID(ctx context.Context, id string) (*model.Playlist, error)
	Create(ctx context.Context, playlist *model.Playlist) error
	// Update 替换名称、描述与条目，created_at 不变
	Update(ctx context.Context, playlist *model.Playlist) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type gormPlaylistRepository struct {
	db *gorm.DB
}

// NewGormPlaylistRepository 创建 GORM 播放列表仓库
func NewGormPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &gormPlaylistRepository{db: db}
}

func (r *gormPlaylistRepository) List(ctx context.Context) ([]model.Playlist, error) {
	var playlists []model.Playlist
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&playlists).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list playlists")
	}
	for i := range playlists {
		playlists[i].Normalize()
	}
	return playlists, nil
}

func (r *gormPlaylistRepository) GetByID(ctx context.Context, id string) (*model.Playlist, error) {
	var playlist model.Playlist
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&playlist).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to get playlist %s", id)
	}
	playlist.Normalize()
	return &playlist, nil
}

func (r *gormPlaylistRepository) Create(ctx context.Context, playlist *model.Playlist) error {
	if playlist.ID == "" {
		playlist.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(playlist).Error; err != nil {
		return errors.Wrap(err, "failed to create playlist")
	}
	return nil
}

func (r *gormPlaylistRepository) Update(ctx context.Context, playlist *model.Playlist) (bool, error) {
	found := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Playlist
		if err := tx.Select("id", "created_at").Where("id = ?", playlist.ID).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		found = true
		playlist.CreatedAt = existing.CreatedAt
		return tx.Save(playlist).Error
	})
	if err != nil {
		return false, errors.Wrapf(err, "failed to update playlist %s", playlist.ID)
	}
	return found, nil
}

func (r *gormPlaylistRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Playlist{})
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "failed to delete playlist %s", id)
	}
	return res.RowsAffected > 0, nil
}
