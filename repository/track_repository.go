package repository

import (
	"context"

	"cdstash/model"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TrackRepository 独立存储的曲目（通过 album_id 关联专辑）
type TrackRepository interface {
	// ListByAlbum 按碟号、曲目号升序返回
	ListByAlbum(ctx context.Context, albumID string) ([]model.Track, error)
	GetByID(ctx context.Context, id string) (*model.Track, error)
	// ReplaceForAlbum 删除专辑现有曲目后写入新曲目
	ReplaceForAlbum(ctx context.Context, albumID string, tracks []model.Track) error
	DeleteByAlbum(ctx context.Context, albumID string) (int64, error)
}

type gormTrackRepository struct {
	db *gorm.DB
}

// NewGormTrackRepository 创建 GORM 曲目仓库
func NewGormTrackRepository(db *gorm.DB) TrackRepository {
	return &gormTrackRepository{db: db}
}

func (r *gormTrackRepository) ListByAlbum(ctx context.Context, albumID string) ([]model.Track, error) {
	var tracks []model.Track
	err := r.db.WithContext(ctx).
		Where("album_id = ?", albumID).
		Order("disc_number ASC").
		Order("track_number ASC").
		Find(&tracks).Error
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list tracks of album %s", albumID)
	}
	return tracks, nil
}

func (r *gormTrackRepository) GetByID(ctx context.Context, id string) (*model.Track, error) {
	var track model.Track
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&track).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to get track %s", id)
	}
	return &track, nil
}

func (r *gormTrackRepository) ReplaceForAlbum(ctx context.Context, albumID string, tracks []model.Track) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("album_id = ?", albumID).Delete(&model.Track{}).Error; err != nil {
			return err
		}
		if len(tracks) == 0 {
			return nil
		}
		for i := range tracks {
			tracks[i].AlbumID = albumID
			if tracks[i].ID == "" {
				tracks[i].ID = uuid.NewString()
			}
		}
		return tx.Create(&tracks).Error
	})
	if err != nil {
		return errors.Wrapf(err, "failed to replace tracks of album %s", albumID)
	}
	return nil
}

func (r *gormTrackRepository) DeleteByAlbum(ctx context.Context, albumID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("album_id = ?", albumID).Delete(&model.Track{})
	if res.Error != nil {
		return 0, errors.Wrapf(res.Error, "failed to delete tracks of album %s", albumID)
	}
	return res.RowsAffected, nil
}
