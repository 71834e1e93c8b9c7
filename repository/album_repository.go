package repository

import (
	"context"

	"cdstash/model"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AlbumRepository 专辑数据访问接口
// 查询不到时 GetByID 返回 nil, nil；Update/Delete 通过 bool 表示记录是否存在
type AlbumRepository interface {
	// List 返回全部专辑，按年份倒序
	List(ctx context.Context) ([]model.Album, error)
	GetByID(ctx context.Context, id string) (*model.Album, error)
	// Create 写入专辑并回填 ID 与时间戳
	Create(ctx context.Context, album *model.Album) error
	// Update 整体替换专辑，保留创建时间
	Update(ctx context.Context, album *model.Album) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// gormAlbumRepository GORM 实现
type gormAlbumRepository struct {
	db *gorm.DB
}

// NewGormAlbumRepository 创建 GORM 专辑仓库
func NewGormAlbumRepository(db *gorm.DB) AlbumRepository {
	return &gormAlbumRepository{db: db}
}

func (r *gormAlbumRepository) List(ctx context.Context) ([]model.Album, error) {
	var albums []model.Album
	err := r.db.WithContext(ctx).
		Order("year DESC").
		Order("created_at ASC").
		Find(&albums).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list albums")
	}
	for i := range albums {
		albums[i].Normalize()
	}
	return albums, nil
}

func (r *gormAlbumRepository) GetByID(ctx context.Context, id string) (*model.Album, error) {
	var album model.Album
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&album).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to get album %s", id)
	}
	album.Normalize()
	return &album, nil
}

func (r *gormAlbumRepository) Create(ctx context.Context, album *model.Album) error {
	if album.ID == "" {
		album.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(album).Error; err != nil {
		return errors.Wrap(err, "failed to create album")
	}
	return nil
}

func (r *gormAlbumRepository) Update(ctx context.Context, album *model.Album) (bool, error) {
	found := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Album
		if err := tx.Select("id", "created_at").Where("id = ?", album.ID).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		found = true
		album.CreatedAt = existing.CreatedAt
		return tx.Save(album).Error
	})
	if err != nil {
		return false, errors.Wrapf(err, "failed to update album %s", album.ID)
	}
	return found, nil
}

func (r *gormAlbumRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Album{})
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "failed to delete album %s", id)
	}
	return res.RowsAffected > 0, nil
}

func (r *gormAlbumRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Album{}).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count albums")
	}
	return count, nil
}
