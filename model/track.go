package model

import (
	"strings"

	"github.com/creasty/defaults"
)

// Track 专辑中的一首曲目
// 既可以内嵌在 Album.Tracks 中，也可以作为独立记录通过 AlbumID 关联
type Track struct {
	ID             string     `json:"id,omitempty" bson:"id,omitempty" gorm:"primaryKey;size:36"`
	AlbumID        string     `json:"albumId,omitempty" bson:"album_id,omitempty" gorm:"size:36;not null;uniqueIndex:idx_album_disc_track"`
	Title          string     `json:"title" bson:"title" gorm:"size:255;not null" validate:"required"`
	Duration       *string    `json:"duration" bson:"duration" gorm:"size:16" validate:"omitempty,duration"`
	TrackNumber    int        `json:"trackNumber" bson:"track_no" gorm:"not null;uniqueIndex:idx_album_disc_track" validate:"gte=0"`
	DiscNumber     int        `json:"discNumber" bson:"disc_no" gorm:"not null;default:1;uniqueIndex:idx_album_disc_track" default:"1" validate:"gte=0"`
	Artists        StringList `json:"artists,omitempty" bson:"artists,omitempty" gorm:"type:text"`
	AudioReference *string    `json:"audioReference" bson:"audio_url" gorm:"size:1024"`
}

// TableName 指定表名
func (Track) TableName() string {
	return "tracks"
}

// normalize 填充默认值，position 为曲目在专辑中的下标
func (t *Track) normalize(position int) {
	t.Title = strings.TrimSpace(t.Title)
	if t.TrackNumber == 0 {
		t.TrackNumber = position + 1
	}
	// 只覆盖零值；default 标签写错属于编程错误，直接 panic
	defaults.MustSet(t)
	if t.Duration != nil {
		d := strings.TrimSpace(*t.Duration)
		if d == "" {
			t.Duration = nil
		} else {
			t.Duration = &d
		}
	}
	if t.AudioReference != nil && strings.TrimSpace(*t.AudioReference) == "" {
		t.AudioReference = nil
	}
	if t.Artists == nil {
		t.Artists = StringList{}
	}
}

// Normalize 独立曲目入库前的规范化
func (t *Track) Normalize() {
	t.normalize(0)
}

// TrackLess 按碟号、曲目号排序
func TrackLess(a, b Track) bool {
	if a.DiscNumber != b.DiscNumber {
		return a.DiscNumber < b.DiscNumber
	}
	return a.TrackNumber < b.TrackNumber
}
