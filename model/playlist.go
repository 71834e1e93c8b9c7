package model

import (
	"strings"
	"time"

	"github.com/creasty/defaults"
)

// PlaylistTrackRef 播放列表条目：指向某张专辑曲目列表中的位置
// TrackIndex 是专辑内的下标，不是稳定的曲目标识
type PlaylistTrackRef struct {
	AlbumID    string `json:"albumId" bson:"albumId" validate:"required"`
	TrackIndex int    `json:"trackIndex" bson:"trackIndex" validate:"gte=0"`
}

// Playlist 用户整理的播放列表
type Playlist struct {
	ID          string             `json:"id" bson:"-" gorm:"primaryKey;size:36"`
	Name        string             `json:"name" bson:"name" gorm:"size:255;not null" validate:"required"`
	Description string             `json:"description" bson:"description" gorm:"type:text" default:""`
	Tracks      []PlaylistTrackRef `json:"tracks" bson:"tracks" gorm:"serializer:json;type:text" default:"[]" validate:"dive"`
	CreatedAt   time.Time          `json:"createdAt" bson:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Playlist) TableName() string {
	return "playlists"
}

// Normalize 规范化名称并补齐默认值
func (p *Playlist) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	defaults.MustSet(p)
	if p.Tracks == nil {
		p.Tracks = []PlaylistTrackRef{}
	}
}

// Clone 深拷贝
func (p Playlist) Clone() Playlist {
	out := p
	if p.Tracks != nil {
		out.Tracks = make([]PlaylistTrackRef, len(p.Tracks))
		copy(out.Tracks, p.Tracks)
	}
	return out
}
