package model

import (
	"strings"
	"time"
)

// BarcodeUnavailable 旧数据中表示“无条码”的哨兵值
const BarcodeUnavailable = "-1"

// Album 表示一张专辑
type Album struct {
	ID              string     `json:"id" bson:"-" gorm:"primaryKey;size:36"`
	Title           string     `json:"title" bson:"title" gorm:"size:255;not null;index" validate:"required"`
	Artist          StringList `json:"artist" bson:"artist" gorm:"type:text" validate:"min=1,dive,required"`
	Year            int        `json:"year,omitempty" bson:"year,omitempty" gorm:"index" validate:"gte=0,lte=9999"`
	Genre           StringList `json:"genre" bson:"genre" gorm:"type:text"`
	Label           string     `json:"label,omitempty" bson:"label,omitempty" gorm:"size:255"`
	About           string     `json:"about,omitempty" bson:"about,omitempty" gorm:"type:text"`
	Cover           string     `json:"cover,omitempty" bson:"cover,omitempty" gorm:"size:1024"`
	DurationTotal   string     `json:"durationTotal,omitempty" bson:"duration_total,omitempty" gorm:"size:16" validate:"omitempty,duration"`
	ReleaseType     string     `json:"releaseType,omitempty" bson:"release_type,omitempty" gorm:"size:64"`
	Format          string     `json:"format,omitempty" bson:"format,omitempty" gorm:"size:64"`
	Barcode         *string    `json:"barcode" bson:"barcode" gorm:"size:64"`
	CountryOfOrigin string     `json:"countryOfOrigin,omitempty" bson:"country_of_origin,omitempty" gorm:"size:128"`
	Tracks          []Track    `json:"tracks" bson:"tracks" gorm:"serializer:json;type:text" validate:"dive"`
	CreatedAt       time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" bson:"updated_at"`
}

// TableName 指定表名
func (Album) TableName() string {
	return "albums"
}

// Normalize 入库或读取后统一字段形态
func (a *Album) Normalize() {
	a.Title = strings.TrimSpace(a.Title)
	a.Artist = NewStringList(a.Artist...)
	a.Genre = NewStringList(a.Genre...)
	if a.Barcode != nil {
		b := strings.TrimSpace(*a.Barcode)
		if b == "" || b == BarcodeUnavailable {
			a.Barcode = nil
		} else {
			a.Barcode = &b
		}
	}
	if a.Tracks == nil {
		a.Tracks = []Track{}
	}
	for i := range a.Tracks {
		a.Tracks[i].normalize(i)
	}
}

// Durations 曲目时长列表，未知时长为 nil
func (a *Album) Durations() []*string {
	out := make([]*string, len(a.Tracks))
	for i := range a.Tracks {
		out[i] = a.Tracks[i].Duration
	}
	return out
}

// Clone 深拷贝，避免调用方修改共享切片
func (a Album) Clone() Album {
	out := a
	out.Artist = a.Artist.clone()
	out.Genre = a.Genre.clone()
	if a.Barcode != nil {
		b := *a.Barcode
		out.Barcode = &b
	}
	if a.Tracks != nil {
		out.Tracks = make([]Track, len(a.Tracks))
		copy(out.Tracks, a.Tracks)
		for i := range out.Tracks {
			out.Tracks[i].Artists = a.Tracks[i].Artists.clone()
		}
	}
	return out
}
