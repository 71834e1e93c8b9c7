// Package resolver 把播放列表条目关联到专辑目录
package resolver

import (
	"cdstash/model"
)

// Catalog 按 id 查找专辑，返回的专辑带有曲目列表（内嵌的或独立存储后附加的）
type Catalog interface {
	Album(id string) (model.Album, bool)
}

// Entry 解析到具体专辑和曲目的播放列表条目
type Entry struct {
	Ordinal int
	Ref     model.PlaylistTrackRef
	Album   model.Album
	Track   model.Track
}

// Reason 条目被跳过的原因
type Reason string

const (
	ReasonAlbumMissing    Reason = "album_missing"
	ReasonIndexOutOfRange Reason = "track_index_out_of_range"
)

// Dropped 无法解析的条目
type Dropped struct {
	Ordinal int
	Ref     model.PlaylistTrackRef
	Reason  Reason
}

// Report 解析结果及诊断信息
type Report struct {
	Entries []Entry
	Dropped []Dropped
}

// Resolve 按播放列表顺序返回仍指向已有专辑和曲目的条目，悬空引用直接跳过
func Resolve(p model.Playlist, c Catalog) []Entry {
	return Inspect(p, c).Entries
}

// Inspect 同 Resolve，另外报告跳过了哪些条目以及原因
func Inspect(p model.Playlist, c Catalog) Report {
	report := Report{Entries: make([]Entry, 0, len(p.Tracks))}
	for i, ref := range p.Tracks {
		album, ok := c.Album(ref.AlbumID)
		if !ok {
			report.Dropped = append(report.Dropped, Dropped{Ordinal: i, Ref: ref, Reason: ReasonAlbumMissing})
			continue
		}
		if ref.TrackIndex < 0 || ref.TrackIndex >= len(album.Tracks) {
			report.Dropped = append(report.Dropped, Dropped{Ordinal: i, Ref: ref, Reason: ReasonIndexOutOfRange})
			continue
		}
		report.Entries = append(report.Entries, Entry{
			Ordinal: i,
			Ref:     ref,
			Album:   album,
			Track:   album.Tracks[ref.TrackIndex],
		})
	}
	return report
}

// Index 由一次取回的专辑集合构建的内存 Catalog
type Index struct {
	albums map[string]model.Album
}

// NewIndex 按 id 建立索引
func NewIndex(albums []model.Album) *Index {
	idx := &Index{albums: make(map[string]model.Album, len(albums))}
	for _, a := range albums {
		idx.albums[a.ID] = a
	}
	return idx
}

// Album 实现 Catalog
func (i *Index) Album(id string) (model.Album, bool) {
	a, ok := i.albums[id]
	return a, ok
}
