package catalog

import (
	"context"

	"cdstash/model"
)

// Transport 目录的远端。错误按 core/apperr 分类：未知 id 为 NotFoundError，
// 被拒绝的数据为 ValidationError，连接或服务端故障为 TransportError。
//
// client.Client 通过 HTTP 实现，library.Service 在进程内实现
type Transport interface {
	ListAlbums(ctx context.Context) ([]model.Album, error)
	GetAlbum(ctx context.Context, id string) (model.Album, error)
	ListAlbumTracks(ctx context.Context, albumID string) ([]model.Track, error)
	GetTrack(ctx context.Context, id string) (model.Track, error)
	CreateAlbum(ctx context.Context, album model.Album) (model.Album, error)
	UpdateAlbum(ctx context.Context, id string, album model.Album) (model.Album, error)
	DeleteAlbum(ctx context.Context, id string) error

	ListPlaylists(ctx context.Context) ([]model.Playlist, error)
	GetPlaylist(ctx context.Context, id string) (model.Playlist, error)
	CreatePlaylist(ctx context.Context, playlist model.Playlist) (model.Playlist, error)
	UpdatePlaylist(ctx context.Context, id string, playlist model.Playlist) (model.Playlist, error)
	DeletePlaylist(ctx context.Context, id string) error
	AppendPlaylistTrack(ctx context.Context, playlistID string, ref model.PlaylistTrackRef) (model.Playlist, error)
	RemovePlaylistTrack(ctx context.Context, playlistID string, ordinal int) (model.Playlist, error)

	// ResolveAudio 返回专辑第 trackIndex 首曲目的播放地址
	ResolveAudio(ctx context.Context, albumID string, trackIndex int) (string, error)
}
