// Package library 服务端业务逻辑：在仓库之上实现专辑、曲目与播放列表的 CRUD
package library

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"cdstash/core/apperr"
	"cdstash/core/catalog"
	"cdstash/core/duration"
	"cdstash/core/keylock"
	"cdstash/logger"
	"cdstash/model"
	"cdstash/repository"

	"github.com/cockroachdb/errors"
)

var _ catalog.Transport = (*Service)(nil)

// AudioLocator 把曲目解析为可播放地址
type AudioLocator interface {
	Locate(ctx context.Context, track model.Track) (string, error)
}

// Service 在进程内实现 catalog.Transport，HTTP 处理器与种子命令共用
type Service struct {
	albums    repository.AlbumRepository
	tracks    repository.TrackRepository
	playlists repository.PlaylistRepository
	locator   AudioLocator
	locks     *keylock.Locker
}

// NewService 创建服务；locator 可以为 nil，此时音频解析返回 NotFoundError
func NewService(albums repository.AlbumRepository, tracks repository.TrackRepository,
	playlists repository.PlaylistRepository, locator AudioLocator) *Service {
	return &Service{
		albums:    albums,
		tracks:    tracks,
		playlists: playlists,
		locator:   locator,
		locks:     keylock.New(),
	}
}

// ListAlbums 返回全部专辑，没有内嵌曲目的专辑补齐独立曲目
func (s *Service) ListAlbums(ctx context.Context) ([]model.Album, error) {
	albums, err := s.albums.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range albums {
		if err := s.hydrate(ctx, &albums[i]); err != nil {
			return nil, err
		}
	}
	return albums, nil
}

func (s *Service) GetAlbum(ctx context.Context, id string) (model.Album, error) {
	album, err := s.albums.GetByID(ctx, id)
	if err != nil {
		return model.Album{}, err
	}
	if album == nil {
		return model.Album{}, apperr.NotFound("album", id)
	}
	if err := s.hydrate(ctx, album); err != nil {
		return model.Album{}, err
	}
	return *album, nil
}

// hydrate 内嵌曲目优先，列表为空时才读取独立曲目
func (s *Service) hydrate(ctx context.Context, album *model.Album) error {
	if len(album.Tracks) > 0 || s.tracks == nil {
		return nil
	}
	tracks, err := s.tracks.ListByAlbum(ctx, album.ID)
	if err != nil {
		return err
	}
	album.Tracks = tracks
	if total := deriveTotal(album); total != "" {
		album.DurationTotal = total
	}
	return nil
}

// ListAlbumTracks 专辑曲目按碟号、曲目号排序
func (s *Service) ListAlbumTracks(ctx context.Context, albumID string) ([]model.Track, error) {
	album, err := s.GetAlbum(ctx, albumID)
	if err != nil {
		return nil, err
	}
	tracks := make([]model.Track, len(album.Tracks))
	copy(tracks, album.Tracks)
	for i := range tracks {
		if tracks[i].AlbumID == "" {
			tracks[i].AlbumID = albumID
		}
	}
	sort.SliceStable(tracks, func(i, j int) bool { return model.TrackLess(tracks[i], tracks[j]) })
	return tracks, nil
}

func (s *Service) GetTrack(ctx context.Context, id string) (model.Track, error) {
	if s.tracks == nil {
		return model.Track{}, apperr.NotFound("track", id)
	}
	track, err := s.tracks.GetByID(ctx, id)
	if err != nil {
		return model.Track{}, err
	}
	if track == nil {
		return model.Track{}, apperr.NotFound("track", id)
	}
	return *track, nil
}

func (s *Service) CreateAlbum(ctx context.Context, album model.Album) (model.Album, error) {
	album.ID = ""
	if err := prepareAlbum(&album); err != nil {
		return model.Album{}, err
	}
	if err := s.albums.Create(ctx, &album); err != nil {
		return model.Album{}, err
	}
	logger.Info("专辑已创建", logger.String("albumId", album.ID), logger.String("title", album.Title))
	return album, nil
}

func (s *Service) UpdateAlbum(ctx context.Context, id string, album model.Album) (model.Album, error) {
	unlock := s.locks.Lock("album:" + id)
	defer unlock()

	album.ID = id
	if err := prepareAlbum(&album); err != nil {
		return model.Album{}, err
	}
	found, err := s.albums.Update(ctx, &album)
	if err != nil {
		return model.Album{}, err
	}
	if !found {
		return model.Album{}, apperr.NotFound("album", id)
	}
	return s.GetAlbum(ctx, id)
}

// DeleteAlbum 删除专辑及其独立曲目；引用它的播放列表条目保持不变
func (s *Service) DeleteAlbum(ctx context.Context, id string) error {
	unlock := s.locks.Lock("album:" + id)
	defer unlock()

	found, err := s.albums.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return apperr.NotFound("album", id)
	}
	if s.tracks != nil {
		n, err := s.tracks.DeleteByAlbum(ctx, id)
		if err != nil {
			return errors.Wrapf(err, "album %s deleted but its tracks were not", id)
		}
		if n > 0 {
			logger.Debug("已删除专辑曲目", logger.String("albumId", id), logger.Int64("count", n))
		}
	}
	logger.Info("专辑已删除", logger.String("albumId", id))
	return nil
}

// ImportTracks 为专辑写入独立曲目，替换已有记录
func (s *Service) ImportTracks(ctx context.Context, albumID string, tracks []model.Track) ([]model.Track, error) {
	if s.tracks == nil {
		return nil, errors.New("track repository is not configured")
	}
	if _, err := s.GetAlbum(ctx, albumID); err != nil {
		return nil, err
	}
	out := make([]model.Track, len(tracks))
	for i, t := range tracks {
		t.AlbumID = albumID
		if t.TrackNumber == 0 {
			t.TrackNumber = i + 1
		}
		t.Normalize()
		if err := model.Validate(&t); err != nil {
			return nil, prefixFields(err, "tracks["+strconv.Itoa(i)+"]")
		}
		out[i] = t
	}
	if err := s.tracks.ReplaceForAlbum(ctx, albumID, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ListPlaylists(ctx context.Context) ([]model.Playlist, error) {
	return s.playlists.List(ctx)
}

func (s *Service) GetPlaylist(ctx context.Context, id string) (model.Playlist, error) {
	p, err := s.playlists.GetByID(ctx, id)
	if err != nil {
		return model.Playlist{}, err
	}
	if p == nil {
		return model.Playlist{}, apperr.NotFound("playlist", id)
	}
	return *p, nil
}

func (s *Service) CreatePlaylist(ctx context.Context, playlist model.Playlist) (model.Playlist, error) {
	playlist.ID = ""
	playlist.Normalize()
	if err := model.Validate(&playlist); err != nil {
		return model.Playlist{}, err
	}
	if err := s.playlists.Create(ctx, &playlist); err != nil {
		return model.Playlist{}, err
	}
	logger.Info("播放列表已创建", logger.String("playlistId", playlist.ID), logger.String("name", playlist.Name))
	return playlist, nil
}

func (s *Service) UpdatePlaylist(ctx context.Context, id string, playlist model.Playlist) (model.Playlist, error) {
	unlock := s.locks.Lock("playlist:" + id)
	defer unlock()
	return s.savePlaylist(ctx, id, playlist)
}

func (s *Service) savePlaylist(ctx context.Context, id string, playlist model.Playlist) (model.Playlist, error) {
	playlist.ID = id
	playlist.Normalize()
	if err := model.Validate(&playlist); err != nil {
		return model.Playlist{}, err
	}
	found, err := s.playlists.Update(ctx, &playlist)
	if err != nil {
		return model.Playlist{}, err
	}
	if !found {
		return model.Playlist{}, apperr.NotFound("playlist", id)
	}
	return s.GetPlaylist(ctx, id)
}

func (s *Service) DeletePlaylist(ctx context.Context, id string) error {
	unlock := s.locks.Lock("playlist:" + id)
	defer unlock()

	found, err := s.playlists.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return apperr.NotFound("playlist", id)
	}
	logger.Info("播放列表已删除", logger.String("playlistId", id))
	return nil
}

// AppendPlaylistTrack 在末尾追加条目，不校验专辑是否存在
func (s *Service) AppendPlaylistTrack(ctx context.Context, playlistID string, ref model.PlaylistTrackRef) (model.Playlist, error) {
	if err := model.Validate(&ref); err != nil {
		return model.Playlist{}, err
	}
	unlock := s.locks.Lock("playlist:" + playlistID)
	defer unlock()

	p, err := s.GetPlaylist(ctx, playlistID)
	if err != nil {
		return model.Playlist{}, err
	}
	p.Tracks = append(p.Tracks, ref)
	return s.savePlaylist(ctx, playlistID, p)
}

// RemovePlaylistTrack 按下标移除条目，其余条目顺序不变
func (s *Service) RemovePlaylistTrack(ctx context.Context, playlistID string, ordinal int) (model.Playlist, error) {
	unlock := s.locks.Lock("playlist:" + playlistID)
	defer unlock()

	p, err := s.GetPlaylist(ctx, playlistID)
	if err != nil {
		return model.Playlist{}, err
	}
	if ordinal < 0 || ordinal >= len(p.Tracks) {
		return model.Playlist{}, OrdinalError(ordinal, len(p.Tracks))
	}
	tracks := make([]model.PlaylistTrackRef, 0, len(p.Tracks)-1)
	tracks = append(tracks, p.Tracks[:ordinal]...)
	tracks = append(tracks, p.Tracks[ordinal+1:]...)
	p.Tracks = tracks
	return s.savePlaylist(ctx, playlistID, p)
}

// OrdinalError 播放列表下标越界
func OrdinalError(ordinal, length int) *apperr.ValidationError {
	return apperr.NewValidationError("ordinal", fmt.Sprintf("%d is out of range [0, %d)", ordinal, length))
}

func (s *Service) ResolveAudio(ctx context.Context, albumID string, trackIndex int) (string, error) {
	album, err := s.GetAlbum(ctx, albumID)
	if err != nil {
		return "", err
	}
	if trackIndex < 0 || trackIndex >= len(album.Tracks) {
		return "", apperr.NotFound("track", fmt.Sprintf("%s/%d", albumID, trackIndex))
	}
	track := album.Tracks[trackIndex]
	if s.locator == nil {
		return "", apperr.NotFound("audio", track.Title)
	}
	return s.locator.Locate(ctx, track)
}

// prepareAlbum 规范化、校验并重新计算总时长；有未知曲目时长时才沿用传入的总时长
func prepareAlbum(album *model.Album) error {
	album.Normalize()
	if err := model.Validate(album); err != nil {
		return err
	}
	if total := deriveTotal(album); total != "" {
		album.DurationTotal = total
	}
	return nil
}

// deriveTotal 所有曲目时长都已知时返回总时长，否则返回空串
func deriveTotal(album *model.Album) string {
	if len(album.Tracks) == 0 {
		return ""
	}
	total, err := duration.TotalOf(album.Durations())
	if err != nil {
		return ""
	}
	return total
}

func prefixFields(err error, prefix string) error {
	ve, ok := apperr.AsValidation(err)
	if !ok {
		return err
	}
	fields := make(map[string]string, len(ve.Fields))
	for k, v := range ve.Fields {
		fields[prefix+"."+k] = v
	}
	return &apperr.ValidationError{Fields: fields}
}
