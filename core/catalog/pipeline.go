package catalog

import (
	"context"
	"fmt"

	"cdstash/core/apperr"
	"cdstash/core/keylock"
	"cdstash/logger"
	"cdstash/model"
)

// Pipeline 先在本地校验修改，再经 Transport 写入，最后只把回传的该条记录应用到 Store。
// 写入失败时 Store 保持不变
type Pipeline struct {
	transport Transport
	store     *Store
	locks     *keylock.Locker
}

func NewPipeline(t Transport, store *Store) *Pipeline {
	return &Pipeline{transport: t, store: store, locks: keylock.New()}
}

func (p *Pipeline) CreateAlbum(ctx context.Context, album model.Album) (model.Album, error) {
	album.Normalize()
	if err := model.Validate(&album); err != nil {
		return model.Album{}, err
	}
	created, err := p.transport.CreateAlbum(ctx, album)
	if err != nil {
		return model.Album{}, err
	}
	p.store.putAlbum(created)
	return created, nil
}

func (p *Pipeline) UpdateAlbum(ctx context.Context, id string, album model.Album) (model.Album, error) {
	album.Normalize()
	if err := model.Validate(&album); err != nil {
		return model.Album{}, err
	}
	unlock := p.locks.Lock("album:" + id)
	defer unlock()

	updated, err := p.transport.UpdateAlbum(ctx, id, album)
	if err != nil {
		return model.Album{}, err
	}
	p.store.putAlbum(updated)
	return updated, nil
}

// DeleteAlbum 删除专辑。引用它的播放列表保持不变，解析时跳过悬空条目
func (p *Pipeline) DeleteAlbum(ctx context.Context, id string) error {
	unlock := p.locks.Lock("album:" + id)
	defer unlock()

	if err := p.transport.DeleteAlbum(ctx, id); err != nil {
		return err
	}
	p.store.removeAlbum(id)
	return nil
}

func (p *Pipeline) CreatePlaylist(ctx context.Context, playlist model.Playlist) (model.Playlist, error) {
	playlist.Normalize()
	if err := model.Validate(&playlist); err != nil {
		return model.Playlist{}, err
	}
	created, err := p.transport.CreatePlaylist(ctx, playlist)
	if err != nil {
		return model.Playlist{}, err
	}
	p.store.putPlaylist(created)
	return created, nil
}

func (p *Pipeline) UpdatePlaylist(ctx context.Context, id string, playlist model.Playlist) (model.Playlist, error) {
	playlist.Normalize()
	if err := model.Validate(&playlist); err != nil {
		return model.Playlist{}, err
	}
	unlock := p.locks.Lock("playlist:" + id)
	defer unlock()

	updated, err := p.transport.UpdatePlaylist(ctx, id, playlist)
	if err != nil {
		return model.Playlist{}, err
	}
	p.store.putPlaylist(updated)
	return updated, nil
}

func (p *Pipeline) DeletePlaylist(ctx context.Context, id string) error {
	unlock := p.locks.Lock("playlist:" + id)
	defer unlock()

	if err := p.transport.DeletePlaylist(ctx, id); err != nil {
		return err
	}
	p.store.removePlaylist(id)
	return nil
}

// AppendPlaylistTrack 在播放列表末尾追加引用，不要求专辑存在
func (p *Pipeline) AppendPlaylistTrack(ctx context.Context, playlistID, albumID string, trackIndex int) (model.Playlist, error) {
	ref := model.PlaylistTrackRef{AlbumID: albumID, TrackIndex: trackIndex}
	if err := model.Validate(&ref); err != nil {
		return model.Playlist{}, err
	}
	unlock := p.locks.Lock("playlist:" + playlistID)
	defer unlock()

	updated, err := p.transport.AppendPlaylistTrack(ctx, playlistID, ref)
	if err != nil {
		return model.Playlist{}, err
	}
	p.store.putPlaylist(updated)
	return updated, nil
}

// RemovePlaylistTrack 移除 ordinal 位置的条目。按 Store 中的播放列表检查下标，未持有时先取回
func (p *Pipeline) RemovePlaylistTrack(ctx context.Context, playlistID string, ordinal int) (model.Playlist, error) {
	unlock := p.locks.Lock("playlist:" + playlistID)
	defer unlock()

	current, ok := p.store.Playlist(playlistID)
	if !ok {
		fetched, err := p.transport.GetPlaylist(ctx, playlistID)
		if err != nil {
			return model.Playlist{}, err
		}
		current = fetched
	}
	if ordinal < 0 || ordinal >= len(current.Tracks) {
		return model.Playlist{}, apperr.NewValidationError("ordinal",
			fmt.Sprintf("%d is out of range [0, %d)", ordinal, len(current.Tracks)))
	}

	updated, err := p.transport.RemovePlaylistTrack(ctx, playlistID, ordinal)
	if err != nil {
		return model.Playlist{}, err
	}
	p.store.putPlaylist(updated)
	logger.Debug("playlist entry removed",
		logger.String("playlistId", playlistID),
		logger.Int("ordinal", ordinal),
		logger.Int("remaining", len(updated.Tracks)))
	return updated, nil
}
