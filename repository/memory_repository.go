package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"cdstash/model"

	"github.com/google/uuid"
)

// MemoryStore 进程内存储，STORE_DRIVER=memory 时使用，也用于测试
// 三个仓库共享同一把锁
type MemoryStore struct {
	mu        sync.RWMutex
	albums    map[string]model.Album
	tracks    map[string]model.Track
	playlists map[string]model.Playlist
	seq       int64
	order     map[string]int64
}

// NewMemoryStore 创建空的内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		albums:    make(map[string]model.Album),
		tracks:    make(map[string]model.Track),
		playlists: make(map[string]model.Playlist),
		order:     make(map[string]int64),
	}
}

func (s *MemoryStore) Albums() AlbumRepository       { return memoryAlbums{s} }
func (s *MemoryStore) Tracks() TrackRepository       { return memoryTracks{s} }
func (s *MemoryStore) Playlists() PlaylistRepository { return memoryPlaylists{s} }

// insertion 记录插入顺序，created_at 相同时用于稳定排序
func (s *MemoryStore) insertion(id string) {
	s.seq++
	s.order[id] = s.seq
}

type memoryAlbums struct{ s *MemoryStore }

func (r memoryAlbums) List(ctx context.Context) ([]model.Album, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.Album, 0, len(r.s.albums))
	for _, a := range r.s.albums {
		c := a.Clone()
		c.Normalize()
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return r.s.order[out[i].ID] < r.s.order[out[j].ID]
	})
	return out, nil
}

func (r memoryAlbums) GetByID(ctx context.Context, id string) (*model.Album, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.albums[id]
	if !ok {
		return nil, nil
	}
	c := a.Clone()
	c.Normalize()
	return &c, nil
}

func (r memoryAlbums) Create(ctx context.Context, album *model.Album) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if album.ID == "" {
		album.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	album.CreatedAt, album.UpdatedAt = now, now
	r.s.albums[album.ID] = album.Clone()
	r.s.insertion(album.ID)
	return nil
}

func (r memoryAlbums) Update(ctx context.Context, album *model.Album) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.albums[album.ID]
	if !ok {
		return false, nil
	}
	album.CreatedAt = existing.CreatedAt
	album.UpdatedAt = time.Now().UTC()
	r.s.albums[album.ID] = album.Clone()
	return true, nil
}

func (r memoryAlbums) Delete(ctx context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.albums[id]; !ok {
		return false, nil
	}
	delete(r.s.albums, id)
	delete(r.s.order, id)
	return true, nil
}

func (r memoryAlbums) Count(ctx context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.albums)), nil
}

type memoryTracks struct{ s *MemoryStore }

func (r memoryTracks) ListByAlbum(ctx context.Context, albumID string) ([]model.Track, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.Track, 0)
	for _, t := range r.s.tracks {
		if t.AlbumID == albumID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return model.TrackLess(out[i], out[j]) })
	return out, nil
}

func (r memoryTracks) GetByID(ctx context.Context, id string) (*model.Track, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tracks[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r memoryTracks) ReplaceForAlbum(ctx context.Context, albumID string, tracks []model.Track) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.deleteLocked(albumID)
	for i := range tracks {
		tracks[i].AlbumID = albumID
		if tracks[i].ID == "" {
			tracks[i].ID = uuid.NewString()
		}
		r.s.tracks[tracks[i].ID] = tracks[i]
	}
	return nil
}

func (r memoryTracks) DeleteByAlbum(ctx context.Context, albumID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.deleteLocked(albumID), nil
}

func (r memoryTracks) deleteLocked(albumID string) int64 {
	var n int64
	for id, t := range r.s.tracks {
		if t.AlbumID == albumID {
			delete(r.s.tracks, id)
			n++
		}
	}
	return n
}

type memoryPlaylists struct{ s *MemoryStore }

func (r memoryPlaylists) List(ctx context.Context) ([]model.Playlist, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.Playlist, 0, len(r.s.playlists))
	for _, p := range r.s.playlists {
		c := p.Clone()
		c.Normalize()
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return r.s.order[out[i].ID] < r.s.order[out[j].ID]
	})
	return out, nil
}

func (r memoryPlaylists) GetByID(ctx context.Context, id string) (*model.Playlist, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.playlists[id]
	if !ok {
		return nil, nil
	}
	c := p.Clone()
	c.Normalize()
	return &c, nil
}

func (r memoryPlaylists) Create(ctx context.Context, playlist *model.Playlist) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if playlist.ID == "" {
		playlist.ID = uuid.NewString()
	}
	playlist.CreatedAt = time.Now().UTC()
	r.s.playlists[playlist.ID] = playlist.Clone()
	r.s.insertion(playlist.ID)
	return nil
}

func (r memoryPlaylists) Update(ctx context.Context, playlist *model.Playlist) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.playlists[playlist.ID]
	if !ok {
		return false, nil
	}
	playlist.CreatedAt = existing.CreatedAt
	r.s.playlists[playlist.ID] = playlist.Clone()
	return true, nil
}

func (r memoryPlaylists) Delete(ctx context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.playlists[id]; !ok {
		return false, nil
	}
	delete(r.s.playlists, id)
	delete(r.s.order, id)
	return true, nil
}
