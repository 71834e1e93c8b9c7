// Package catalog 客户端的专辑库视图：Store 保存取回的专辑与播放列表，
// Pipeline 经 Transport 写入并把回传记录应用回 Store
package catalog

import (
	"context"
	"sync"

	"cdstash/core/query"
	"cdstash/core/resolver"
	"cdstash/logger"
	"cdstash/model"
)

// State 集合的加载状态
type State int

const (
	StatePending State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "pending"
	}
}

// AlbumsSnapshot 某一时刻专辑集合的副本
type AlbumsSnapshot struct {
	State  State
	Albums []model.Album
	Err    error
}

// PlaylistsSnapshot 某一时刻播放列表集合的副本
type PlaylistsSnapshot struct {
	State     State
	Playlists []model.Playlist
	Err       error
}

// collection 按 id 保存记录，并记录取回顺序
type collection[T any] struct {
	state State
	err   error
	byID  map[string]T
	order []string
}

func newCollection[T any]() collection[T] {
	return collection[T]{byID: make(map[string]T)}
}

func (c *collection[T]) replace(ids []string, items []T) {
	c.byID = make(map[string]T, len(items))
	c.order = make([]string, 0, len(items))
	for i, id := range ids {
		if _, dup := c.byID[id]; !dup {
			c.order = append(c.order, id)
		}
		c.byID[id] = items[i]
	}
	c.state, c.err = StateReady, nil
}

func (c *collection[T]) put(id string, item T) {
	if _, ok := c.byID[id]; !ok {
		c.order = append(c.order, id)
	}
	c.byID[id] = item
}

func (c *collection[T]) remove(id string) {
	if _, ok := c.byID[id]; !ok {
		return
	}
	delete(c.byID, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *collection[T]) fail(err error) {
	c.state, c.err = StateFailed, err
}

// Store 客户端目录，所有读取都返回副本
type Store struct {
	transport Transport
	engine    *query.Engine

	mu        sync.RWMutex
	albums    collection[model.Album]
	playlists collection[model.Playlist]
}

// NewStore 创建空的 Store，engine 为 nil 时使用英文排序规则
func NewStore(t Transport, engine *query.Engine) *Store {
	if engine == nil {
		engine = query.NewEngine("en")
	}
	return &Store{
		transport: t,
		engine:    engine,
		albums:    newCollection[model.Album](),
		playlists: newCollection[model.Playlist](),
	}
}

// LoadAlbums 取回全部专辑。失败时保留原有记录，集合进入 StateFailed
func (s *Store) LoadAlbums(ctx context.Context) error {
	albums, err := s.transport.ListAlbums(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.albums.fail(err)
		logger.Warn("failed to load albums", logger.ErrorField(err))
		return err
	}
	ids := make([]string, len(albums))
	for i := range albums {
		albums[i].Normalize()
		ids[i] = albums[i].ID
	}
	s.albums.replace(ids, albums)
	logger.Debug("albums loaded", logger.Int("count", len(albums)))
	return nil
}

// LoadPlaylists 取回全部播放列表
func (s *Store) LoadPlaylists(ctx context.Context) error {
	playlists, err := s.transport.ListPlaylists(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.playlists.fail(err)
		logger.Warn("failed to load playlists", logger.ErrorField(err))
		return err
	}
	ids := make([]string, len(playlists))
	for i := range playlists {
		playlists[i].Normalize()
		ids[i] = playlists[i].ID
	}
	s.playlists.replace(ids, playlists)
	logger.Debug("playlists loaded", logger.Int("count", len(playlists)))
	return nil
}

// EnsureAlbums 专辑未处于 Ready 时加载
func (s *Store) EnsureAlbums(ctx context.Context) error {
	s.mu.RLock()
	ready := s.albums.state == StateReady
	s.mu.RUnlock()
	if ready {
		return nil
	}
	return s.LoadAlbums(ctx)
}

// EnsurePlaylists 播放列表未处于 Ready 时加载
func (s *Store) EnsurePlaylists(ctx context.Context) error {
	s.mu.RLock()
	ready := s.playlists.state == StateReady
	s.mu.RUnlock()
	if ready {
		return nil
	}
	return s.LoadPlaylists(ctx)
}

// Invalidate 把两个集合标记为过期，已有记录仍可读取
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.albums.state, s.albums.err = StatePending, nil
	s.playlists.state, s.playlists.err = StatePending, nil
}

// Albums 按取回顺序返回专辑集合
func (s *Store) Albums() AlbumsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Album, 0, len(s.albums.order))
	for _, id := range s.albums.order {
		out = append(out, s.albums.byID[id].Clone())
	}
	return AlbumsSnapshot{State: s.albums.state, Albums: out, Err: s.albums.err}
}

// Playlists 按取回顺序返回播放列表集合
func (s *Store) Playlists() PlaylistsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Playlist, 0, len(s.playlists.order))
	for _, id := range s.playlists.order {
		out = append(out, s.playlists.byID[id].Clone())
	}
	return PlaylistsSnapshot{State: s.playlists.state, Playlists: out, Err: s.playlists.err}
}

// Album 实现 resolver.Catalog
func (s *Store) Album(id string) (model.Album, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.albums.byID[id]
	if !ok {
		return model.Album{}, false
	}
	return a.Clone(), true
}

// Playlist 返回持有的指定 id 的播放列表
func (s *Store) Playlist(id string) (model.Playlist, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.playlists.byID[id]
	if !ok {
		return model.Playlist{}, false
	}
	return p.Clone(), true
}

// View 派生搜索、过滤、排序后的专辑列表
func (s *Store) View(q query.Query) []model.Album {
	return s.engine.Apply(s.Albums().Albums, q)
}

// Resolve 用同一时刻的专辑快照解析持有的播放列表
func (s *Store) Resolve(playlistID string) (resolver.Report, bool) {
	s.mu.RLock()
	p, ok := s.playlists.byID[playlistID]
	if !ok {
		s.mu.RUnlock()
		return resolver.Report{}, false
	}
	p = p.Clone()
	albums := make([]model.Album, 0, len(s.albums.byID))
	for _, a := range s.albums.byID {
		albums = append(albums, a.Clone())
	}
	s.mu.RUnlock()
	return resolver.Inspect(p, resolver.NewIndex(albums)), true
}

func (s *Store) putAlbum(a model.Album) {
	a.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.albums.put(a.ID, a.Clone())
}

func (s *Store) removeAlbum(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.albums.remove(id)
}

func (s *Store) putPlaylist(p model.Playlist) {
	p.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playlists.put(p.ID, p.Clone())
}

func (s *Store) removePlaylist(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playlists.remove(id)
}
