package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cdstash/cache"
	"cdstash/config"
	"cdstash/core/apperr"
	"cdstash/core/catalog"
	"cdstash/core/library"
	"cdstash/db"
	"cdstash/logger"
	"cdstash/repository"
	"cdstash/storage"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
)

// Backend 按配置组装的仓库与服务
type Backend struct {
	Service *library.Service
	Albums  repository.AlbumRepository

	closers []func() error
}

// OpenBackend 连接 STORE_DRIVER 指定的存储，按需加上 Redis 缓存与 MinIO 音频解析
func OpenBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	b := &Backend{}
	var (
		albums    repository.AlbumRepository
		tracks    repository.TrackRepository
		playlists repository.PlaylistRepository
	)

	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, database, err := db.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() error { return db.DisconnectMongo(client) })
		db.CreateIndexes(ctx, database)
		albums = repository.NewMongoAlbumRepository(database)
		tracks = repository.NewMongoTrackRepository(database)
		playlists = repository.NewMongoPlaylistRepository(database)
	case config.StoreMySQL, config.StoreSQLite:
		gdb, err := db.OpenGorm(cfg)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() error { return db.CloseGorm(gdb) })
		albums = repository.NewGormAlbumRepository(gdb)
		tracks = repository.NewGormTrackRepository(gdb)
		playlists = repository.NewGormPlaylistRepository(gdb)
	case config.StoreMemory:
		mem := repository.NewMemoryStore()
		albums, tracks, playlists = mem.Albums(), mem.Tracks(), mem.Playlists()
		logger.Warn("Using in-memory store, data is lost on exit")
	default:
		return nil, errors.Newf("unknown store driver %q", cfg.StoreDriver)
	}

	if cfg.RedisEnabled {
		if err := cache.ConnectRedis(cfg); err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, cache.CloseRedis)
		albums = cache.NewCachedAlbumRepository(albums, cache.RedisClient, cfg.CacheTTL)
		playlists = cache.NewCachedPlaylistRepository(playlists, cache.RedisClient, cfg.CacheTTL)
		logger.Info("Redis cache enabled", logger.Duration("ttl", cfg.CacheTTL))
	}

	locator := storage.NewAudioLocator(nil, "", cfg.AudioURLExpiry)
	if cfg.MinioEnabled {
		client, err := storage.InitMinio(cfg)
		if err != nil {
			b.Close()
			return nil, err
		}
		locator = storage.NewAudioLocator(client, cfg.MinioBucket, cfg.AudioURLExpiry)
	}

	b.Albums = albums
	b.Service = library.NewService(albums, tracks, playlists, locator)
	logger.Info("Backend ready", logger.String("store", cfg.StoreDriver))
	return b, nil
}

// Close 按打开的逆序释放连接
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			logger.Warn("Failed to close backend resource", logger.ErrorField(err))
		}
	}
	b.closers = nil
}

// NewRouter 注册全部 API 路由，外层包上请求日志与 CORS
func NewRouter(svc catalog.Transport, timeout time.Duration) http.Handler {
	h := NewAPIHandler(svc, timeout)

	router := mux.NewRouter()

	router.HandleFunc("/healthz", HealthHandler).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	// 专辑相关的API端点
	api.HandleFunc("/albums", h.ListAlbumsHandler).Methods(http.MethodGet)
	api.HandleFunc("/albums", h.CreateAlbumHandler).Methods(http.MethodPost)
	api.HandleFunc("/albums/{id}", h.GetAlbumHandler).Methods(http.MethodGet)
	api.HandleFunc("/albums/{id}", h.UpdateAlbumHandler).Methods(http.MethodPut)
	api.HandleFunc("/albums/{id}", h.DeleteAlbumHandler).Methods(http.MethodDelete)
	api.HandleFunc("/albums/{id}/tracks", h.GetAlbumTracksHandler).Methods(http.MethodGet)

	// 曲目
	api.HandleFunc("/tracks/{trackId}", h.GetTrackHandler).Methods(http.MethodGet)
	api.HandleFunc("/tracks/{albumId}/{trackIndex}/stream", h.StreamHandler).Methods(http.MethodGet)

	// 播放列表相关的API端点
	api.HandleFunc("/playlists", h.ListPlaylistsHandler).Methods(http.MethodGet)
	api.HandleFunc("/playlists", h.CreatePlaylistHandler).Methods(http.MethodPost)
	api.HandleFunc("/playlists/{id}", h.GetPlaylistHandler).Methods(http.MethodGet)
	api.HandleFunc("/playlists/{id}", h.UpdatePlaylistHandler).Methods(http.MethodPut)
	api.HandleFunc("/playlists/{id}", h.DeletePlaylistHandler).Methods(http.MethodDelete)
	api.HandleFunc("/playlists/{id}/tracks", h.AppendPlaylistTrackHandler).Methods(http.MethodPost)
	api.HandleFunc("/playlists/{id}/tracks/{ordinal}", h.RemovePlaylistTrackHandler).Methods(http.MethodDelete)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, apperr.Body{Error: apperr.CodeNotFound, Message: "no route for " + r.URL.Path})
	})
	// CORS 在路由匹配之前处理预检请求
	return loggingMiddleware(corsMiddleware(router))
}

// Start 启动 HTTP 服务器，收到 SIGINT/SIGTERM 后优雅关闭
func Start(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	backend, err := OpenBackend(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	// 设置服务器超时
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      NewRouter(backend.Service, cfg.RequestTimeout),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "failed to start server")
	case <-stop:
	}
	logger.Info("Shutting down server...")

	// 创建一个5秒超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}
	logger.Info("Server stopped")
	return nil
}
