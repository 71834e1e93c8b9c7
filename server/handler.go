package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"cdstash/core/apperr"
	"cdstash/core/catalog"
	"cdstash/logger"
	"cdstash/model"

	"github.com/gorilla/mux"
)

// maxBodyBytes 请求体上限
const maxBodyBytes = 4 << 20

// APIHandler 处理 /api 下的所有请求
type APIHandler struct {
	svc     catalog.Transport
	timeout time.Duration
}

// NewAPIHandler 创建处理器，timeout 为每个请求访问存储的时间上限
func NewAPIHandler(svc catalog.Transport, timeout time.Duration) *APIHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &APIHandler{svc: svc, timeout: timeout}
}

func (h *APIHandler) ctx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", logger.ErrorField(err))
	}
}

// writeError 把错误映射为统一的错误响应
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := apperr.ToBody(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.String("requestId", RequestID(r.Context())),
			logger.ErrorField(err))
	}
	writeJSON(w, status, body)
}

// decodeBody 解析 JSON 请求体，格式错误视为校验失败
func decodeBody(r *http.Request, dst interface{}) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return apperr.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	return nil
}

func intVar(r *http.Request, name string) (int, error) {
	raw := mux.Vars(r)[name]
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.NewValidationError(name, "must be an integer")
	}
	return n, nil
}

// ========== 专辑 ==========

// ListAlbumsHandler GET /api/albums
func (h *APIHandler) ListAlbumsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	albums, err := h.svc.ListAlbums(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, albums)
}

// GetAlbumHandler GET /api/albums/{id}
func (h *APIHandler) GetAlbumHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	album, err := h.svc.GetAlbum(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

// GetAlbumTracksHandler GET /api/albums/{id}/tracks
func (h *APIHandler) GetAlbumTracksHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	tracks, err := h.svc.ListAlbumTracks(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// CreateAlbumHandler POST /api/albums
func (h *APIHandler) CreateAlbumHandler(w http.ResponseWriter, r *http.Request) {
	var input model.Album
	if err := decodeBody(r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	album, err := h.svc.CreateAlbum(ctx, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, album)
}

// UpdateAlbumHandler PUT /api/albums/{id}
func (h *APIHandler) UpdateAlbumHandler(w http.ResponseWriter, r *http.Request) {
	var input model.Album
	if err := decodeBody(r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	album, err := h.svc.UpdateAlbum(ctx, mux.Vars(r)["id"], input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

// DeleteAlbumHandler DELETE /api/albums/{id}
func (h *APIHandler) DeleteAlbumHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	if err := h.svc.DeleteAlbum(ctx, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ========== 曲目 ==========

// GetTrackHandler GET /api/tracks/{trackId}
func (h *APIHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	track, err := h.svc.GetTrack(ctx, mux.Vars(r)["trackId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, track)
}

// StreamHandler GET /api/tracks/{albumId}/{trackIndex}/stream
// 默认 302 跳转到音频地址，?format=json 时返回 {"url": ...}
func (h *APIHandler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	index, err := intVar(r, "trackIndex")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	url, err := h.svc.ResolveAudio(ctx, mux.Vars(r)["albumId"], index)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("format") == "json" {
		writeJSON(w, http.StatusOK, map[string]string{"url": url})
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// ========== 播放列表 ==========

// ListPlaylistsHandler GET /api/playlists
func (h *APIHandler) ListPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	playlists, err := h.svc.ListPlaylists(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playlists)
}

// GetPlaylistHandler GET /api/playlists/{id}
func (h *APIHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	p, err := h.svc.GetPlaylist(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreatePlaylistHandler POST /api/playlists
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var input model.Playlist
	if err := decodeBody(r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	p, err := h.svc.CreatePlaylist(ctx, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdatePlaylistHandler PUT /api/playlists/{id}
func (h *APIHandler) UpdatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var input model.Playlist
	if err := decodeBody(r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	p, err := h.svc.UpdatePlaylist(ctx, mux.Vars(r)["id"], input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePlaylistHandler DELETE /api/playlists/{id}
func (h *APIHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	if err := h.svc.DeletePlaylist(ctx, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AppendPlaylistTrackHandler POST /api/playlists/{id}/tracks
func (h *APIHandler) AppendPlaylistTrackHandler(w http.ResponseWriter, r *http.Request) {
	var ref model.PlaylistTrackRef
	if err := decodeBody(r, &ref); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	p, err := h.svc.AppendPlaylistTrack(ctx, mux.Vars(r)["id"], ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// RemovePlaylistTrackHandler DELETE /api/playlists/{id}/tracks/{ordinal}
func (h *APIHandler) RemovePlaylistTrackHandler(w http.ResponseWriter, r *http.Request) {
	ordinal, err := intVar(r, "ordinal")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	p, err := h.svc.RemovePlaylistTrack(ctx, mux.Vars(r)["id"], ordinal)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HealthHandler GET /healthz
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
