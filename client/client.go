// Package client 通过 REST API 访问 cd-stash 服务端，实现 catalog.Transport
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cdstash/core/apperr"
	"cdstash/core/catalog"
	"cdstash/logger"
	"cdstash/model"
)

var _ catalog.Transport = (*Client)(nil)

// Client cd-stash API 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建新的API客户端，baseURL 形如 http://127.0.0.1:8080
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL 返回服务端地址
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do 发送请求；2xx 时把响应体解码到 out，其余状态码还原为 apperr 中的错误
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	op := method + " " + path

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return &apperr.TransportError{Op: op, Message: "failed to encode request", Err: err}
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &apperr.TransportError{Op: op, Message: "failed to create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &apperr.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	logger.Debug("API request",
		logger.String("op", op),
		logger.Int("status", resp.StatusCode),
		logger.Duration("latency", time.Since(start)))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apperr.TransportError{Op: op, Status: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody apperr.Body
		if json.Unmarshal(raw, &errBody) != nil || errBody.Error == "" {
			return apperr.FromBody(op, resp.StatusCode, nil)
		}
		return apperr.FromBody(op, resp.StatusCode, &errBody)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &apperr.TransportError{Op: op, Status: resp.StatusCode, Message: "failed to decode response", Err: err}
	}
	return nil
}

func seg(s string) string {
	return url.PathEscape(s)
}

func (c *Client) ListAlbums(ctx context.Context) ([]model.Album, error) {
	var albums []model.Album
	if err := c.do(ctx, http.MethodGet, "/api/albums", nil, &albums); err != nil {
		return nil, err
	}
	return albums, nil
}

func (c *Client) GetAlbum(ctx context.Context, id string) (model.Album, error) {
	var album model.Album
	err := c.do(ctx, http.MethodGet, "/api/albums/"+seg(id), nil, &album)
	return album, err
}

func (c *Client) ListAlbumTracks(ctx context.Context, albumID string) ([]model.Track, error) {
	var tracks []model.Track
	if err := c.do(ctx, http.MethodGet, "/api/albums/"+seg(albumID)+"/tracks", nil, &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

func (c *Client) GetTrack(ctx context.Context, id string) (model.Track, error) {
	var track model.Track
	err := c.do(ctx, http.MethodGet, "/api/tracks/"+seg(id), nil, &track)
	return track, err
}

func (c *Client) CreateAlbum(ctx context.Context, album model.Album) (model.Album, error) {
	var created model.Album
	err := c.do(ctx, http.MethodPost, "/api/albums", album, &created)
	return created, err
}

func (c *Client) UpdateAlbum(ctx context.Context, id string, album model.Album) (model.Album, error) {
	var updated model.Album
	err := c.do(ctx, http.MethodPut, "/api/albums/"+seg(id), album, &updated)
	return updated, err
}

func (c *Client) DeleteAlbum(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/albums/"+seg(id), nil, nil)
}

func (c *Client) ListPlaylists(ctx context.Context) ([]model.Playlist, error) {
	var playlists []model.Playlist
	if err := c.do(ctx, http.MethodGet, "/api/playlists", nil, &playlists); err != nil {
		return nil, err
	}
	return playlists, nil
}

func (c *Client) GetPlaylist(ctx context.Context, id string) (model.Playlist, error) {
	var p model.Playlist
	err := c.do(ctx, http.MethodGet, "/api/playlists/"+seg(id), nil, &p)
	return p, err
}

func (c *Client) CreatePlaylist(ctx context.Context, playlist model.Playlist) (model.Playlist, error) {
	var created model.Playlist
	err := c.do(ctx, http.MethodPost, "/api/playlists", playlist, &created)
	return created, err
}

func (c *Client) UpdatePlaylist(ctx context.Context, id string, playlist model.Playlist) (model.Playlist, error) {
	var updated model.Playlist
	err := c.do(ctx, http.MethodPut, "/api/playlists/"+seg(id), playlist, &updated)
	return updated, err
}

func (c *Client) DeletePlaylist(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/playlists/"+seg(id), nil, nil)
}

func (c *Client) AppendPlaylistTrack(ctx context.Context, playlistID string, ref model.PlaylistTrackRef) (model.Playlist, error) {
	var p model.Playlist
	err := c.do(ctx, http.MethodPost, "/api/playlists/"+seg(playlistID)+"/tracks", ref, &p)
	return p, err
}

func (c *Client) RemovePlaylistTrack(ctx context.Context, playlistID string, ordinal int) (model.Playlist, error) {
	var p model.Playlist
	path := fmt.Sprintf("/api/playlists/%s/tracks/%d", seg(playlistID), ordinal)
	err := c.do(ctx, http.MethodDelete, path, nil, &p)
	return p, err
}

// ResolveAudio 以 JSON 形式请求播放地址，不跟随跳转
func (c *Client) ResolveAudio(ctx context.Context, albumID string, trackIndex int) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	path := "/api/tracks/" + seg(albumID) + "/" + strconv.Itoa(trackIndex) + "/stream?format=json"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}
