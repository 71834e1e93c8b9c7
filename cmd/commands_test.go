package cmd

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cdstash/core/library"
	"cdstash/model"
	"cdstash/repository"
	"cdstash/server"
	"cdstash/storage"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestAPI 启动内存存储的服务端，CLI 通过 CDSTASH_API 连接它
func newTestAPI(t *testing.T) *library.Service {
	t.Helper()
	mem := repository.NewMemoryStore()
	svc := library.NewService(mem.Albums(), mem.Tracks(), mem.Playlists(),
		storage.NewAudioLocator(nil, "", time.Hour))
	srv := httptest.NewServer(server.NewRouter(svc, 5*time.Second))
	t.Cleanup(srv.Close)

	t.Setenv("CDSTASH_API", srv.URL)
	t.Setenv("LOG_FILE", "")
	return svc
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const blueYAML = `title: Blue
artist: Joni Mitchell
year: 1971
genre: [folk]
tracks:
  - title: All I Want
    duration: "3:32"
  - title: My Old Man
    duration: "3:33"
`

func TestAlbumCreateEditShow(t *testing.T) {
	svc := newTestAPI(t)
	ctx := context.Background()

	out, err := runCLI(t, "", "albums", "create", "-f", writeFile(t, "blue.yaml", blueYAML))
	require.NoError(t, err)
	assert.Contains(t, out, "已创建专辑 Blue")
	assert.Contains(t, out, "Joni Mitchell - Blue (1971)")
	assert.Contains(t, out, "Total: 7:05")

	albums, err := svc.ListAlbums(ctx)
	require.NoError(t, err)
	require.Len(t, albums, 1)
	id := albums[0].ID

	// YAML 补丁只改 label，曲目保持不变
	out, err = runCLI(t, "", "albums", "edit", id, "-f", writeFile(t, "patch.yaml", "label: Reprise\n"))
	require.NoError(t, err)
	assert.Contains(t, out, "已更新专辑 Blue")
	assert.Contains(t, out, "Label:   Reprise")
	assert.Contains(t, out, "Total: 7:05")

	// JSON 从标准输入读取，tracks 整体替换
	patch := `{"tracks": [{"title": "Carey", "duration": "3:00"}]}`
	out, err = runCLI(t, patch, "albums", "edit", id, "--file", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Carey")
	assert.NotContains(t, out, "All I Want")
	assert.Contains(t, out, "Total: 3:00")

	got, err := svc.GetAlbum(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Reprise", got.Label)
	assert.Equal(t, "3:00", got.DurationTotal)
	assert.Len(t, got.Tracks, 1)

	out, err = runCLI(t, "", "albums", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Carey")
	assert.Contains(t, out, "Label:   Reprise")
}

func TestAlbumShowOrdersTracks(t *testing.T) {
	svc := newTestAPI(t)
	created, err := svc.CreateAlbum(context.Background(), model.Album{
		Title:  "Kind of Blue",
		Artist: model.StringList{"Miles Davis"},
		Tracks: []model.Track{
			{Title: "Freddie Freeloader", TrackNumber: 2},
			{Title: "So What", TrackNumber: 1},
		},
	})
	require.NoError(t, err)

	out, err := runCLI(t, "", "albums", "show", created.ID)
	require.NoError(t, err)
	first, second := strings.Index(out, "So What"), strings.Index(out, "Freddie Freeloader")
	require.True(t, first >= 0 && second >= 0, out)
	assert.Less(t, first, second)
}

func TestAlbumCreateRejectsInvalidFile(t *testing.T) {
	svc := newTestAPI(t)

	_, err := runCLI(t, "", "albums", "create", "-f", writeFile(t, "bad.yaml", "year: 1971\n"))
	assert.Error(t, err)

	_, err = runCLI(t, "", "albums", "create", "-f", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read")

	albums, err := svc.ListAlbums(context.Background())
	require.NoError(t, err)
	assert.Empty(t, albums)
}

func TestReadAlbumFile(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("title: Blue\n"))

	_, err := readAlbumFile(cmd, "")
	assert.ErrorContains(t, err, "--file is required")

	data, err := readAlbumFile(cmd, "-")
	require.NoError(t, err)
	assert.Equal(t, "title: Blue\n", string(data))

	data, err = readAlbumFile(cmd, writeFile(t, "a.json", `{"title":"Blue"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Blue"}`, string(data))
}

func TestPlaylistUpdate(t *testing.T) {
	svc := newTestAPI(t)
	ctx := context.Background()

	out, err := runCLI(t, "", "playlist", "create", "Evening", "-d", "quiet records")
	require.NoError(t, err)
	assert.Contains(t, out, "已创建播放列表 Evening")

	playlists, err := svc.ListPlaylists(ctx)
	require.NoError(t, err)
	require.Len(t, playlists, 1)
	id := playlists[0].ID

	out, err = runCLI(t, "", "playlist", "update", id, "--name", "Late night")
	require.NoError(t, err)
	assert.Contains(t, out, "已更新播放列表 Late night ("+id+")")

	got, err := svc.GetPlaylist(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Late night", got.Name)
	assert.Equal(t, "quiet records", got.Description)
}

func newUpdateFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "update"}
	c.Flags().StringVarP(&playlistName, "name", "n", "", "")
	c.Flags().StringVarP(&playlistDescription, "description", "d", "", "")
	require.NoError(t, c.ParseFlags(args))
	return c
}

func TestApplyPlaylistFlags(t *testing.T) {
	base := model.Playlist{ID: "p1", Name: "Evening", Description: "quiet"}

	p := base
	assert.Error(t, applyPlaylistFlags(newUpdateFlags(t), &p))
	assert.Equal(t, base, p)

	p = base
	require.NoError(t, applyPlaylistFlags(newUpdateFlags(t, "-d", ""), &p))
	assert.Equal(t, "Evening", p.Name)
	assert.Empty(t, p.Description)

	p = base
	require.NoError(t, applyPlaylistFlags(newUpdateFlags(t, "-n", "Morning", "-d", "loud"), &p))
	assert.Equal(t, "Morning", p.Name)
	assert.Equal(t, "loud", p.Description)
}
