package library

import (
	"context"
	"testing"

	"cdstash/core/apperr"
	"cdstash/model"
	"cdstash/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLocator struct{}

func (fakeLocator) Locate(ctx context.Context, t model.Track) (string, error) {
	if t.AudioReference == nil {
		return "", apperr.NotFound("audio", t.Title)
	}
	return "https://cdn.test/" + *t.AudioReference, nil
}

func strp(s string) *string { return &s }

func newTestService() (*Service, *repository.MemoryStore) {
	store := repository.NewMemoryStore()
	return NewService(store.Albums(), store.Tracks(), store.Playlists(), fakeLocator{}), store
}

func kindOfBlue() model.Album {
	return model.Album{
		Title:  "Kind of Blue",
		Artist: model.StringList{"Miles Davis"},
		Year:   1959,
		Tracks: []model.Track{
			{Title: "So What", Duration: strp("9:22"), AudioReference: strp("so-what.flac")},
			{Title: "Freddie Freeloader", Duration: strp("9:46")},
		},
	}
}

func TestCreateAlbumDerivesDurationTotal(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.CreateAlbum(ctx, kindOfBlue())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "19:08", created.DurationTotal)
	assert.Equal(t, 1, created.Tracks[0].TrackNumber)
	assert.Equal(t, 2, created.Tracks[1].TrackNumber)

	got, err := svc.GetAlbum(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)
}

func TestCreateAlbumTotalFollowsTracks(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// 曲目时长全部已知时以曲目为准
	a := kindOfBlue()
	a.DurationTotal = "45:44"
	created, err := svc.CreateAlbum(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "19:08", created.DurationTotal)

	// 有未知时长时沿用传入值
	b := kindOfBlue()
	b.Tracks[1].Duration = nil
	b.DurationTotal = "45:44"
	created, err = svc.CreateAlbum(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "45:44", created.DurationTotal)

	c := kindOfBlue()
	c.Tracks[1].Duration = nil
	created, err = svc.CreateAlbum(ctx, c)
	require.NoError(t, err)
	assert.Empty(t, created.DurationTotal)
}

func TestCreateAlbumValidation(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	tests := []struct {
		name  string
		album model.Album
		field string
	}{
		{"missing title", model.Album{Artist: model.StringList{"X"}}, "title"},
		{"missing artist", model.Album{Title: "T"}, "artist"},
		{"bad track duration", model.Album{Title: "T", Artist: model.StringList{"X"},
			Tracks: []model.Track{{Title: "a", Duration: strp("3:7")}}}, "tracks[0].duration"},
		{"untitled track", model.Album{Title: "T", Artist: model.StringList{"X"},
			Tracks: []model.Track{{Title: " "}}}, "tracks[0].title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateAlbum(ctx, tt.album)
			ve, ok := apperr.AsValidation(err)
			require.True(t, ok, "got %v", err)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}

	n, err := store.Albums().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdateAndDeleteUnknownAlbum(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.UpdateAlbum(ctx, "missing", kindOfBlue())
	assert.True(t, apperr.IsNotFound(err))
	assert.True(t, apperr.IsNotFound(svc.DeleteAlbum(ctx, "missing")))
	_, err = svc.GetAlbum(ctx, "missing")
	assert.True(t, apperr.IsNotFound(err))
}

func TestUpdateAlbumReplacesRecord(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.CreateAlbum(ctx, kindOfBlue())
	require.NoError(t, err)

	edit := created
	edit.Title = "Kind of Blue (Legacy Edition)"
	edit.Tracks = edit.Tracks[:1]
	updated, err := svc.UpdateAlbum(ctx, created.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, "Kind of Blue (Legacy Edition)", updated.Title)
	assert.Len(t, updated.Tracks, 1)
	assert.Equal(t, "9:22", updated.DurationTotal)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
}

func TestIndependentTracks(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	album, err := svc.CreateAlbum(ctx, model.Album{Title: "4Only", Artist: model.StringList{"Various"}})
	require.NoError(t, err)

	_, err = svc.ImportTracks(ctx, album.ID, []model.Track{
		{Title: "B", DiscNumber: 2, TrackNumber: 1, Duration: strp("1:00")},
		{Title: "A", TrackNumber: 1, Duration: strp("2:30")},
	})
	require.NoError(t, err)

	tracks, err := svc.ListAlbumTracks(ctx, album.ID)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "A", tracks[0].Title)
	assert.Equal(t, "B", tracks[1].Title)

	got, err := svc.GetAlbum(ctx, album.ID)
	require.NoError(t, err)
	assert.Len(t, got.Tracks, 2)
	assert.Equal(t, "3:30", got.DurationTotal)

	one, err := svc.GetTrack(ctx, tracks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "A", one.Title)

	require.NoError(t, svc.DeleteAlbum(ctx, album.ID))
	left, err := store.Tracks().ListByAlbum(ctx, album.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestImportTracksValidates(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	album, err := svc.CreateAlbum(ctx, model.Album{Title: "4Only", Artist: model.StringList{"Various"}})
	require.NoError(t, err)

	_, err = svc.ImportTracks(ctx, album.ID, []model.Track{{Title: "ok"}, {Title: ""}})
	ve, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "tracks[1].title")

	_, err = svc.ImportTracks(ctx, "missing", nil)
	assert.True(t, apperr.IsNotFound(err))
}

func TestPlaylistEntries(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p, err := svc.CreatePlaylist(ctx, model.Playlist{Name: "Late night"})
	require.NoError(t, err)
	assert.Empty(t, p.Tracks)

	for i := 0; i < 3; i++ {
		p, err = svc.AppendPlaylistTrack(ctx, p.ID, model.PlaylistTrackRef{AlbumID: "a", TrackIndex: i})
		require.NoError(t, err)
	}
	require.Len(t, p.Tracks, 3)

	p, err = svc.RemovePlaylistTrack(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []model.PlaylistTrackRef{{AlbumID: "a", TrackIndex: 0}, {AlbumID: "a", TrackIndex: 2}}, p.Tracks)

	_, err = svc.RemovePlaylistTrack(ctx, p.ID, 2)
	assert.True(t, apperr.IsValidation(err))
	_, err = svc.RemovePlaylistTrack(ctx, p.ID, -1)
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.AppendPlaylistTrack(ctx, p.ID, model.PlaylistTrackRef{TrackIndex: 0})
	assert.True(t, apperr.IsValidation(err))
	_, err = svc.AppendPlaylistTrack(ctx, "missing", model.PlaylistTrackRef{AlbumID: "a"})
	assert.True(t, apperr.IsNotFound(err))
}

func TestPlaylistCRUD(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreatePlaylist(ctx, model.Playlist{Name: "  "})
	assert.True(t, apperr.IsValidation(err))

	p, err := svc.CreatePlaylist(ctx, model.Playlist{Name: "Road trip", Description: "long drives"})
	require.NoError(t, err)

	p.Name = "Road trip 2"
	updated, err := svc.UpdatePlaylist(ctx, p.ID, p)
	require.NoError(t, err)
	assert.Equal(t, "Road trip 2", updated.Name)
	assert.Equal(t, p.CreatedAt, updated.CreatedAt)

	all, err := svc.ListPlaylists(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, svc.DeletePlaylist(ctx, p.ID))
	assert.True(t, apperr.IsNotFound(svc.DeletePlaylist(ctx, p.ID)))
	_, err = svc.UpdatePlaylist(ctx, p.ID, p)
	assert.True(t, apperr.IsNotFound(err))
}

func TestResolveAudio(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	album, err := svc.CreateAlbum(ctx, kindOfBlue())
	require.NoError(t, err)

	u, err := svc.ResolveAudio(ctx, album.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/so-what.flac", u)

	_, err = svc.ResolveAudio(ctx, album.ID, 1)
	assert.True(t, apperr.IsNotFound(err))
	_, err = svc.ResolveAudio(ctx, album.ID, 5)
	assert.True(t, apperr.IsNotFound(err))
	_, err = svc.ResolveAudio(ctx, "missing", 0)
	assert.True(t, apperr.IsNotFound(err))
}

func TestUpdateAlbumRederivesTotal(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.CreateAlbum(ctx, kindOfBlue())
	require.NoError(t, err)
	require.Equal(t, "19:08", created.DurationTotal)

	// 编辑服务端返回的记录，带着旧的总时长追加曲目
	edit := created
	edit.Tracks = append(append([]model.Track{}, created.Tracks...), model.Track{Title: "Blue in Green", Duration: strp("5:37")})
	updated, err := svc.UpdateAlbum(ctx, created.ID, edit)
	require.NoError(t, err)
	assert.Len(t, updated.Tracks, 3)
	assert.Equal(t, "24:45", updated.DurationTotal)

	got, err := svc.GetAlbum(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "24:45", got.DurationTotal)
}
