package library

import (
	"context"
	"testing"

	"cdstash/core/query"
	"cdstash/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDefaultCatalog(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	res, err := svc.Seed(ctx, DefaultSeed, false)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 4, res.Albums)
	assert.Equal(t, 12+10+17+10, res.Tracks)

	albums, err := svc.ListAlbums(ctx)
	require.NoError(t, err)
	require.Len(t, albums, 4)
	assert.Equal(t, "4Only", albums[0].Title, "newest year first")

	four := albums[0]
	require.Len(t, four.Tracks, 10, "separately stored tracks are hydrated")
	assert.Equal(t, "Love Is Over", four.Tracks[0].Title)
	assert.Equal(t, "34:42", four.DurationTotal)
	stored, err := store.Albums().GetByID(ctx, four.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Tracks)

	nevermind := query.Apply(albums, query.Query{Search: "nevermind"})
	require.Len(t, nevermind, 1)
	assert.Nil(t, nevermind[0].Barcode)
	assert.Equal(t, "42:30", nevermind[0].DurationTotal)
	require.NotNil(t, nevermind[0].Tracks[0].AudioReference)
	assert.Equal(t, "nevermind-01.mp3", *nevermind[0].Tracks[0].AudioReference)

	res, err = svc.Seed(ctx, DefaultSeed, false)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, int64(4), res.Existing)
}

func TestSeedRejectsBadInput(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Seed(ctx, []byte("albums: [oops"), false)
	assert.Error(t, err)

	_, err = svc.Seed(ctx, []byte("albums:\n  - title: Untitled\n    artist: {a: b}\n"), false)
	assert.Error(t, err)

	res, err := svc.Seed(ctx, []byte("albums:\n  - title: No Artist\n"), false)
	assert.Error(t, err)
	assert.Zero(t, res.Albums)
}

func TestParseAlbumYAMLAndJSON(t *testing.T) {
	yamlDoc := []byte(`
title: Blue
artist: Joni Mitchell
year: 1971
genre: [Folk]
tracks:
  - title: All I Want
    duration: "3:32"
  - title: My Old Man
    duration: "3:33"
    audio: blue/02.flac
`)
	a, err := ParseAlbum(yamlDoc)
	require.NoError(t, err)
	assert.Equal(t, "Blue", a.Title)
	assert.Equal(t, model.StringList{"Joni Mitchell"}, a.Artist)
	assert.Nil(t, a.Barcode)
	assert.Empty(t, a.ID)
	require.Len(t, a.Tracks, 2)
	require.NotNil(t, a.Tracks[1].AudioReference)
	assert.Equal(t, "blue/02.flac", *a.Tracks[1].AudioReference)

	jsonDoc := []byte(`{"title": "Blue", "artist": ["Joni Mitchell"], "year": 1971,
		"tracks": [{"title": "All I Want", "duration": "3:32", "audioReference": "blue/01.flac"}]}`)
	b, err := ParseAlbum(jsonDoc)
	require.NoError(t, err)
	assert.Equal(t, 1971, b.Year)
	require.Len(t, b.Tracks, 1)
	assert.Equal(t, "blue/01.flac", *b.Tracks[0].AudioReference)

	_, err = ParseAlbum([]byte(`{"title": `))
	assert.Error(t, err)
	_, err = ParseAlbum([]byte("title: [oops"))
	assert.Error(t, err)
}

func TestPatchAlbumKeepsUntouchedFields(t *testing.T) {
	current := kindOfBlue()
	current.ID = "kob"
	current.Label = "Columbia"
	current.DurationTotal = "19:08"

	for name, doc := range map[string]string{
		"yaml": "label: Legacy\n",
		"json": `{"label": "Legacy"}`,
	} {
		t.Run(name, func(t *testing.T) {
			got, err := PatchAlbum(current, []byte(doc))
			require.NoError(t, err)
			assert.Equal(t, "kob", got.ID)
			assert.Equal(t, "Legacy", got.Label)
			assert.Equal(t, "Kind of Blue", got.Title)
			assert.Equal(t, model.StringList{"Miles Davis"}, got.Artist)
			assert.Equal(t, "19:08", got.DurationTotal)
			require.Len(t, got.Tracks, 2)
			assert.Equal(t, "So What", got.Tracks[0].Title)
		})
	}

	for name, doc := range map[string]string{
		"yaml": "tracks:\n  - title: Blue in Green\n",
		"json": `{"tracks": [{"title": "Blue in Green"}]}`,
	} {
		t.Run(name+" tracks", func(t *testing.T) {
			got, err := PatchAlbum(current, []byte(doc))
			require.NoError(t, err)
			require.Len(t, got.Tracks, 1)
			assert.Equal(t, "Blue in Green", got.Tracks[0].Title)
			assert.Nil(t, got.Tracks[0].Duration)
			assert.Empty(t, got.DurationTotal, "old total no longer describes the tracks")
		})
	}
	require.Len(t, current.Tracks, 2, "current is not modified")
	assert.Equal(t, "So What", current.Tracks[0].Title)
}
