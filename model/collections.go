package model

// MongoDB 集合名
const (
	CollectionAlbums    = "albums"
	CollectionTracks    = "tracks"
	CollectionPlaylists = "playlists"
)
