package repository

import (
	"context"
	"reflect"
	"strings"
	"time"

	"cdstash/model"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// albumDocument 专辑在 MongoDB 中的存储形态，_id 使用 ObjectID
type albumDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	model.Album `bson:",inline"`
}

func (d albumDocument) toModel() model.Album {
	a := d.Album
	a.ID = d.ID.Hex()
	a.Normalize()
	return a
}

type trackDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	model.Track `bson:",inline"`
}

func (d trackDocument) toModel() model.Track {
	t := d.Track
	t.ID = d.ID.Hex()
	return t
}

type playlistDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	model.Playlist `bson:",inline"`
}

func (d playlistDocument) toModel() model.Playlist {
	p := d.Playlist
	p.ID = d.ID.Hex()
	p.Normalize()
	return p
}

// objectID 非法的十六进制 ID 视为不存在
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// updateDocument 生成整体替换用的更新文档：编码后存在的字段 $set，
// 被 omitempty 省略的字段 $unset，保证清空字段也能写回；immutable 中的字段不动
func updateDocument(v interface{}, immutable ...string) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var set bson.M
	if err := bson.Unmarshal(raw, &set); err != nil {
		return nil, err
	}
	skip := map[string]bool{"_id": true}
	for _, key := range immutable {
		skip[key] = true
	}
	for key := range skip {
		delete(set, key)
	}

	unset := bson.M{}
	for _, key := range bsonKeys(reflect.TypeOf(v)) {
		if _, ok := set[key]; ok || skip[key] {
			continue
		}
		unset[key] = ""
	}

	update := bson.M{"$set": set}
	// 空的 $unset 会被服务端拒绝
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update, nil
}

// bsonKeys 列出结构体按 bson 标签编码时可能出现的全部键
func bsonKeys(t reflect.Type) []string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("bson"), ",")
		if name == "-" {
			continue
		}
		if strings.Contains(opts, "inline") {
			keys = append(keys, bsonKeys(f.Type)...)
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		keys = append(keys, name)
	}
	return keys
}

// ========== 专辑 ==========

type mongoAlbumRepository struct {
	coll *driver.Collection
}

// NewMongoAlbumRepository 创建 MongoDB 专辑仓库
func NewMongoAlbumRepository(db *driver.Database) AlbumRepository {
	return &mongoAlbumRepository{coll: db.Collection(model.CollectionAlbums)}
}

func (r *mongoAlbumRepository) List(ctx context.Context) ([]model.Album, error) {
	opts := options.Find().SetSort(bson.D{{Key: "year", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list albums")
	}
	defer cursor.Close(ctx)

	var docs []albumDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "failed to decode albums")
	}
	albums := make([]model.Album, 0, len(docs))
	for _, d := range docs {
		albums = append(albums, d.toModel())
	}
	return albums, nil
}

func (r *mongoAlbumRepository) GetByID(ctx context.Context, id string) (*model.Album, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}
	var doc albumDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, driver.ErrNoDocuments) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to get album %s", id)
	}
	album := doc.toModel()
	return &album, nil
}

func (r *mongoAlbumRepository) Create(ctx context.Context, album *model.Album) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	album.CreatedAt, album.UpdatedAt = now, now

	res, err := r.coll.InsertOne(ctx, albumDocument{Album: *album})
	if err != nil {
		return errors.Wrap(err, "failed to create album")
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		album.ID = oid.Hex()
	}
	return nil
}

func (r *mongoAlbumRepository) Update(ctx context.Context, album *model.Album) (bool, error) {
	oid, ok := objectID(album.ID)
	if !ok {
		return false, nil
	}
	album.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update, err := updateDocument(album, "created_at")
	if err != nil {
		return false, errors.Wrap(err, "failed to encode album")
	}

	var before albumDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update).Decode(&before)
	if err != nil {
		if errors.Is(err, driver.ErrNoDocuments) {
			return false, nil
		}
		return false, errors.Wrapf(err, "failed to update album %s", album.ID)
	}
	album.CreatedAt = before.CreatedAt
	return true, nil
}

func (r *mongoAlbumRepository) Delete(ctx context.Context, id string) (bool, error) {
	oid, ok := objectID(id)
	if !ok {
		return false, nil
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, errors.Wrapf(err, "failed to delete album %s", id)
	}
	return res.DeletedCount > 0, nil
}

func (r *mongoAlbumRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, errors.Wrap(err, "failed to count albums")
	}
	return n, nil
}

// ========== 曲目 ==========

type mongoTrackRepository struct {
	coll *driver.Collection
}

// NewMongoTrackRepository 创建 MongoDB 曲目仓库
func NewMongoTrackRepository(db *driver.Database) TrackRepository {
	return &mongoTrackRepository{coll: db.Collection(model.CollectionTracks)}
}

func (r *mongoTrackRepository) ListByAlbum(ctx context.Context, albumID string) ([]model.Track, error) {
	opts := options.Find().SetSort(bson.D{{Key: "disc_no", Value: 1}, {Key: "track_no", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"album_id": albumID}, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list tracks of album %s", albumID)
	}
	defer cursor.Close(ctx)

	var docs []trackDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "failed to decode tracks")
	}
	tracks := make([]model.Track, 0, len(docs))
	for _, d := range docs {
		tracks = append(tracks, d.toModel())
	}
	return tracks, nil
}

func (r *mongoTrackRepository) GetByID(ctx context.Context, id string) (*model.Track, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}
	var doc trackDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, driver.ErrNoDocuments) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to get track %s", id)
	}
	track := doc.toModel()
	return &track, nil
}

func (r *mongoTrackRepository) ReplaceForAlbum(ctx context.Context, albumID string, tracks []model.Track) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"album_id": albumID}); err != nil {
		return errors.Wrapf(err, "failed to clear tracks of album %s", albumID)
	}
	if len(tracks) == 0 {
		return nil
	}
	docs := make([]interface{}, len(tracks))
	for i := range tracks {
		tracks[i].AlbumID = albumID
		t := tracks[i]
		t.ID = ""
		docs[i] = trackDocument{Track: t}
	}
	res, err := r.coll.InsertMany(ctx, docs)
	if err != nil {
		return errors.Wrapf(err, "failed to insert tracks of album %s", albumID)
	}
	for i, id := range res.InsertedIDs {
		if oid, ok := id.(primitive.ObjectID); ok && i < len(tracks) {
			tracks[i].ID = oid.Hex()
		}
	}
	return nil
}

func (r *mongoTrackRepository) DeleteByAlbum(ctx context.Context, albumID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"album_id": albumID})
	if err != nil {
		return 0, errors.Wrapf(err, "failed to delete tracks of album %s", albumID)
	}
	return res.DeletedCount, nil
}

// ========== 播放列表 ==========

type mongoPlaylistRepository struct {
	coll *driver.Collection
}

// NewMongoPlaylistRepository 创建 MongoDB 播放列表仓库
func NewMongoPlaylistRepository(db *driver.Database) PlaylistRepository {
	return &mongoPlaylistRepository{coll: db.Collection(model.CollectionPlaylists)}
}

func (r *mongoPlaylistRepository) List(ctx context.Context) ([]model.Playlist, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list playlists")
	}
	defer cursor.Close(ctx)

	var docs []playlistDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "failed to decode playlists")
	}
	playlists := make([]model.Playlist, 0, len(docs))
	for _, d := range docs {
		playlists = append(playlists, d.toModel())
	}
	return playlists, nil
}

func (r *mongoPlaylistRepository) GetByID(ctx context.Context, id string) (*model.Playlist, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}
	var doc playlistDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, driver.ErrNoDocuments) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to get playlist %s", id)
	}
	playlist := doc.toModel()
	return &playlist, nil
}

func (r *mongoPlaylistRepository) Create(ctx context.Context, playlist *model.Playlist) error {
	playlist.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	res, err := r.coll.InsertOne(ctx, playlistDocument{Playlist: *playlist})
	if err != nil {
		return errors.Wrap(err, "failed to create playlist")
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		playlist.ID = oid.Hex()
	}
	return nil
}

func (r *mongoPlaylistRepository) Update(ctx context.Context, playlist *model.Playlist) (bool, error) {
	oid, ok := objectID(playlist.ID)
	if !ok {
		return false, nil
	}
	update, err := updateDocument(playlist, "created_at")
	if err != nil {
		return false, errors.Wrap(err, "failed to encode playlist")
	}

	var before playlistDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update).Decode(&before)
	if err != nil {
		if errors.Is(err, driver.ErrNoDocuments) {
			return false, nil
		}
		return false, errors.Wrapf(err, "failed to update playlist %s", playlist.ID)
	}
	playlist.CreatedAt = before.CreatedAt
	return true, nil
}

func (r *mongoPlaylistRepository) Delete(ctx context.Context, id string) (bool, error) {
	oid, ok := objectID(id)
	if !ok {
		return false, nil
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, errors.Wrapf(err, "failed to delete playlist %s", id)
	}
	return res.DeletedCount > 0, nil
}
