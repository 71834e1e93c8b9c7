package db

import (
	"context"
	"time"

	"cdstash/config"
	"cdstash/logger"
	"cdstash/model"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectMongo 连接 MongoDB 并确认主节点可达
func ConnectMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to MongoDB")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, errors.Wrap(err, "failed to ping MongoDB")
	}
	logger.Info("Connected to MongoDB", logger.String("database", cfg.MongoDatabase))
	return client, client.Database(cfg.MongoDatabase), nil
}

// DisconnectMongo 断开连接
func DisconnectMongo(client *mongo.Client) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return client.Disconnect(ctx)
}

// CreateIndexes 创建集合索引，失败只记录日志
func CreateIndexes(ctx context.Context, database *mongo.Database) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	albums := database.Collection(model.CollectionAlbums)
	createIndex(ctx, albums, bson.D{{Key: "year", Value: -1}}, "year", false)
	createIndex(ctx, albums, bson.D{{Key: "title", Value: 1}}, "title", false)

	// 同一专辑内 (碟号, 曲目号) 唯一
	tracks := database.Collection(model.CollectionTracks)
	createIndex(ctx, tracks, bson.D{
		{Key: "album_id", Value: 1},
		{Key: "disc_no", Value: 1},
		{Key: "track_no", Value: 1}}, "album_disc_track_unique", true)

	playlists := database.Collection(model.CollectionPlaylists)
	createIndex(ctx, playlists, bson.D{{Key: "created_at", Value: 1}}, "created_at", false)
}

func createIndex(ctx context.Context, collection *mongo.Collection, keys bson.D, name string, unique bool) {
	indexModel := mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetName(name).SetUnique(unique),
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		logger.Warn("创建索引失败",
			logger.String("collection", collection.Name()),
			logger.String("index", name),
			logger.ErrorField(err))
		return
	}
	logger.Debug("索引创建成功", logger.String("collection", collection.Name()), logger.String("index", name))
}
