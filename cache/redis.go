package cache

import (
	"context"
	"fmt"
	"time"

	"cdstash/config"

	"github.com/cockroachdb/errors"
	"github.com/go-redis/redis/v8"
)

// RedisClient 是全局Redis客户端
var RedisClient *redis.Client

// ConnectRedis 初始化Redis连接
func ConnectRedis(cfg *config.Config) error {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return errors.Wrap(err, "failed to connect to Redis")
	}
	RedisClient = client
	return nil
}

// CloseRedis 关闭Redis连接
func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}

// CheckRedis 写入、读取并删除一个检查键，确认读写正常
func CheckRedis(ctx context.Context, client *redis.Client) error {
	if client == nil {
		return errors.New("Redis client not initialized")
	}

	const checkKey = keyPrefix + "healthcheck"
	const checkValue = "cdstash redis healthcheck"

	if err := client.Set(ctx, checkKey, checkValue, time.Minute).Err(); err != nil {
		return errors.Wrap(err, "failed to set Redis key")
	}
	val, err := client.Get(ctx, checkKey).Result()
	if err != nil {
		return errors.Wrap(err, "failed to get Redis key")
	}
	if val != checkValue {
		return errors.Newf("unexpected value from Redis: got %s", val)
	}
	if err := client.Del(ctx, checkKey).Err(); err != nil {
		return errors.Wrap(err, "failed to delete Redis key")
	}
	return nil
}
