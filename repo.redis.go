package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type redisShelfStorage struct {
	logger *zap.Logger
	client *redis.Client
	key    string
}

// NewRedisShelfStorage provides an instance of redis-based shelf storage.
func NewRedisShelfStorage(logger *zap.Logger, client *redis.Client, key string) ShelfStorage {
	return &redisShelfStorage{
		logger: logger,
		client: client,
		key:    key,
	}
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Redis.Host, config.Redis.Port),
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		PoolSize:     config.Redis.PoolSize,
		PoolTimeout:  config.Redis.PoolTimeout,
		Password:     config.Redis.Password,
		Username:     config.Redis.Username,
		DB:           config.Redis.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// Load reads the shelf record.
func (rs *redisShelfStorage) Load(ctx context.Context) (Shelf, error) {
	var shelf Shelf
	shelfJSONString, err := rs.client.Get(ctx, rs.key).Result()
	if errors.Is(err, redis.Nil) {
		return shelf, ErrShelfNotFound
	}
	if err != nil {
		return shelf, err
	}
	err = json.Unmarshal([]byte(shelfJSONString), &shelf)
	return shelf, err
}

// Save overwrites the shelf record.
func (rs *redisShelfStorage) Save(ctx context.Context, shelf Shelf) error {
	shelfBytes, err := json.Marshal(shelf)
	if err != nil {
		return err
	}
	return rs.client.Set(ctx, rs.key, shelfBytes, 0).Err()
}

// Close is a no-op, the client is shared with the queue and closed by the app.
func (rs *redisShelfStorage) Close() error {
	return nil
}
