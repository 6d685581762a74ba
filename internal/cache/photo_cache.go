package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"guitar-service/internal/config"
	"guitar-service/internal/model"
)

var ErrCacheMiss = errors.New("key not found in cache")

type RedisClient struct {
	Client *redis.Client
}

func InitRedisClient(ctx context.Context, cfg config.RedisConfig) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.Database,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	log.Println("Connected to Redis:", cfg.Addr)

	return &RedisClient{Client: client}, nil
}

func (r *RedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, key, data, expiration).Err()
}

func (r *RedisClient) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}
	return json.Unmarshal(data, dest)
}

func (r *RedisClient) Delete(ctx context.Context, keys ...string) error {
	return r.Client.Del(ctx, keys...).Err()
}

// PhotoCache stores photo bytes and content type under photo:{id}.
type PhotoCache struct {
	redis *RedisClient
	ttl   time.Duration
}

type cachedPhoto struct {
	Data     []byte `json:"data"`
	MimeType string `json:"mime_type"`
}

func NewPhotoCache(client *RedisClient, ttl time.Duration) *PhotoCache {
	return &PhotoCache{redis: client, ttl: ttl}
}

func photoKey(photoID int64) string {
	return fmt.Sprintf("photo:%d", photoID)
}

func (c *PhotoCache) Get(ctx context.Context, photoID int64) (*model.Photo, error) {
	var cached cachedPhoto
	if err := c.redis.Get(ctx, photoKey(photoID), &cached); err != nil {
		return nil, err
	}
	return &model.Photo{ID: photoID, ImageData: cached.Data, MimeType: cached.MimeType}, nil
}

func (c *PhotoCache) Set(ctx context.Context, photo *model.Photo) error {
	return c.redis.Set(ctx, photoKey(photo.ID), cachedPhoto{Data: photo.ImageData, MimeType: photo.MimeType}, c.ttl)
}

func (c *PhotoCache) Delete(ctx context.Context, photoIDs ...int64) error {
	if len(photoIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(photoIDs))
	for _, id := range photoIDs {
		keys = append(keys, photoKey(id))
	}
	return c.redis.Delete(ctx, keys...)
}
