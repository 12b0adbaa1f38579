package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bobarin/speechgate/internal/models"
	"github.com/go-redis/redis/v8"
)

const (
	redisFilePrefix = "files:"
	redisFileIndex  = "files:index"
)

// Redis is a file catalog keeping one JSON document per file plus a sorted
// set of ids scored by created_at.
type Redis struct {
	client *redis.Client
}

func NewRedis(redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Redis{client: client}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) InsertFile(ctx context.Context, file *models.FileObject) error {
	data, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to marshal file: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisFilePrefix+file.ID, data, 0)
		pipe.ZAdd(ctx, redisFileIndex, &redis.Z{
			Score:  float64(file.CreatedAt),
			Member: file.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to insert file: %w", err)
	}
	return nil
}

func (r *Redis) GetFile(ctx context.Context, id string) (*models.FileObject, error) {
	data, err := r.client.Get(ctx, redisFilePrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("file %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	var file models.FileObject
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal file: %w", err)
	}
	return &file, nil
}

func (r *Redis) ListFiles(ctx context.Context) ([]models.FileObject, error) {
	ids, err := r.client.ZRange(ctx, redisFileIndex, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	files := []models.FileObject{}
	if len(ids) == 0 {
		return files, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redisFilePrefix + id
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load files: %w", err)
	}

	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			// Removed between ZRANGE and MGET.
			continue
		}
		var file models.FileObject
		if err := json.Unmarshal([]byte(s), &file); err != nil {
			return nil, fmt.Errorf("failed to unmarshal file: %w", err)
		}
		files = append(files, file)
	}
	return files, nil
}

func (r *Redis) DeleteFile(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, redisFilePrefix+id)
		pipe.ZRem(ctx, redisFileIndex, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("file %s: %w", id, models.ErrNotFound)
	}
	return nil
}
