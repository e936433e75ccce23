package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nikolayk812/cartstore/internal/port"
	"github.com/redis/go-redis/v9"
)

type redisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis stores snapshots as plain strings. A zero ttl keeps them forever.
func NewRedis(client *redis.Client, ttl time.Duration) port.SnapshotRepository {
	return &redisRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *redisRepository) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, fmt.Errorf("key is empty")
	}

	value, err := r.client.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get failed: %w", err)
	}

	return value, true, nil
}

func (r *redisRepository) Set(ctx context.Context, key string, value string) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}

	if err := r.client.Set(ctx, redisKey(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func redisKey(key string) string {
	return fmt.Sprintf("cart:%s", key)
}
