package services

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"roominventory/constants"
)

var ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")

const idempotencyProcessing = "processing"

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type RedisIdempotencyStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisIdempotencyStore(rdb *redis.Client, prefix string) *RedisIdempotencyStore {
	if prefix == "" {
		prefix = constants.IdempotencyPrefix
	}
	return &RedisIdempotencyStore{rdb: rdb, prefix: prefix}
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.rdb.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrIdempotencyKeyNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *RedisIdempotencyStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, s.prefix+key, value, ttl).Result()
}

func (s *RedisIdempotencyStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.rdb.Set(ctx, s.prefix+key, value, ttl).Err()
}

func (s *RedisIdempotencyStore) Del(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.prefix+key).Err()
}

// NoopIdempotencyStore không đảm bảo idempotency, chỉ dùng khi không có Redis
type NoopIdempotencyStore struct{}

func (NoopIdempotencyStore) Get(context.Context, string) (string, error) {
	return "", ErrIdempotencyKeyNotFound
}

func (NoopIdempotencyStore) SetNX(context.Context, string, string, time.Duration) (bool, error) {
	return true, nil
}

func (NoopIdempotencyStore) Set(context.Context, string, string, time.Duration) error { return nil }

func (NoopIdempotencyStore) Del(context.Context, string) error { return nil }
