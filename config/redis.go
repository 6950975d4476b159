package config

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis kết nối đến Redis, trả về nil khi REDIS_ADDR trống
func ConnectRedis(ctx context.Context, cfg *Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUser,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// Kiểm tra kết nối
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}
