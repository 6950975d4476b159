package services

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// Cache lưu dữ liệu dẫn xuất có thời hạn; tag dùng để xoá theo nhóm (vd: theo phòng).
// Mỗi lần Invalidate một tag thì bộ đếm thế hệ của tag đó tăng lên.
type Cache interface {
	Get(ctx context.Context, key string, target interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration, tags ...string) error
	Invalidate(ctx context.Context, tags ...string) error
	Generations(ctx context.Context, tags ...string) (map[string]int64, error)
	// SetIfUnchanged chỉ ghi khi không tag nào trong guard bị invalidate kể từ lúc đọc Generations
	SetIfUnchanged(ctx context.Context, guard map[string]int64, key string, value interface{}, ttl time.Duration, tags ...string) (bool, error)
}

type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

// Hàm lấy data từ Redis, trả về false khi không có key
func (c *RedisCache) Get(ctx context.Context, key string, target interface{}) (bool, error) {
	cachedData, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	// Parse JSON thành object
	if err := json.Unmarshal(cachedData, target); err != nil {
		return false, err
	}
	return true, nil
}

// Hàm lưu dữ liệu vào Redis, đồng thời ghi key vào set của từng tag
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration, tags ...string) error {
	dataJSON, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		writeTagged(ctx, pipe, key, dataJSON, ttl, tags)
		return nil
	})
	return err
}

// Hàm xóa cache Redis theo tag.
// Tăng thế hệ trước khi đọc set để lần ghi đang dở của người đọc cũ bị huỷ hoặc bị xoá.
func (c *RedisCache) Invalidate(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		if err := c.rdb.Incr(ctx, generationKey(tag)).Err(); err != nil {
			return err
		}
		keys, err := c.rdb.SMembers(ctx, tag).Result()
		if err != nil {
			return err
		}
		keys = append(keys, tag)
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (c *RedisCache) Generations(ctx context.Context, tags ...string) (map[string]int64, error) {
	return readGenerations(ctx, c.rdb, tags)
}

func (c *RedisCache) SetIfUnchanged(ctx context.Context, guard map[string]int64, key string, value interface{}, ttl time.Duration, tags ...string) (bool, error) {
	dataJSON, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	guarded := make([]string, 0, len(guard))
	for tag := range guard {
		guarded = append(guarded, tag)
	}
	sort.Strings(guarded)
	watchKeys := make([]string, len(guarded))
	for i, tag := range guarded {
		watchKeys[i] = generationKey(tag)
	}

	stored := false
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGenerations(ctx, tx, guarded)
		if err != nil {
			return err
		}
		for tag, want := range guard {
			if current[tag] != want {
				return nil
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			writeTagged(ctx, pipe, key, dataJSON, ttl, tags)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, watchKeys...)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return stored, err
}

func writeTagged(ctx context.Context, pipe redis.Pipeliner, key string, data []byte, ttl time.Duration, tags []string) {
	pipe.Set(ctx, key, data, ttl)
	for _, tag := range tags {
		pipe.SAdd(ctx, tag, key)
		pipe.Expire(ctx, tag, ttl)
	}
}

type multiGetter interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

func readGenerations(ctx context.Context, cmd multiGetter, tags []string) (map[string]int64, error) {
	gens := make(map[string]int64, len(tags))
	if len(tags) == 0 {
		return gens, nil
	}
	keys := make([]string, len(tags))
	for i, tag := range tags {
		keys[i] = generationKey(tag)
	}
	values, err := cmd.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			gens[tags[i]] = 0
			continue
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		gens[tags[i]] = n
	}
	return gens, nil
}

func generationKey(tag string) string {
	return tag + ":gen"
}

// NoopCache dùng khi không có Redis: luôn miss
type NoopCache struct{}

func (NoopCache) Get(context.Context, string, interface{}) (bool, error) { return false, nil }

func (NoopCache) Set(context.Context, string, interface{}, time.Duration, ...string) error {
	return nil
}

func (NoopCache) Invalidate(context.Context, ...string) error { return nil }

// Generations trả về nil để người gọi bỏ qua bước ghi cache
func (NoopCache) Generations(context.Context, ...string) (map[string]int64, error) {
	return nil, nil
}

func (NoopCache) SetIfUnchanged(context.Context, map[string]int64, string, interface{}, time.Duration, ...string) (bool, error) {
	return false, nil
}
