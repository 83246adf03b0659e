package slots

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-SalonScheduler/pkg/types"
)

const (
	redisOpTimeout = 2 * time.Second
	scanBatch      = 100
)

// RedisCache кэш слотов в Redis, общий для всех реплик API
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger Logger
}

// NewRedisCache создает кэш поверх клиента Redis
func NewRedisCache(client redis.UniversalClient, ttl time.Duration, log Logger) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

// Get получает список слотов
func (c *RedisCache) Get(ctx context.Context, key string) ([]types.TimeString, bool) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Get: redis get failed, key=%s: %v", key, err)
		return nil, false
	}

	var slots []types.TimeString
	if err := json.Unmarshal(data, &slots); err != nil {
		c.logger.Warn("Get: decode cached slots failed, key=%s: %v", key, err)
		return nil, false
	}
	return slots, true
}

// Set сохраняет список слотов с TTL
func (c *RedisCache) Set(ctx context.Context, key string, slots []types.TimeString) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	if slots == nil {
		slots = []types.TimeString{}
	}
	data, err := json.Marshal(slots)
	if err != nil {
		c.logger.Warn("Set: encode slots failed, key=%s: %v", key, err)
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Set: redis set failed, key=%s: %v", key, err)
	}
}

// InvalidateDate удаляет все списки на дату
func (c *RedisCache) InvalidateDate(ctx context.Context, date time.Time) {
	c.deleteByPattern(ctx, datePrefix(date)+"*")
}

// Clear удаляет все списки слотов (не весь DB)
func (c *RedisCache) Clear(ctx context.Context) {
	c.deleteByPattern(ctx, keyPrefix+"*")
}

func (c *RedisCache) deleteByPattern(ctx context.Context, pattern string) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			c.logger.Warn("deleteByPattern: redis scan failed, pattern=%s: %v", pattern, err)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.logger.Warn("deleteByPattern: redis del failed, pattern=%s: %v", pattern, err)
				return
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}
