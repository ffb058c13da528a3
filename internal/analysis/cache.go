package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache 听牌结果缓存，key 为手牌签名
type Cache interface {
	Get(ctx context.Context, key string) (*TenpaiResult, bool, error)
	Set(ctx context.Context, key string, result *TenpaiResult) error
}

// MemoryCache 进程内缓存，超过容量时整体清空
type MemoryCache struct {
	mu       sync.RWMutex
	entries  map[string]TenpaiResult
	capacity int
}

// NewMemoryCache 创建进程内缓存
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = 4096
	}
	return &MemoryCache{
		entries:  make(map[string]TenpaiResult),
		capacity: capacity,
	}
}

// Get 实现 Cache
func (c *MemoryCache) Get(_ context.Context, key string) (*TenpaiResult, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return &r, true, nil
}

// Set 实现 Cache
func (c *MemoryCache) Set(_ context.Context, key string, result *TenpaiResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.capacity {
		c.entries = make(map[string]TenpaiResult)
	}
	c.entries[key] = *result
	return nil
}

// Len 缓存条目数
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// tenpaiKeyPrefix 听牌缓存前缀: kifu:tenpai:{signature}
const tenpaiKeyPrefix = "kifu:tenpai:"

// RedisCache Redis 听牌缓存
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache 创建 Redis 缓存
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func buildTenpaiKey(key string) string {
	return tenpaiKeyPrefix + key
}

// Get 实现 Cache
func (c *RedisCache) Get(ctx context.Context, key string) (*TenpaiResult, bool, error) {
	data, err := c.rdb.Get(ctx, buildTenpaiKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get tenpai cache: %w", err)
	}
	var r TenpaiResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal tenpai cache: %w", err)
	}
	return &r, true, nil
}

// Set 实现 Cache
func (c *RedisCache) Set(ctx context.Context, key string, result *TenpaiResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal tenpai cache: %w", err)
	}
	if err := c.rdb.Set(ctx, buildTenpaiKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set tenpai cache: %w", err)
	}
	return nil
}
