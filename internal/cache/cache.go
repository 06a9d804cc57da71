package cache

import (
	"time"

	"github.com/redis/go-redis/v9"

	redisstore "AttendTrack/storage/redis"
)

// Cache 基于 Redis 的刷新令牌、分布式锁与消息去重
type Cache struct {
	client     *redis.Client
	keys       redisstore.KeyBuilder
	refreshTTL time.Duration
	breaker    *CircuitBreaker
}

// New 创建缓存，连续失败 5 次后熔断 30 秒
func New(client *redis.Client, keys redisstore.KeyBuilder, refreshTTL time.Duration) *Cache {
	return &Cache{
		client:     client,
		keys:       keys,
		refreshTTL: refreshTTL,
		breaker:    NewCircuitBreaker("redis_cache", 5, 30*time.Second),
	}
}

// Client 暴露底层客户端，供限流中间件复用连接
func (c *Cache) Client() *redis.Client {
	return c.client
}

// Keys 返回键构造器
func (c *Cache) Keys() redisstore.KeyBuilder {
	return c.keys
}
