package cache

import (
	"context"
	"time"
)

// 基于 SETNX 的分布式锁，多个 scheduler 实例只有一个能投递同一天的任务
const lockPrefix = "lock"

func (c *Cache) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	fullKey := c.keys.Key(lockPrefix, key)

	var acquired bool
	err := c.breaker.Call(func() error {
		ok, err := c.client.SetNX(ctx, fullKey, 1, ttl).Result()
		acquired = ok
		return err
	})
	return acquired, err
}

func (c *Cache) Unlock(ctx context.Context, key string) error {
	fullKey := c.keys.Key(lockPrefix, key)
	return c.breaker.Call(func() error {
		return c.client.Del(ctx, fullKey).Err()
	})
}
