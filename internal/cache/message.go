package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	messageProcessedPrefix = "message:processed"
	processedTTL           = 48 * time.Hour
)

// TryMarkMessageProcessing 原子地标记消息正在处理
// 返回 false 表示重复消息或正在被其他消费者处理
func (c *Cache) TryMarkMessageProcessing(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	key := c.keys.Key(messageProcessedPrefix, messageID)
	if ttl <= 0 {
		ttl = processedTTL
	}

	var marked bool
	err := c.breaker.Call(func() error {
		ok, err := c.client.SetNX(ctx, key, "processing", ttl).Result()
		marked = ok
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to mark message as processing: %w", err)
	}
	return marked, nil
}

// UnmarkMessageProcessing 处理失败时清除标记，允许重投后再处理
func (c *Cache) UnmarkMessageProcessing(ctx context.Context, messageID string) error {
	key := c.keys.Key(messageProcessedPrefix, messageID)
	return c.breaker.Call(func() error {
		return c.client.Del(ctx, key).Err()
	})
}

// MarkMessageProcessed 处理成功后改为 completed 并延长 TTL
func (c *Cache) MarkMessageProcessed(ctx context.Context, messageID string, ttl time.Duration) error {
	key := c.keys.Key(messageProcessedPrefix, messageID)
	if ttl <= 0 {
		ttl = processedTTL
	}
	return c.breaker.Call(func() error {
		return c.client.Set(ctx, key, "completed", ttl).Err()
	})
}
