package cache

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const tokenPrefix = "token"

// SetRefreshToken 存储 refresh token，每个用户只保留最新一个
// Key: attd:token:refresh:{user_id}
func (c *Cache) SetRefreshToken(ctx context.Context, userID int64, refreshToken string) error {
	key := c.keys.Key(tokenPrefix, "refresh", strconv.FormatInt(userID, 10))
	return c.breaker.Call(func() error {
		return c.client.Set(ctx, key, refreshToken, c.refreshTTL).Err()
	})
}

// ValidateRefreshTokenExists 检查 refresh token 是否存在且匹配
func (c *Cache) ValidateRefreshTokenExists(ctx context.Context, userID int64, refreshToken string) (bool, error) {
	key := c.keys.Key(tokenPrefix, "refresh", strconv.FormatInt(userID, 10))

	var stored string
	err := c.breaker.Call(func() error {
		v, err := c.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		stored = v
		return err
	})
	if err != nil {
		return false, err
	}
	return stored != "" && stored == refreshToken, nil
}

// DeleteRefreshToken 删除 refresh token（登出）
func (c *Cache) DeleteRefreshToken(ctx context.Context, userID int64) error {
	key := c.keys.Key(tokenPrefix, "refresh", strconv.FormatInt(userID, 10))
	return c.breaker.Call(func() error {
		return c.client.Del(ctx, key).Err()
	})
}
