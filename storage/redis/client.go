package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"AttendTrack/config"
	pkgredis "AttendTrack/pkg/redis"
)

// NewClient 创建 Redis 客户端并挂载追踪 Hook
func NewClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MinIdleConns: 5,
		MaxRetries:   3,
	})
	client.AddHook(pkgredis.NewTracingHook(cfg.ServiceName, cfg.RedisDB))

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Close 关闭客户端
func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}

// KeyBuilder 为所有键加统一前缀
type KeyBuilder struct {
	prefix string
}

func NewKeyBuilder(prefix string) KeyBuilder {
	if prefix == "" {
		prefix = "attd"
	}
	return KeyBuilder{prefix: prefix}
}

// Key 拼接 prefix:part1:part2，空段会被跳过
func (k KeyBuilder) Key(parts ...string) string {
	var sb strings.Builder
	sb.WriteString(k.prefix)
	for _, part := range parts {
		if part != "" {
			sb.WriteString(":")
			sb.WriteString(part)
		}
	}
	return sb.String()
}
