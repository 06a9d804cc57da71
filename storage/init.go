package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"AttendTrack/config"
	"AttendTrack/storage/database"
	"AttendTrack/storage/mq"
	redisstore "AttendTrack/storage/redis"
)

// Storage 持有进程内所有外部连接
type Storage struct {
	DB    *gorm.DB
	Redis *redis.Client
	MQ    *mq.Client
}

// Options 控制需要建立哪些连接，数据库总是建立
type Options struct {
	Redis   bool
	MQ      bool
	Migrate bool
}

// Init 统一初始化存储层，任一步失败会关闭已建立的连接
func Init(ctx context.Context, cfg *config.Config, opts Options) (*Storage, error) {
	s := &Storage{}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.DB = db

	if opts.Migrate {
		if err := database.Migrate(db); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to run database migration: %w", err)
		}
	}

	if opts.Redis {
		client, err := redisstore.NewClient(ctx, cfg)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Redis = client
	}

	if opts.MQ {
		client, err := mq.Dial(cfg.GetRabbitMQURL(), cfg.ServiceName)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.MQ = client
	}

	return s, nil
}
