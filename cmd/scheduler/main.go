package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"AttendTrack/config"
	"AttendTrack/internal/cache"
	"AttendTrack/internal/queue"
	"AttendTrack/internal/schedule"
	"AttendTrack/pkg/logger"
	"AttendTrack/storage"
	redisstore "AttendTrack/storage/redis"
)

func main() {
	cfg := config.MustLoad()

	logger.Init(logger.Options{
		Level:       cfg.LoggerLevel,
		Format:      cfg.LoggerFormat,
		OutputPath:  cfg.LoggerOutputPath,
		Environment: cfg.Environment,
		Service:     cfg.ServiceName + "-scheduler",
	})
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Logger.Info("Scheduler received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	// 数据库连接不会被使用，storage.Init 总是建立
	st, err := storage.Init(ctx, cfg, storage.Options{Redis: true, MQ: true})
	if err != nil {
		logger.Logger.Fatal("Failed to initialize storage for scheduler", zap.Error(err))
	}
	defer st.Close()

	if err := st.MQ.DeclareTopology(queue.Topology()...); err != nil {
		logger.Logger.Fatal("Failed to declare RabbitMQ topology", zap.Error(err))
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Logger.Fatal("Invalid attendance timezone", zap.Error(err))
	}

	// development 环境下每 1 分钟执行一次，方便本地调试
	var interval time.Duration
	if cfg.IsDevelopment() {
		interval = time.Minute
	}

	s := schedule.NewBackfillScheduler(schedule.BackfillDeps{
		Publisher: st.MQ,
		Locker:    cache.New(st.Redis, redisstore.NewKeyBuilder(cfg.RedisPrefix), cfg.RefreshTTL()),
		Location:  loc,
		Interval:  interval,
	})

	logger.Logger.Info("Scheduler service starting",
		zap.String("service", cfg.ServiceName+"-scheduler"),
		zap.String("environment", cfg.Environment),
		zap.Duration("interval", interval),
	)

	s.Run(ctx)

	logger.Logger.Info("Scheduler service shutting down gracefully")
}
