package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"AttendTrack/pkg/logger"
	"AttendTrack/storage/database"
	redisstore "AttendTrack/storage/redis"
)

// Close 优雅关闭所有存储连接
// 关闭顺序：MQ -> Redis -> Database
func (s *Storage) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Logger.Info("Closing storage connections...")

	if s.MQ != nil {
		if err := s.MQ.Close(ctx); err != nil {
			logger.Logger.Error("Failed to close message queue", zap.Error(err))
		} else {
			logger.Logger.Info("Message queue closed successfully")
		}
	}

	if s.Redis != nil {
		if err := redisstore.Close(s.Redis); err != nil {
			logger.Logger.Error("Failed to close Redis connection", zap.Error(err))
		} else {
			logger.Logger.Info("Redis connection closed successfully")
		}
	}

	if err := database.Close(ctx, s.DB); err != nil {
		logger.Logger.Error("Failed to close database connection", zap.Error(err))
	} else {
		logger.Logger.Info("Database connection closed successfully")
	}

	logger.Logger.Info("All storage connections closed")
}
