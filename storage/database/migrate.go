package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"AttendTrack/internal/model"
	"AttendTrack/pkg/logger"
)

// Migrate 创建 users 与 attendances 表及其唯一索引
func Migrate(db *gorm.DB) error {
	if db == nil {
		return gorm.ErrInvalidDB
	}

	logger.Logger.Info("Starting database migration...")

	if err := db.AutoMigrate(
		&model.User{},
		&model.Attendance{},
	); err != nil {
		logger.Logger.Error("Database migration failed", zap.Error(err))
		return err
	}

	logger.Logger.Info("Database migration completed successfully")
	return nil
}
