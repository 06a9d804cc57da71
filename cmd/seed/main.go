package main

import (
	"context"
	"flag"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"AttendTrack/config"
	"AttendTrack/internal/repository"
	"AttendTrack/internal/seed"
	"AttendTrack/pkg/logger"
	"AttendTrack/pkg/snowflake"
	"AttendTrack/storage"
)

func main() {
	reset := flag.Bool("reset", false, "truncate users and attendances before seeding")
	days := flag.Int("days", 60, "number of past days to generate")
	flag.Parse()

	cfg := config.MustLoad()

	logger.Init(logger.Options{
		Level:       cfg.LoggerLevel,
		Format:      cfg.LoggerFormat,
		OutputPath:  cfg.LoggerOutputPath,
		Environment: cfg.Environment,
		Service:     cfg.ServiceName + "-seed",
	})
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	st, err := storage.Init(ctx, cfg, storage.Options{Migrate: true})
	if err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer st.Close()

	if *reset {
		if err := st.DB.WithContext(ctx).Exec("TRUNCATE TABLE attendances, users").Error; err != nil {
			logger.Logger.Fatal("Failed to reset tables", zap.Error(err))
		}
		logger.Logger.Info("Existing users and attendance removed")
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Logger.Fatal("Invalid attendance timezone", zap.Error(err))
	}

	ids, err := snowflake.New(cfg.SnowflakeMachineID, cfg.SnowflakeDataCenter)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	now := time.Now()
	res, err := seed.Run(ctx,
		repository.NewUserRepository(st.DB),
		repository.NewAttendanceRepository(st.DB),
		ids,
		seed.Options{
			Days:       *days,
			Now:        now,
			Location:   loc,
			LateHour:   cfg.LateHour,
			BcryptCost: cfg.BcryptCost,
			Rand:       rand.New(rand.NewSource(now.UnixNano())),
		},
	)
	if err != nil {
		logger.Logger.Fatal("Seed failed", zap.Error(err))
	}

	logger.Logger.Info("Demo accounts ready",
		zap.String("manager", seed.ManagerEmail),
		zap.String("employees", "employee1@company.com .. employee10@company.com"),
		zap.Int("users_created", res.Users),
		zap.Int64("records_created", res.Records),
	)
}
