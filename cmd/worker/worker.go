package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"AttendTrack/config"
	"AttendTrack/internal/cache"
	"AttendTrack/internal/queue"
	"AttendTrack/internal/repository"
	"AttendTrack/internal/service"
	"AttendTrack/pkg/logger"
	"AttendTrack/pkg/metrics"
	pkgotel "AttendTrack/pkg/otel"
	"AttendTrack/pkg/snowflake"
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
		Service:     cfg.ServiceName + "-worker",
	})
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	serviceName := cfg.ServiceName + "-worker"
	shutdownOTel, err := pkgotel.InitOpenTelemetry(ctx, pkgotel.Config{
		ServiceName:    serviceName,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRatio:    cfg.OTELSampleRatio,
	})
	if err != nil {
		logger.Logger.Fatal("Failed to initialize OpenTelemetry", zap.Error(err))
	}
	defer func() {
		if err := shutdownOTel(context.Background()); err != nil {
			logger.Logger.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	st, err := storage.Init(ctx, cfg, storage.Options{Redis: true, MQ: true})
	if err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer st.Close()

	if err := st.MQ.DeclareTopology(queue.Topology()...); err != nil {
		logger.Logger.Fatal("Failed to declare RabbitMQ topology", zap.Error(err))
	}

	// 多个 worker 实例应使用不同的 machineID
	ids, err := snowflake.New(cfg.SnowflakeMachineID, cfg.SnowflakeDataCenter)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Logger.Fatal("Invalid attendance timezone", zap.Error(err))
	}

	attendanceMetrics, err := metrics.New(otel.Meter(serviceName))
	if err != nil {
		logger.Logger.Warn("Failed to create attendance metrics, continuing without", zap.Error(err))
	}

	attendanceService := service.NewAttendanceService(service.AttendanceDeps{
		Records:  repository.NewAttendanceRepository(st.DB),
		Users:    repository.NewUserRepository(st.DB),
		IDs:      ids,
		Location: loc,
		LateHour: cfg.LateHour,
		Metrics:  attendanceMetrics,
	})
	markers := cache.New(st.Redis, redisstore.NewKeyBuilder(cfg.RedisPrefix), cfg.RefreshTTL())

	logger.Logger.Info("Worker service starting",
		zap.String("service", serviceName),
		zap.String("environment", cfg.Environment),
	)

	consumer := queue.NewBackfillConsumer(attendanceService, markers, markers)
	if err := queue.StartBackfillConsumer(ctx, st.MQ, consumer); err != nil && ctx.Err() == nil {
		logger.Logger.Error("Backfill consumer stopped", zap.Error(err))
	}

	logger.Logger.Info("Worker service shutting down gracefully")
}
