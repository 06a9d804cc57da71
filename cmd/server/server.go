package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"AttendTrack/config"
	"AttendTrack/internal/cache"
	"AttendTrack/internal/handler"
	"AttendTrack/internal/middleware"
	"AttendTrack/internal/repository"
	"AttendTrack/internal/router"
	"AttendTrack/internal/service"
	"AttendTrack/pkg/logger"
	"AttendTrack/pkg/metrics"
	pkgotel "AttendTrack/pkg/otel"
	"AttendTrack/pkg/snowflake"
	"AttendTrack/pkg/token"
	"AttendTrack/storage"
	"AttendTrack/storage/database"
	redisstore "AttendTrack/storage/redis"
)

func main() {
	cfg := config.MustLoad()

	// 日志部分
	logger.Init(logger.Options{
		Level:       cfg.LoggerLevel,
		Format:      cfg.LoggerFormat,
		OutputPath:  cfg.LoggerOutputPath,
		Environment: cfg.Environment,
		Service:     cfg.ServiceName + "-server",
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

	shutdownOTel, err := pkgotel.InitOpenTelemetry(ctx, pkgotel.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRatio:    cfg.OTELSampleRatio,
	})
	if err != nil {
		logger.Logger.Fatal("Failed to initialize OpenTelemetry", zap.Error(err))
	}

	// 初始化存储层，记得关闭外部连接
	st, err := storage.Init(ctx, cfg, storage.Options{Redis: true, Migrate: true})
	if err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer st.Close()

	loc, err := cfg.Location()
	if err != nil {
		logger.Logger.Fatal("Invalid attendance timezone", zap.Error(err))
	}

	ids, err := snowflake.New(cfg.SnowflakeMachineID, cfg.SnowflakeDataCenter)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	issuer := token.NewIssuer(token.Config{
		AccessSecret:  []byte(cfg.JWTSecret),
		RefreshSecret: []byte(cfg.JWTRefreshSecret),
		AccessTTL:     cfg.AccessTTL(),
		RefreshTTL:    cfg.RefreshTTL(),
	})
	tokens := cache.New(st.Redis, redisstore.NewKeyBuilder(cfg.RedisPrefix), cfg.RefreshTTL())

	meter := otel.Meter(cfg.ServiceName)
	attendanceMetrics, err := metrics.New(meter)
	if err != nil {
		logger.Logger.Warn("Failed to create attendance metrics, continuing without", zap.Error(err))
	}
	httpMetrics, err := middleware.NewHTTPMetrics(meter)
	if err != nil {
		logger.Logger.Warn("Failed to create HTTP metrics, continuing without", zap.Error(err))
	}

	users := repository.NewUserRepository(st.DB)
	records := repository.NewAttendanceRepository(st.DB)

	authService, err := service.NewAuthService(service.AuthDeps{
		Users:      users,
		Tokens:     tokens,
		Issuer:     issuer,
		IDs:        ids,
		Metrics:    attendanceMetrics,
		BcryptCost: cfg.BcryptCost,
	})
	if err != nil {
		logger.Logger.Fatal("Failed to initialize auth service", zap.Error(err))
	}
	attendanceService := service.NewAttendanceService(service.AttendanceDeps{
		Records:  records,
		Users:    users,
		IDs:      ids,
		Location: loc,
		LateHour: cfg.LateHour,
		Metrics:  attendanceMetrics,
	})
	managerService := service.NewManagerService(service.ManagerDeps{
		Records:  records,
		Users:    users,
		Location: loc,
		Metrics:  attendanceMetrics,
	})

	// token 在中间件前初始化，middleware 依赖 token
	auth, err := middleware.NewAuth(issuer)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize auth middleware", zap.Error(err))
	}

	var authRateLimit app.HandlerFunc
	if cfg.RateLimitEnabled {
		authRateLimit = middleware.RateLimitMiddleware(tokens.Client(), tokens.Keys(),
			middleware.AuthRateLimitConfig(cfg.AuthRateLimit))
	}

	logger.Logger.Info("Server starting",
		zap.String("service", cfg.ServiceName),
		zap.String("port", cfg.ServerPort),
		zap.String("environment", cfg.Environment),
		zap.String("timezone", loc.String()),
	)

	tracerOpt, tracing := middleware.NewServerTracerConfig()
	addr := net.JoinHostPort(cfg.ServerHost, cfg.ServerPort)
	h := server.Default(server.WithHostPorts(addr), tracerOpt)

	recoverCfg := middleware.DefaultRecoverConfig
	recoverCfg.EnableStackTrace = !cfg.IsProduction()

	router.Register(h.Engine, router.Deps{
		Handler: handler.New(handler.Deps{
			Auth:       authService,
			Attendance: attendanceService,
			Manager:    managerService,
			Health: func(ctx context.Context) error {
				return database.Ping(ctx, st.DB)
			},
		}),
		Auth: auth,
		Global: middleware.Global(middleware.GlobalOptions{
			CORSOrigin: cfg.CORSOrigin,
			Recover:    recoverCfg,
			Metrics:    httpMetrics,
			Tracing:    tracing,
		}),
		AuthRateLimit: authRateLimit,
	})

	// 优雅关闭：在单独的 goroutine 中监听关闭信号并调用 Shutdown
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("Failed to shutdown HTTP server", zap.Error(err))
		}
	}()

	logger.Logger.Info("HTTP server listening", zap.String("addr", addr))

	h.Spin()

	otelCtx, otelCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer otelCancel()
	if err := shutdownOTel(otelCtx); err != nil {
		logger.Logger.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
	}

	logger.Logger.Info("Server shutting down gracefully")
}
