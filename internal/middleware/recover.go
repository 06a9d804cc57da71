package middleware

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"AttendTrack/pkg/errors"
	"AttendTrack/pkg/logger"
	"AttendTrack/pkg/response"
)

// RecoverConfig recover 中间件配置
type RecoverConfig struct {
	// 是否在日志中附带调用栈
	EnableStackTrace bool
	// 是否记录请求体（小于 1KB 的 JSON）
	LogRequestBody bool
	// 是否在 span 中记录异常
	RecordInSpan bool
}

// DefaultRecoverConfig 默认配置
var DefaultRecoverConfig = RecoverConfig{
	EnableStackTrace: true,
	LogRequestBody:   false,
	RecordInSpan:     true,
}

// RecoverMiddleware panic 只写日志，对外统一返回 INTERNAL_ERROR
func RecoverMiddleware(cfg RecoverConfig) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				handlePanic(ctx, c, err, cfg)
			}
		}()

		c.Next(ctx)
	}
}

func handlePanic(ctx context.Context, c *app.RequestContext, err interface{}, cfg RecoverConfig) {
	fields := []zap.Field{
		zap.String("panic", fmt.Sprintf("%v", err)),
		zap.String("path", string(c.Path())),
		zap.String("method", string(c.Method())),
		zap.String("client_ip", c.ClientIP()),
		zap.String("request_id", RequestID(c)),
	}
	if id, ok := CurrentIdentity(c); ok {
		fields = append(fields, zap.Int64("user_id", id.UserID))
	}
	if cfg.LogRequestBody {
		body := c.Request.Body()
		if len(body) > 0 && len(body) < 1024 && strings.Contains(string(c.ContentType()), "json") {
			fields = append(fields, zap.ByteString("body", body))
		}
	}
	if cfg.EnableStackTrace {
		fields = append(fields, zap.String("stack", stackTrace(4)))
	}
	logger.Logger.Error("Panic recovered", fields...)

	if cfg.RecordInSpan {
		if span := trace.SpanFromContext(ctx); span.IsRecording() {
			span.RecordError(fmt.Errorf("panic: %v", err))
			span.SetStatus(codes.Error, "panic recovered")
		}
	}

	response.Error(ctx, c, errors.Internal)
	c.Abort()
}

// stackTrace 当前 goroutine 的调用栈，跳过 runtime 帧
func stackTrace(skip int) string {
	var b strings.Builder
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") {
			fmt.Fprintf(&b, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return b.String()
}
