package response

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"AttendTrack/pkg/errors"
	"AttendTrack/pkg/logger"
)

// ErrorResponse 统一的错误响应格式
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// SuccessResponse 统一的成功响应格式，data 允许为 null
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

func errorToHTTPStatus(def errors.Definition) int {
	// 根据错误码映射 HTTP 状态码
	switch def.Code {
	case "INVALID_REQUEST", "INVALID_USER_ID",
		"ALREADY_CHECKED_IN", "NOT_CHECKED_IN",
		"ALREADY_CHECKED_OUT", "INVALID_CHECK_OUT_TIME":
		return http.StatusBadRequest // 400
	case "INVALID_CREDENTIALS", "UNAUTHORIZED", "REFRESH_TOKEN_INVALID":
		return http.StatusUnauthorized // 401
	case "FORBIDDEN":
		return http.StatusForbidden // 403
	case "USER_NOT_FOUND":
		return http.StatusNotFound // 404
	case "EMAIL_ALREADY_REGISTERED", "EMPLOYEE_ID_ALREADY_REGISTERED":
		return http.StatusConflict // 409
	case "TOO_MANY_REQUESTS":
		return http.StatusTooManyRequests // 429
	default:
		return http.StatusInternalServerError // 500
	}
}

// Error 返回错误响应；非业务错误只记录日志，对外统一为 INTERNAL_ERROR
func Error(ctx context.Context, c *app.RequestContext, err error) {
	def, ok := errors.From(err)
	if !ok {
		logger.Logger.Error("Unhandled request error",
			zap.String("method", string(c.Method())),
			zap.String("path", string(c.Path())),
			zap.Error(err),
		)
		def = errors.Internal
	}

	c.JSON(errorToHTTPStatus(def), ErrorResponse{
		Success: false,
		Error:   def.Message,
		Code:    def.Code,
	})
}

// AbortWithError 写入错误响应并终止后续 handler
func AbortWithError(ctx context.Context, c *app.RequestContext, err error) {
	Error(ctx, c, err)
	c.Abort()
}

func Success(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    data,
	})
}

// Created 返回 201
func Created(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Data:    data,
	})
}

func BindError(ctx context.Context, c *app.RequestContext, message string) {
	Error(ctx, c, errors.InvalidRequest.WithMessage(message))
}
