package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"AttendTrack/internal/model/dto"
	"AttendTrack/pkg/response"
)

// Register 注册
// POST /api/auth/register
func (h *Handler) Register(ctx context.Context, c *app.RequestContext) {
	var req dto.RegisterRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	result, err := h.auth.Register(ctx, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Created(ctx, c, result)
}

// Login 登录，邮箱不存在与密码错误返回相同响应
// POST /api/auth/login
func (h *Handler) Login(ctx context.Context, c *app.RequestContext) {
	var req dto.LoginRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	result, err := h.auth.Login(ctx, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, result)
}

// RefreshToken 刷新访问令牌
// POST /api/auth/refresh
func (h *Handler) RefreshToken(ctx context.Context, c *app.RequestContext) {
	var req dto.RefreshTokenRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	result, err := h.auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, result)
}

// Logout 吊销 refresh token
// POST /api/auth/logout
func (h *Handler) Logout(ctx context.Context, c *app.RequestContext) {
	id, ok := identity(ctx, c)
	if !ok {
		return
	}

	if err := h.auth.Logout(ctx, id.UserID); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, nil)
}

// Me 当前用户
// GET /api/auth/me
func (h *Handler) Me(ctx context.Context, c *app.RequestContext) {
	id, ok := identity(ctx, c)
	if !ok {
		return
	}

	me, err := h.auth.Me(ctx, id.UserID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, me)
}
