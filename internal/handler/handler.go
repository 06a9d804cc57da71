package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"AttendTrack/internal/middleware"
	"AttendTrack/internal/model/dto"
	"AttendTrack/internal/service"
	"AttendTrack/pkg/errors"
	"AttendTrack/pkg/response"
	"AttendTrack/pkg/validate"
)

// Handler 持有各业务服务，由 cmd/server 显式构造
type Handler struct {
	auth       *service.AuthService
	attendance *service.AttendanceService
	manager    *service.ManagerService
	health     func(ctx context.Context) error
}

// Deps Health 为空时健康检查只表示进程存活
type Deps struct {
	Auth       *service.AuthService
	Attendance *service.AttendanceService
	Manager    *service.ManagerService
	Health     func(ctx context.Context) error
}

func New(d Deps) *Handler {
	return &Handler{
		auth:       d.Auth,
		attendance: d.Attendance,
		manager:    d.Manager,
		health:     d.Health,
	}
}

// bindJSON 绑定并校验请求体，失败时已写入 400 响应
func bindJSON(ctx context.Context, c *app.RequestContext, req interface{}) bool {
	if err := c.BindJSON(req); err != nil {
		response.BindError(ctx, c, validate.FormatError(err))
		return false
	}
	if err := validate.Struct(req); err != nil {
		response.BindError(ctx, c, validate.FormatError(err))
		return false
	}
	return true
}

// identity 鉴权中间件之后调用，缺失说明路由配置错误
func identity(ctx context.Context, c *app.RequestContext) (middleware.Identity, bool) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		response.Error(ctx, c, errors.Unauthorized)
		return middleware.Identity{}, false
	}
	return id, true
}

func historyQuery(c *app.RequestContext) dto.HistoryQuery {
	return dto.HistoryQuery{
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	}
}
