package router

import (
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/route"

	"AttendTrack/internal/handler"
	"AttendTrack/internal/middleware"
)

// Deps 路由依赖；AuthRateLimit 为空时认证接口不限流
type Deps struct {
	Handler       *handler.Handler
	Auth          *middleware.Auth
	Global        []app.HandlerFunc
	AuthRateLimit app.HandlerFunc
}

// Register 在 /api 下挂载所有路由
func Register(r *route.Engine, d Deps) {
	r.Use(d.Global...)

	h := d.Handler
	api := r.Group("/api")
	api.GET("/health", h.Health)

	// 认证相关路由
	auth := api.Group("/auth")
	if d.AuthRateLimit != nil {
		auth.Use(d.AuthRateLimit)
	}
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.RefreshToken)
		auth.POST("/logout", d.Auth.Authenticated(), h.Logout)
		auth.GET("/me", d.Auth.Authenticated(), h.Me)
	}

	// 员工打卡
	attendance := api.Group("/attendance", d.Auth.Authenticated())
	{
		attendance.POST("/checkin", h.CheckIn)
		attendance.POST("/checkout", h.CheckOut)
		attendance.GET("/my-history", h.MyHistory)
		attendance.GET("/my-summary", h.MySummary)
		attendance.GET("/today", h.Today)
	}

	dashboard := api.Group("/dashboard")
	{
		dashboard.GET("/employee", d.Auth.Authenticated(), h.EmployeeDashboard)
		dashboard.GET("/manager", d.Auth.RequireManager(), h.ManagerDashboard)
	}

	// 管理端只读接口
	manager := api.Group("/manager/attendance", d.Auth.RequireManager())
	{
		manager.GET("/all", h.AllRecords)
		manager.GET("/employee/:id", h.EmployeeRecords)
		manager.GET("/summary", h.DailySummary)
		manager.GET("/export", h.Export)
		manager.GET("/today-status", h.TodayStatus)
	}
}
