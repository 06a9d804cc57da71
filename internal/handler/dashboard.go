package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"AttendTrack/pkg/response"
)

// EmployeeDashboard GET /api/dashboard/employee
func (h *Handler) EmployeeDashboard(ctx context.Context, c *app.RequestContext) {
	id, ok := identity(ctx, c)
	if !ok {
		return
	}

	dash, err := h.attendance.EmployeeDashboard(ctx, id.UserID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, dash)
}

// ManagerDashboard GET /api/dashboard/manager
func (h *Handler) ManagerDashboard(ctx context.Context, c *app.RequestContext) {
	dash, err := h.manager.Dashboard(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, dash)
}

// Health GET /api/health
func (h *Handler) Health(ctx context.Context, c *app.RequestContext) {
	if h.health != nil {
		if err := h.health(ctx); err != nil {
			c.JSON(consts.StatusServiceUnavailable, map[string]interface{}{
				"success": false,
				"data":    map[string]string{"status": "unavailable"},
			})
			return
		}
	}
	response.Success(ctx, c, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
