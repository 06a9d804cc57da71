package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"AttendTrack/pkg/response"
)

// CheckIn 上班打卡
// POST /api/attendance/checkin
func (h *Handler) CheckIn(ctx context.Context, c *app.RequestContext) {
	id, ok := identity(ctx, c)
	if !ok {
		return
	}

	record, err := h.attendance.CheckIn(ctx, id.UserID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, record)
}

// CheckOut 下班打卡
// POST /api/attendance/checkout
func (h *Handler) CheckOut(ctx context.Context, c *app.RequestContext) {
	id, ok := identity(ctx, c)
	if !ok {
		return
	}

	record, err := h.attendance.CheckOut(ctx, id.UserID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, record)
}

// MyHistory 个人历史，startDate/endDate 闭区间
// GET /api/attendance/my-history
func (h *Handler) MyHistory(ctx context.Context, c *app.RequestContext) {
	id, ok := identity(ctx, c)
	if !ok {
		return
	}

	records, err := h.attendance.History(ctx, id.UserID, historyQuery(c))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, records)
}

// MySummary 个人汇总
// GET /api/attendance/my-summary
func (h *Handler) MySummary(ctx context.Context, c *app.RequestContext) {
	id, ok := identity(ctx, c)
	if !ok {
		return
	}

	summary, err := h.attendance.Summary(ctx, id.UserID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, summary)
}

// Today 当天记录，没有时 data 为 null
// GET /api/attendance/today
func (h *Handler) Today(ctx context.Context, c *app.RequestContext) {
	id, ok := identity(ctx, c)
	if !ok {
		return
	}

	record, err := h.attendance.Today(ctx, id.UserID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, record)
}
