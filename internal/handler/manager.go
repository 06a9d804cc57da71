package handler

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"AttendTrack/pkg/errors"
	"AttendTrack/pkg/export"
	"AttendTrack/pkg/response"
)

// AllRecords GET /api/manager/attendance/all
func (h *Handler) AllRecords(ctx context.Context, c *app.RequestContext) {
	records, err := h.manager.AllRecords(ctx, historyQuery(c))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, records)
}

// EmployeeRecords GET /api/manager/attendance/employee/:id
func (h *Handler) EmployeeRecords(ctx context.Context, c *app.RequestContext) {
	records, err := h.manager.EmployeeRecords(ctx, c.Param("id"))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, records)
}

// DailySummary GET /api/manager/attendance/summary
func (h *Handler) DailySummary(ctx context.Context, c *app.RequestContext) {
	counts, err := h.manager.DailyCounts(ctx, historyQuery(c))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, counts)
}

// TodayStatus GET /api/manager/attendance/today-status
func (h *Handler) TodayStatus(ctx context.Context, c *app.RequestContext) {
	records, err := h.manager.TodayStatus(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, records)
}

// Export 下载考勤记录，默认 CSV，?format=xlsx 返回表格文件
// GET /api/manager/attendance/export
func (h *Handler) Export(ctx context.Context, c *app.RequestContext) {
	format := strings.ToLower(c.DefaultQuery("format", "csv"))

	var (
		render      func([]export.Row) ([]byte, error)
		contentType string
	)
	switch format {
	case "csv":
		render, contentType = export.CSV, "text/csv; charset=utf-8"
	case "xlsx":
		render, contentType = export.XLSX, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		response.Error(ctx, c, errors.InvalidRequest.WithMessage("Unsupported export format: "+format))
		return
	}

	rows, err := h.manager.ExportRows(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	body, err := render(rows)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	h.manager.RecordExport(ctx, format, len(rows))

	c.Header("Content-Disposition", `attachment; filename="`+export.Filename(h.manager.Now(), format)+`"`)
	c.Data(consts.StatusOK, contentType, body)
}
