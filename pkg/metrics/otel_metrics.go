package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AttendanceMetrics 考勤业务指标集合，nil 接收者上的方法均为空操作
type AttendanceMetrics struct {
	// 考勤相关指标
	CheckInsTotal       metric.Int64Counter
	CheckOutsTotal      metric.Int64Counter
	WorkedHours         metric.Float64Histogram
	BackfillCreated     metric.Int64Counter
	ExportRowsTotal     metric.Int64Counter
	RegistrationsTotal  metric.Int64Counter
	LoginFailuresTotal  metric.Int64Counter
	RefreshRotatedTotal metric.Int64Counter
}

// New 使用给定 meter 创建指标
func New(meter metric.Meter) (*AttendanceMetrics, error) {
	var err error
	m := &AttendanceMetrics{}

	m.CheckInsTotal, err = meter.Int64Counter(
		"attendance_check_ins_total",
		metric.WithDescription("Total number of check-ins by status"),
		metric.WithUnit("{check_in}"),
	)
	if err != nil {
		return nil, err
	}

	m.CheckOutsTotal, err = meter.Int64Counter(
		"attendance_check_outs_total",
		metric.WithDescription("Total number of check-outs"),
		metric.WithUnit("{check_out}"),
	)
	if err != nil {
		return nil, err
	}

	m.WorkedHours, err = meter.Float64Histogram(
		"attendance_worked_hours",
		metric.WithDescription("Worked hours recorded at check-out"),
		metric.WithUnit("h"),
		metric.WithExplicitBucketBoundaries(1, 2, 4, 6, 7, 8, 9, 10, 12),
	)
	if err != nil {
		return nil, err
	}

	m.BackfillCreated, err = meter.Int64Counter(
		"attendance_backfill_absent_total",
		metric.WithDescription("Absent records created by the backfill job"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	m.ExportRowsTotal, err = meter.Int64Counter(
		"attendance_export_rows_total",
		metric.WithDescription("Rows written by attendance exports"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, err
	}

	m.RegistrationsTotal, err = meter.Int64Counter(
		"auth_registrations_total",
		metric.WithDescription("Total number of registered users by role"),
		metric.WithUnit("{user}"),
	)
	if err != nil {
		return nil, err
	}

	m.LoginFailuresTotal, err = meter.Int64Counter(
		"auth_login_failures_total",
		metric.WithDescription("Total number of failed logins"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	m.RefreshRotatedTotal, err = meter.Int64Counter(
		"auth_refresh_rotated_total",
		metric.WithDescription("Total number of refresh token rotations"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordCheckIn 记录签到
func (m *AttendanceMetrics) RecordCheckIn(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.CheckInsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordCheckOut 记录签退及工时
func (m *AttendanceMetrics) RecordCheckOut(ctx context.Context, hours float64) {
	if m == nil {
		return
	}
	m.CheckOutsTotal.Add(ctx, 1)
	m.WorkedHours.Record(ctx, hours)
}

// RecordBackfill 记录补录的缺勤条数
func (m *AttendanceMetrics) RecordBackfill(ctx context.Context, date string, created int64) {
	if m == nil {
		return
	}
	m.BackfillCreated.Add(ctx, created, metric.WithAttributes(attribute.String("date", date)))
}

// RecordExport 记录导出行数
func (m *AttendanceMetrics) RecordExport(ctx context.Context, format string, rows int) {
	if m == nil {
		return
	}
	m.ExportRowsTotal.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("format", format)))
}

// RecordRegistration 记录注册
func (m *AttendanceMetrics) RecordRegistration(ctx context.Context, role string) {
	if m == nil {
		return
	}
	m.RegistrationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("role", role)))
}

// RecordLoginFailure 记录登录失败
func (m *AttendanceMetrics) RecordLoginFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.LoginFailuresTotal.Add(ctx, 1)
}

// RecordRefresh 记录刷新令牌轮换
func (m *AttendanceMetrics) RecordRefresh(ctx context.Context) {
	if m == nil {
		return
	}
	m.RefreshRotatedTotal.Add(ctx, 1)
}
