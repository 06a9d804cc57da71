package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"AttendTrack/internal/model"
	"AttendTrack/internal/model/dto"
	"AttendTrack/internal/repository"
	"AttendTrack/pkg/errors"
	"AttendTrack/pkg/export"
	"AttendTrack/pkg/metrics"
	"AttendTrack/pkg/validate"
	"AttendTrack/utils"
)

const (
	AllRecordsLimit  = 500
	DailyCountsLimit = 30
	ExportRowsLimit  = 200
)

// ManagerDeps 管理端服务依赖
type ManagerDeps struct {
	Records  AttendanceStore
	Users    UserStore
	Clock    Clock
	Location *time.Location
	Metrics  *metrics.AttendanceMetrics
}

// ManagerService 跨用户的只读聚合，调用前角色已在中间件校验
type ManagerService struct {
	records AttendanceStore
	users   UserStore
	clock   Clock
	loc     *time.Location
	metrics *metrics.AttendanceMetrics
}

func NewManagerService(d ManagerDeps) *ManagerService {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	return &ManagerService{
		records: d.Records,
		users:   d.Users,
		clock:   d.Clock,
		loc:     loc,
		metrics: d.Metrics,
	}
}

func (s *ManagerService) today() string {
	return utils.DateOf(s.clock.now(), s.loc)
}

// AllRecords 所有员工记录，附带用户信息，最多 500 条
func (s *ManagerService) AllRecords(ctx context.Context, q dto.HistoryQuery) ([]*model.Attendance, error) {
	if err := validate.Struct(q); err != nil {
		return nil, errors.InvalidRequest.WithMessage(validate.FormatError(err))
	}
	records, err := s.records.ListAll(ctx, q.Range(), AllRecordsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return orEmpty(records), nil
}

// EmployeeRecords 单个员工全部记录
func (s *ManagerService) EmployeeRecords(ctx context.Context, rawUserID string) ([]*model.Attendance, error) {
	userID, err := strconv.ParseInt(rawUserID, 10, 64)
	if err != nil || userID <= 0 {
		return nil, errors.InvalidUserID
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.UserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	records, err := s.records.ListByUser(ctx, userID, model.DateRange{}, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return orEmpty(records), nil
}

// DailyCounts 按天计数，日期倒序，最多 30 天
func (s *ManagerService) DailyCounts(ctx context.Context, q dto.HistoryQuery) ([]model.DailyCount, error) {
	if err := validate.Struct(q); err != nil {
		return nil, errors.InvalidRequest.WithMessage(validate.FormatError(err))
	}
	counts, err := s.records.DailyCounts(ctx, q.Range(), DailyCountsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to count attendance: %w", err)
	}
	if counts == nil {
		counts = []model.DailyCount{}
	}
	return counts, nil
}

// TodayStatus 当天所有记录
func (s *ManagerService) TodayStatus(ctx context.Context) ([]*model.Attendance, error) {
	records, err := s.records.ListByDate(ctx, s.today())
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return orEmpty(records), nil
}

// ExportRows 最近 200 条记录扁平化为导出行
func (s *ManagerService) ExportRows(ctx context.Context) ([]export.Row, error) {
	records, err := s.records.ListAll(ctx, model.DateRange{}, ExportRowsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}

	rows := make([]export.Row, 0, len(records))
	for _, r := range records {
		row := export.Row{
			Date:         r.Date,
			CheckInTime:  r.CheckInTime,
			CheckOutTime: r.CheckOutTime,
			Status:       string(r.Status),
			TotalHours:   r.TotalHours,
		}
		if r.User != nil {
			row.UserName = r.User.Name
			row.UserEmail = r.User.Email
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// RecordExport 记录导出指标
func (s *ManagerService) RecordExport(ctx context.Context, format string, rows int) {
	s.metrics.RecordExport(ctx, format, rows)
}

// Now 导出文件名使用的当前时间（参考时区）
func (s *ManagerService) Now() time.Time {
	return s.clock.now().In(s.loc)
}

// Dashboard 员工总数与当天出勤数
func (s *ManagerService) Dashboard(ctx context.Context) (*dto.ManagerDashboard, error) {
	total, err := s.users.CountByRole(ctx, model.RoleEmployee)
	if err != nil {
		return nil, fmt.Errorf("failed to count employees: %w", err)
	}
	present, err := s.records.CountAttendedOn(ctx, s.today())
	if err != nil {
		return nil, fmt.Errorf("failed to count attendance: %w", err)
	}
	return &dto.ManagerDashboard{TotalEmployees: total, PresentToday: present}, nil
}
