package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"AttendTrack/internal/model"
	"AttendTrack/internal/model/dto"
	"AttendTrack/internal/repository"
	"AttendTrack/pkg/errors"
	"AttendTrack/pkg/logger"
	"AttendTrack/pkg/metrics"
	"AttendTrack/pkg/validate"
	"AttendTrack/utils"
)

// RecentRecordsLimit 员工首页展示的最近记录数
const RecentRecordsLimit = 30

// 并发首次打卡时唯一约束冲突后最多重读的次数
const checkInAttempts = 2

// AttendanceDeps 考勤服务依赖
type AttendanceDeps struct {
	Records  AttendanceStore
	Users    UserStore
	IDs      IDGenerator
	Clock    Clock
	Location *time.Location
	LateHour int
	Metrics  *metrics.AttendanceMetrics
}

// AttendanceService 单个用户每日考勤记录的生命周期
type AttendanceService struct {
	records  AttendanceStore
	users    UserStore
	ids      IDGenerator
	clock    Clock
	loc      *time.Location
	lateHour int
	metrics  *metrics.AttendanceMetrics
}

func NewAttendanceService(d AttendanceDeps) *AttendanceService {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	return &AttendanceService{
		records:  d.Records,
		users:    d.Users,
		ids:      d.IDs,
		clock:    d.Clock,
		loc:      loc,
		lateHour: d.LateHour,
		metrics:  d.Metrics,
	}
}

// StatusAt 打卡时刻在参考时区的小时数 >= lateHour 记为 late
func (s *AttendanceService) StatusAt(t time.Time) model.AttendanceStatus {
	if t.In(s.loc).Hour() >= s.lateHour {
		return model.AttendanceStatusLate
	}
	return model.AttendanceStatusPresent
}

// CheckIn 当天首次打卡
// 已有占位记录时补写打卡时间；并发创建撞上唯一约束时重读当天记录按已存在处理
func (s *AttendanceService) CheckIn(ctx context.Context, userID int64) (*model.Attendance, error) {
	now := s.clock.now()
	today := utils.DateOf(now, s.loc)
	status := s.StatusAt(now)

	for attempt := 0; attempt < checkInAttempts; attempt++ {
		record, err := s.records.FindByUserAndDate(ctx, userID, today)
		switch {
		case err == nil:
			if record.CheckedIn() {
				return nil, errors.AlreadyCheckedIn
			}
			filled, err := s.records.FillCheckIn(ctx, record.ID, now, status)
			if err != nil {
				return nil, fmt.Errorf("failed to fill check-in: %w", err)
			}
			if !filled {
				return nil, errors.AlreadyCheckedIn
			}
			record.CheckInTime = &now
			record.Status = status
			s.metrics.RecordCheckIn(ctx, string(status))
			return record, nil

		case stderrors.Is(err, repository.ErrNotFound):
			id, err := s.ids.NextID()
			if err != nil {
				return nil, fmt.Errorf("failed to generate attendance ID: %w", err)
			}
			record = &model.Attendance{
				BaseModel:   model.BaseModel{ID: id, CreatedAt: now},
				UserID:      userID,
				Date:        today,
				CheckInTime: &now,
				Status:      status,
			}
			err = s.records.Create(ctx, record)
			if err == nil {
				s.metrics.RecordCheckIn(ctx, string(status))
				return record, nil
			}
			if !stderrors.Is(err, repository.ErrDuplicateAttendance) {
				return nil, fmt.Errorf("failed to create attendance: %w", err)
			}
			logger.Logger.Debug("Concurrent check-in detected, re-reading record",
				zap.Int64("user_id", userID),
				zap.String("date", today),
			)

		default:
			return nil, fmt.Errorf("failed to query attendance: %w", err)
		}
	}

	return nil, errors.AlreadyCheckedIn
}

// CheckOut 只关闭参考时区当天的记录，状态不再变化
func (s *AttendanceService) CheckOut(ctx context.Context, userID int64) (*model.Attendance, error) {
	now := s.clock.now()
	today := utils.DateOf(now, s.loc)

	record, err := s.records.FindByUserAndDate(ctx, userID, today)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotCheckedIn
		}
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	if !record.CheckedIn() {
		return nil, errors.NotCheckedIn
	}
	if record.CheckedOut() {
		return nil, errors.AlreadyCheckedOut
	}
	if !now.After(*record.CheckInTime) {
		return nil, errors.InvalidCheckOutTime
	}

	hours := utils.HoursBetween(*record.CheckInTime, now)
	closed, err := s.records.CompleteCheckOut(ctx, record.ID, now, hours)
	if err != nil {
		return nil, fmt.Errorf("failed to complete check-out: %w", err)
	}
	if !closed {
		return nil, errors.AlreadyCheckedOut
	}

	record.CheckOutTime = &now
	record.TotalHours = &hours
	s.metrics.RecordCheckOut(ctx, hours)
	return record, nil
}

// History 个人历史记录，日期倒序，闭区间过滤
func (s *AttendanceService) History(ctx context.Context, userID int64, q dto.HistoryQuery) ([]*model.Attendance, error) {
	if err := validate.Struct(q); err != nil {
		return nil, errors.InvalidRequest.WithMessage(validate.FormatError(err))
	}
	records, err := s.records.ListByUser(ctx, userID, q.Range(), 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return orEmpty(records), nil
}

// Summary 个人出勤汇总
func (s *AttendanceService) Summary(ctx context.Context, userID int64) (*dto.SummaryResponse, error) {
	records, err := s.records.ListByUser(ctx, userID, model.DateRange{}, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	summary := Summarize(records)
	return &summary, nil
}

// Summarize 只统计非 absent 记录；没有记录时平均工时为 0
func Summarize(records []*model.Attendance) dto.SummaryResponse {
	var (
		counted    int
		present    int
		totalHours float64
	)
	for _, r := range records {
		if r.Status == model.AttendanceStatusAbsent {
			continue
		}
		counted++
		if r.CheckedIn() {
			present++
		}
		if r.TotalHours != nil {
			totalHours += *r.TotalHours
		}
	}

	if counted == 0 {
		return dto.SummaryResponse{}
	}
	return dto.SummaryResponse{
		PresentDays:  present,
		AverageHours: utils.Round2(totalHours / float64(counted)),
	}
}

// Today 当天记录，没有时返回 nil
func (s *AttendanceService) Today(ctx context.Context, userID int64) (*model.Attendance, error) {
	record, err := s.records.FindByUserAndDate(ctx, userID, utils.DateOf(s.clock.now(), s.loc))
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	return record, nil
}

// EmployeeDashboard 当天记录加最近 30 条
func (s *AttendanceService) EmployeeDashboard(ctx context.Context, userID int64) (*dto.EmployeeDashboard, error) {
	today, err := s.Today(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.records.ListByUser(ctx, userID, model.DateRange{}, RecentRecordsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return &dto.EmployeeDashboard{Today: today, Recent: orEmpty(recent)}, nil
}

// BackfillAbsent 为 date 当天没有记录的员工补 absent 占位，已有记录不受影响
func (s *AttendanceService) BackfillAbsent(ctx context.Context, date string) (int64, error) {
	if !validate.IsDate(date) {
		return 0, errors.InvalidRequest.WithMessage("Invalid date")
	}

	userIDs, err := s.users.ListIDsByRole(ctx, model.RoleEmployee)
	if err != nil {
		return 0, fmt.Errorf("failed to list employees: %w", err)
	}
	if len(userIDs) == 0 {
		return 0, nil
	}

	now := s.clock.now()
	records := make([]*model.Attendance, 0, len(userIDs))
	for _, userID := range userIDs {
		id, err := s.ids.NextID()
		if err != nil {
			return 0, fmt.Errorf("failed to generate attendance ID: %w", err)
		}
		records = append(records, &model.Attendance{
			BaseModel: model.BaseModel{ID: id, CreatedAt: now},
			UserID:    userID,
			Date:      date,
			Status:    model.AttendanceStatusAbsent,
		})
	}

	created, err := s.records.CreateMissing(ctx, records)
	if err != nil {
		return 0, fmt.Errorf("failed to create absent records: %w", err)
	}

	s.metrics.RecordBackfill(ctx, date, created)
	logger.Logger.Info("Absent backfill completed",
		zap.String("date", date),
		zap.Int("employees", len(userIDs)),
		zap.Int64("created", created),
	)
	return created, nil
}

// orEmpty 保证列表序列化为 [] 而不是 null
func orEmpty(records []*model.Attendance) []*model.Attendance {
	if records == nil {
		return []*model.Attendance{}
	}
	return records
}
