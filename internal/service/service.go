package service

import (
	"context"
	"time"

	"AttendTrack/internal/model"
)

// UserStore 用户存储，重复邮箱/工号通过 repository 哨兵错误返回
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
	CountByRole(ctx context.Context, role model.Role) (int64, error)
	ListIDsByRole(ctx context.Context, role model.Role) ([]int64, error)
}

// AttendanceStore 考勤存储，(user_id, date) 唯一
type AttendanceStore interface {
	Create(ctx context.Context, record *model.Attendance) error
	FindByUserAndDate(ctx context.Context, userID int64, date string) (*model.Attendance, error)
	FillCheckIn(ctx context.Context, id int64, at time.Time, status model.AttendanceStatus) (bool, error)
	CompleteCheckOut(ctx context.Context, id int64, at time.Time, totalHours float64) (bool, error)
	ListByUser(ctx context.Context, userID int64, dates model.DateRange, limit int) ([]*model.Attendance, error)
	ListAll(ctx context.Context, dates model.DateRange, limit int) ([]*model.Attendance, error)
	ListByDate(ctx context.Context, date string) ([]*model.Attendance, error)
	DailyCounts(ctx context.Context, dates model.DateRange, limit int) ([]model.DailyCount, error)
	CountAttendedOn(ctx context.Context, date string) (int64, error)
	CreateMissing(ctx context.Context, records []*model.Attendance) (int64, error)
}

// RefreshTokenStore 保存每个用户当前有效的 refresh token
type RefreshTokenStore interface {
	SetRefreshToken(ctx context.Context, userID int64, refreshToken string) error
	ValidateRefreshTokenExists(ctx context.Context, userID int64, refreshToken string) (bool, error)
	DeleteRefreshToken(ctx context.Context, userID int64) error
}

// IDGenerator 生成全局唯一 ID
type IDGenerator interface {
	NextID() (int64, error)
	NextBase36() string
}

// Clock 当前时间来源，测试中替换为固定时间
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
