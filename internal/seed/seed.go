// Package seed 生成演示数据：一个 manager、十个员工以及过去若干天的考勤记录。
package seed

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"go.uber.org/zap"

	"AttendTrack/internal/model"
	"AttendTrack/internal/repository"
	"AttendTrack/pkg/logger"
	"AttendTrack/utils"
)

const (
	ManagerEmail     = "manager@company.com"
	ManagerPassword  = "Manager@123"
	EmployeePassword = "Employee@123"
	EmployeeCount    = 10
	// 约 10% 的天数为缺勤占位
	absentRatio = 0.1
	lateRatio   = 0.2
)

// IDGenerator 由 pkg/snowflake.Generator 实现
type IDGenerator interface {
	NextID() (int64, error)
}

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type AttendanceStore interface {
	CreateMissing(ctx context.Context, records []*model.Attendance) (int64, error)
}

// Users 演示账号，密码哈希由调用方提供
func Users(managerHash, employeeHash string) []*model.User {
	users := []*model.User{{
		Name:         "Demo Manager",
		Email:        ManagerEmail,
		PasswordHash: managerHash,
		Role:         model.RoleManager,
		EmployeeID:   "MGR001",
		Department:   "HR",
	}}
	for i := 1; i <= EmployeeCount; i++ {
		department := "Sales"
		if i%2 == 0 {
			department = "Engineering"
		}
		users = append(users, &model.User{
			Name:         "Employee " + strconv.Itoa(i),
			Email:        "employee" + strconv.Itoa(i) + "@company.com",
			PasswordHash: employeeHash,
			Role:         model.RoleEmployee,
			EmployeeID:   "EMP" + strconv.Itoa(100+i),
			Department:   department,
		})
	}
	return users
}

// Attendance 为每个员工生成 start 起连续 days 天的记录
// 已打卡记录的状态与工时按打卡流程同样的规则计算
func Attendance(employees []*model.User, start time.Time, days int, loc *time.Location, lateHour int, rng *rand.Rand, ids IDGenerator) ([]*model.Attendance, error) {
	start = start.In(loc)
	records := make([]*model.Attendance, 0, days*len(employees))

	for d := 0; d < days; d++ {
		day := time.Date(start.Year(), start.Month(), start.Day()+d, 0, 0, 0, 0, loc)
		date := utils.DateOf(day, loc)

		for _, emp := range employees {
			id, err := ids.NextID()
			if err != nil {
				return nil, fmt.Errorf("failed to generate attendance ID: %w", err)
			}
			record := &model.Attendance{
				BaseModel: model.BaseModel{ID: id, CreatedAt: day},
				UserID:    emp.ID,
				Date:      date,
				Status:    model.AttendanceStatusAbsent,
			}

			r := rng.Float64()
			if r >= absentRatio {
				hour := 8 + rng.Intn(2)
				if r < lateRatio {
					hour = 9 + rng.Intn(3)
				}
				in := day.Add(time.Duration(hour)*time.Hour + time.Duration(rng.Intn(60))*time.Minute)
				out := in.Add(time.Duration(8+rng.Intn(2)) * time.Hour)
				hours := utils.HoursBetween(in, out)

				record.CheckInTime = &in
				record.CheckOutTime = &out
				record.TotalHours = &hours
				record.Status = model.AttendanceStatusPresent
				if in.Hour() >= lateHour {
					record.Status = model.AttendanceStatusLate
				}
			}
			records = append(records, record)
		}
	}
	return records, nil
}

// Options 种子参数
type Options struct {
	Days       int
	Now        time.Time
	Location   *time.Location
	LateHour   int
	BcryptCost int
	Rand       *rand.Rand
}

// Result 实际写入的数量
type Result struct {
	Users   int
	Records int64
}

// Run 写入演示数据；已存在的账号沿用，已存在的 (user, date) 记录不覆盖
func Run(ctx context.Context, users UserStore, records AttendanceStore, ids IDGenerator, opts Options) (Result, error) {
	var res Result

	managerHash, err := utils.HashPassword(ManagerPassword, opts.BcryptCost)
	if err != nil {
		return res, err
	}
	employeeHash, err := utils.HashPassword(EmployeePassword, opts.BcryptCost)
	if err != nil {
		return res, err
	}

	employees := make([]*model.User, 0, EmployeeCount)
	for _, u := range Users(managerHash, employeeHash) {
		existing, err := users.FindByEmail(ctx, u.Email)
		switch {
		case err == nil:
			u = existing
		case stderrors.Is(err, repository.ErrNotFound):
			if u.ID, err = ids.NextID(); err != nil {
				return res, fmt.Errorf("failed to generate user ID: %w", err)
			}
			if err := users.Create(ctx, u); err != nil {
				return res, fmt.Errorf("failed to create %s: %w", u.Email, err)
			}
			res.Users++
		default:
			return res, fmt.Errorf("failed to query %s: %w", u.Email, err)
		}
		if u.Role == model.RoleEmployee {
			employees = append(employees, u)
		}
	}

	start := opts.Now.AddDate(0, 0, -opts.Days)
	planned, err := Attendance(employees, start, opts.Days, opts.Location, opts.LateHour, opts.Rand, ids)
	if err != nil {
		return res, err
	}
	if res.Records, err = records.CreateMissing(ctx, planned); err != nil {
		return res, fmt.Errorf("failed to create attendance: %w", err)
	}

	logger.Logger.Info("Seed completed",
		zap.Int("users_created", res.Users),
		zap.Int64("records_created", res.Records),
		zap.Int("days", opts.Days),
	)
	return res, nil
}
