package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"AttendTrack/internal/model"
)

var dateDesc = clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true}

const insertBatchSize = 200

// 同一天内的顺序，memory 实现保持一致
const (
	sameDayOrder = "created_at DESC, id DESC"
	checkInOrder = "check_in_time ASC NULLS LAST, id ASC"
)

// AttendanceRepository attendances 表访问，(user_id, date) 唯一
type AttendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Create 冲突时返回 ErrDuplicateAttendance
func (r *AttendanceRepository) Create(ctx context.Context, record *model.Attendance) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(record).Error; err != nil {
		if mapped := translateError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to create attendance: %w", err)
	}
	return nil
}

func (r *AttendanceRepository) FindByUserAndDate(ctx context.Context, userID int64, date string) (*model.Attendance, error) {
	var record model.Attendance
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND \"date\" = ?", userID, date).
		Take(&record).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &record, nil
}

// FillCheckIn 仅当记录尚未打上班卡时写入，返回是否命中
func (r *AttendanceRepository) FillCheckIn(ctx context.Context, id int64, at time.Time, status model.AttendanceStatus) (bool, error) {
	result := fillCheckIn(r.db.WithContext(ctx), id, at, status)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update check-in: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// CompleteCheckOut 单条件更新，并发下只有一个请求能命中
func (r *AttendanceRepository) CompleteCheckOut(ctx context.Context, id int64, at time.Time, totalHours float64) (bool, error) {
	result := completeCheckOut(r.db.WithContext(ctx), id, at, totalHours)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update check-out: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// ListByUser 按日期倒序，limit <= 0 表示不限
func (r *AttendanceRepository) ListByUser(ctx context.Context, userID int64, dates model.DateRange, limit int) ([]*model.Attendance, error) {
	var records []*model.Attendance
	q := withDateRange(r.db.WithContext(ctx).Where("user_id = ?", userID), dates).
		Order(dateDesc).
		Order(sameDayOrder)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return records, nil
}

// ListAll 跨用户查询并带出用户信息
func (r *AttendanceRepository) ListAll(ctx context.Context, dates model.DateRange, limit int) ([]*model.Attendance, error) {
	var records []*model.Attendance
	if err := listAll(r.db.WithContext(ctx).Preload("User"), dates, limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return records, nil
}

func (r *AttendanceRepository) ListByDate(ctx context.Context, date string) ([]*model.Attendance, error) {
	var records []*model.Attendance
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("\"date\" = ?", date).
		Order(checkInOrder).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance by date: %w", err)
	}
	return records, nil
}

// DailyCounts 按日期分组计数，日期倒序
func (r *AttendanceRepository) DailyCounts(ctx context.Context, dates model.DateRange, limit int) ([]model.DailyCount, error) {
	var rows []model.DailyCount
	if err := dailyCounts(r.db.WithContext(ctx), dates, limit).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate attendance: %w", err)
	}
	return rows, nil
}

// CountAttendedOn 统计某天非缺勤记录
func (r *AttendanceRepository) CountAttendedOn(ctx context.Context, date string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Attendance{}).
		Where("\"date\" = ? AND status <> ?", date, model.AttendanceStatusAbsent).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count attendance: %w", err)
	}
	return count, nil
}

// CreateMissing 批量插入，已存在的 (user_id, date) 跳过，返回实际插入行数
func (r *AttendanceRepository) CreateMissing(ctx context.Context, records []*model.Attendance) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	var inserted int64
	for start := 0; start < len(records); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(records) {
			end = len(records)
		}
		result := insertMissing(r.db.WithContext(ctx), records[start:end])
		if result.Error != nil {
			return inserted, fmt.Errorf("failed to insert attendance: %w", result.Error)
		}
		inserted += result.RowsAffected
	}
	return inserted, nil
}

// 以下语句构造与执行分离，便于在 DryRun 下检查生成的 SQL

func fillCheckIn(db *gorm.DB, id int64, at time.Time, status model.AttendanceStatus) *gorm.DB {
	return db.Model(&model.Attendance{}).
		Where("id = ? AND check_in_time IS NULL", id).
		Updates(map[string]interface{}{
			"check_in_time": at,
			"status":        status,
			"updated_at":    time.Now(),
		})
}

func completeCheckOut(db *gorm.DB, id int64, at time.Time, totalHours float64) *gorm.DB {
	return db.Model(&model.Attendance{}).
		Where("id = ? AND check_in_time IS NOT NULL AND check_out_time IS NULL", id).
		Updates(map[string]interface{}{
			"check_out_time": at,
			"total_hours":    totalHours,
			"updated_at":     time.Now(),
		})
}

func dailyCounts(db *gorm.DB, dates model.DateRange, limit int) *gorm.DB {
	q := withDateRange(db.Model(&model.Attendance{}), dates).
		Select("\"date\" AS date, COUNT(*) AS count").
		Group("\"date\"").
		Order(dateDesc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q
}

func listAll(db *gorm.DB, dates model.DateRange, limit int) *gorm.DB {
	q := withDateRange(db, dates).
		Order(dateDesc).
		Order(sameDayOrder)
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q
}

func insertMissing(db *gorm.DB, records []*model.Attendance) *gorm.DB {
	return db.Omit("User").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoNothing: true,
		}).
		Create(records)
}

func withDateRange(q *gorm.DB, dates model.DateRange) *gorm.DB {
	if dates.Start != "" {
		q = q.Where("\"date\" >= ?", dates.Start)
	}
	if dates.End != "" {
		q = q.Where("\"date\" <= ?", dates.End)
	}
	return q
}
