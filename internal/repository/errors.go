package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// 存储层哨兵错误，service 据此走业务分支
var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicateEmail      = errors.New("duplicate email")
	ErrDuplicateEmployeeID = errors.New("duplicate employee id")
	ErrDuplicateAttendance = errors.New("duplicate attendance for user and date")
	ErrDuplicate           = errors.New("duplicate key")
)

const (
	pgUniqueViolation = "23505"

	constraintUserEmail      = "idx_users_email"
	constraintUserEmployeeID = "idx_users_employee_id"
	constraintAttendanceDay  = "idx_attendance_user_date"
)

// translateError 把 gorm/pgx 错误映射为哨兵错误，其余原样返回
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case constraintUserEmail:
			return ErrDuplicateEmail
		case constraintUserEmployeeID:
			return ErrDuplicateEmployeeID
		case constraintAttendanceDay:
			return ErrDuplicateAttendance
		default:
			return ErrDuplicate
		}
	}
	return err
}
