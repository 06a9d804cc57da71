package model

import "time"

// AttendanceStatus 考勤状态枚举
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent" // 占位记录，没有打卡时间
	AttendanceStatusLate    AttendanceStatus = "late"
	AttendanceStatusHalfDay AttendanceStatus = "half-day" // 仅导入数据使用，打卡流程不会产生
)

// Attendance 每个用户每天至多一条
type Attendance struct {
	BaseModel
	UserID       int64            `gorm:"not null;uniqueIndex:idx_attendance_user_date,priority:1" json:"userId,string"`
	Date         string           `gorm:"type:varchar(10);not null;uniqueIndex:idx_attendance_user_date,priority:2;index:idx_attendance_date" json:"date"`
	CheckInTime  *time.Time       `gorm:"type:timestamptz" json:"checkInTime"`
	CheckOutTime *time.Time       `gorm:"type:timestamptz" json:"checkOutTime"`
	Status       AttendanceStatus `gorm:"type:varchar(16);not null;default:'absent'" json:"status"`
	TotalHours   *float64         `gorm:"type:double precision" json:"totalHours"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Attendance) TableName() string {
	return "attendances"
}

// CheckedIn 是否已经打过上班卡
func (a *Attendance) CheckedIn() bool {
	return a.CheckInTime != nil
}

// CheckedOut 是否已经打过下班卡
func (a *Attendance) CheckedOut() bool {
	return a.CheckOutTime != nil
}

// DateRange 按 date 字段过滤，闭区间，空值表示不限
type DateRange struct {
	Start string
	End   string
}

// Contains 与存储层的字符串比较保持一致
func (r DateRange) Contains(date string) bool {
	if r.Start != "" && date < r.Start {
		return false
	}
	if r.End != "" && date > r.End {
		return false
	}
	return true
}

// DailyCount 按天聚合的记录数
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}
