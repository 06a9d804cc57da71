package dto

import "AttendTrack/internal/model"

// ========== Attendance 相关 DTO ==========

// HistoryQuery 历史查询参数，闭区间
type HistoryQuery struct {
	StartDate string `json:"startDate" validate:"omitempty,date"`
	EndDate   string `json:"endDate" validate:"omitempty,date"`
}

func (q HistoryQuery) Range() model.DateRange {
	return model.DateRange{Start: q.StartDate, End: q.EndDate}
}

// SummaryResponse 个人出勤汇总
type SummaryResponse struct {
	PresentDays  int     `json:"presentDays"`
	AverageHours float64 `json:"averageHours"`
}

// EmployeeDashboard 员工首页
type EmployeeDashboard struct {
	Today  *model.Attendance   `json:"today"`
	Recent []*model.Attendance `json:"recent"`
}

// ManagerDashboard 管理者首页
type ManagerDashboard struct {
	TotalEmployees int64 `json:"totalEmployees"`
	PresentToday   int64 `json:"presentToday"`
}
