package utils

import (
	"math"
	"time"
)

const DateLayout = "2006-01-02"

// DateOf 返回 t 在 loc 下的日历日期 YYYY-MM-DD
func DateOf(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// PreviousDate 返回前一天的日期
func PreviousDate(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()-1, 12, 0, 0, 0, loc).Format(DateLayout)
}

// HoursBetween 两个时间点之间的小时数，保留两位小数
func HoursBetween(start, end time.Time) float64 {
	return Round2(end.Sub(start).Hours())
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// NextDailyRun 计算下一次 hh:mm 的运行时间（loc 时区）
func NextDailyRun(now time.Time, loc *time.Location, hour, minute int) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}
