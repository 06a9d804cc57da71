package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

// Header 导出列，顺序即文件中的列顺序
var Header = []string{"date", "userName", "userEmail", "checkInTime", "checkOutTime", "status", "totalHours"}

// isoMillis 与 JS Date.toISOString 一致的 UTC 毫秒格式
const isoMillis = "2006-01-02T15:04:05.000Z"

// Row 一条扁平化后的考勤记录
type Row struct {
	Date         string
	UserName     string
	UserEmail    string
	CheckInTime  *time.Time
	CheckOutTime *time.Time
	Status       string
	TotalHours   *float64
}

// Values 按 Header 顺序输出字符串，空时间与空工时输出空串
func (r Row) Values() []string {
	return []string{
		r.Date,
		r.UserName,
		r.UserEmail,
		formatTime(r.CheckInTime),
		formatTime(r.CheckOutTime),
		r.Status,
		formatHours(r.TotalHours),
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(isoMillis)
}

func formatHours(h *float64) string {
	if h == nil {
		return ""
	}
	return strconv.FormatFloat(*h, 'f', -1, 64)
}

// WriteCSV 写出带表头的 CSV
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row.Values()); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSV 返回完整 CSV 内容
func CSV(rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const sheetName = "Attendance"

// XLSX 生成单工作表的 Excel 文件
func XLSX(rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write xlsx header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := row.Values()
		out := make([]interface{}, len(values))
		for j, v := range values {
			out[j] = v
		}
		// 工时写成数值列，便于表格内求和
		if row.TotalHours != nil {
			out[len(out)-1] = *row.TotalHours
		}
		if err := f.SetSheetRow(sheetName, cell, &out); err != nil {
			return nil, fmt.Errorf("write xlsx row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename attendance-YYYYMMDD.<ext>
func Filename(now time.Time, ext string) string {
	return fmt.Sprintf("attendance-%s.%s", now.Format("20060102"), ext)
}
