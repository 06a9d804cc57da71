package model

// BackfillAbsentMessage 缺勤补录任务，由 scheduler 每日投递一次
type BackfillAbsentMessage struct {
	MessageID   string `json:"message_id"` // 消息唯一ID，用于幂等性检查
	Date        string `json:"date"`       // 需要补录的日期 YYYY-MM-DD
	ScheduledAt string `json:"scheduled_at"`
}
