package queue

import (
	"AttendTrack/storage/mq"
)

// 考勤任务拓扑
const (
	ExchangeAttendance     = "attendance.jobs"
	RoutingBackfillAbsent  = "attendance.backfill.absent"
	QueueBackfillAbsent    = "attendance.backfill.absent"
	ConsumerBackfillAbsent = "backfill_absent_consumer"
)

// Topology 返回 worker 与 scheduler 启动时需要声明的绑定
func Topology() []mq.Binding {
	return []mq.Binding{
		{Exchange: ExchangeAttendance, Queue: QueueBackfillAbsent, RoutingKey: RoutingBackfillAbsent},
	}
}

// BackfillMessageID 同一天的补录任务使用相同 ID，重复投递会被消费端去重
func BackfillMessageID(date string) string {
	return "backfill_absent_" + date
}

// BackfillLockKey scheduler 投递某天任务时持有的锁，任务最终失败时由消费端释放
func BackfillLockKey(date string) string {
	return "schedule:backfill:" + date
}
