package queue

import (
	"context"
	"time"

	"go.uber.org/zap"

	"AttendTrack/internal/model"
	"AttendTrack/pkg/logger"
)

// Publisher 由 storage/mq.Client 实现
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey, messageID string, body interface{}) error
}

// PublishBackfillAbsent 投递 date 当天的缺勤补录任务
func PublishBackfillAbsent(ctx context.Context, pub Publisher, date string, scheduledAt time.Time) (model.BackfillAbsentMessage, error) {
	msg := model.BackfillAbsentMessage{
		MessageID:   BackfillMessageID(date),
		Date:        date,
		ScheduledAt: scheduledAt.Format(time.RFC3339),
	}

	if err := pub.Publish(ctx, ExchangeAttendance, RoutingBackfillAbsent, msg.MessageID, msg); err != nil {
		logger.Logger.Error("Failed to publish backfill message",
			zap.String("message_id", msg.MessageID),
			zap.String("date", date),
			zap.Error(err),
		)
		return msg, err
	}

	logger.Logger.Info("Published backfill message",
		zap.String("message_id", msg.MessageID),
		zap.String("date", date),
	)
	return msg, nil
}
