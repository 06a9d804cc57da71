package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"AttendTrack/internal/model"
	"AttendTrack/pkg/logger"
	"AttendTrack/pkg/validate"
	"AttendTrack/storage/mq"
)

const (
	processingTTL = 10 * time.Minute
	processedTTL  = 48 * time.Hour
)

// Backfiller 由 service.AttendanceService 实现
type Backfiller interface {
	BackfillAbsent(ctx context.Context, date string) (int64, error)
}

// MessageMarker 由 internal/cache.Cache 实现
type MessageMarker interface {
	TryMarkMessageProcessing(ctx context.Context, messageID string, ttl time.Duration) (bool, error)
	UnmarkMessageProcessing(ctx context.Context, messageID string) error
	MarkMessageProcessed(ctx context.Context, messageID string, ttl time.Duration) error
}

// LockReleaser 由 internal/cache.Cache 实现
type LockReleaser interface {
	Unlock(ctx context.Context, key string) error
}

// BackfillConsumer 处理缺勤补录任务
type BackfillConsumer struct {
	backfiller Backfiller
	marker     MessageMarker
	locks      LockReleaser
}

// NewBackfillConsumer marker 为空时不做去重，补录本身仍然幂等
// locks 为空时最终失败的任务要等 scheduler 的锁过期才会重新投递
func NewBackfillConsumer(backfiller Backfiller, marker MessageMarker, locks LockReleaser) *BackfillConsumer {
	return &BackfillConsumer{backfiller: backfiller, marker: marker, locks: locks}
}

// Handle 返回错误时消息会被重新投递一次
func (bc *BackfillConsumer) Handle(ctx context.Context, body []byte) error {
	var msg model.BackfillAbsentMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		// 格式错误的消息重试也无法成功，直接确认丢弃
		logger.Logger.Error("Dropping malformed backfill message", zap.Error(err))
		return nil
	}
	if !validate.IsDate(msg.Date) {
		logger.Logger.Error("Dropping backfill message with invalid date",
			zap.String("message_id", msg.MessageID),
			zap.String("date", msg.Date),
		)
		return nil
	}
	if msg.MessageID == "" {
		msg.MessageID = BackfillMessageID(msg.Date)
	}

	if bc.marker != nil {
		// 使用 SETNX 原子性地检查并标记消息正在处理
		acquired, err := bc.marker.TryMarkMessageProcessing(ctx, msg.MessageID, processingTTL)
		if err != nil {
			// redis 不可用时继续处理，CreateMissing 保证不会重复写入
			logger.Logger.Warn("Failed to check message processed status",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		} else if !acquired {
			logger.Logger.Info("Message already processed or being processed, skipping",
				zap.String("message_id", msg.MessageID),
			)
			return nil
		}
	}

	created, err := bc.backfiller.BackfillAbsent(ctx, msg.Date)
	if err != nil {
		if bc.marker != nil {
			if uerr := bc.marker.UnmarkMessageProcessing(ctx, msg.MessageID); uerr != nil {
				logger.Logger.Warn("Failed to unmark message",
					zap.String("message_id", msg.MessageID),
					zap.Error(uerr),
				)
			}
		}
		return fmt.Errorf("failed to backfill %s: %w", msg.Date, err)
	}

	if bc.marker != nil {
		if err := bc.marker.MarkMessageProcessed(ctx, msg.MessageID, processedTTL); err != nil {
			logger.Logger.Warn("Failed to mark message as processed",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		}
	}

	logger.Logger.Info("Processed backfill message",
		zap.String("message_id", msg.MessageID),
		zap.String("date", msg.Date),
		zap.Int64("created", created),
	)
	return nil
}

// Discard 任务重投后仍失败被丢弃时释放 scheduler 的当日锁，下一轮调度会重新投递
func (bc *BackfillConsumer) Discard(ctx context.Context, body []byte) {
	var msg model.BackfillAbsentMessage
	if err := json.Unmarshal(body, &msg); err != nil || !validate.IsDate(msg.Date) {
		return
	}
	if bc.locks == nil {
		return
	}
	if err := bc.locks.Unlock(ctx, BackfillLockKey(msg.Date)); err != nil {
		logger.Logger.Error("Failed to release backfill schedule lock",
			zap.String("date", msg.Date),
			zap.Error(err),
		)
		return
	}
	logger.Logger.Warn("Backfill discarded, schedule lock released for retry",
		zap.String("date", msg.Date),
	)
}

// StartBackfillConsumer 阻塞消费直到 ctx 结束
func StartBackfillConsumer(ctx context.Context, client *mq.Client, bc *BackfillConsumer) error {
	return client.Consume(ctx, mq.ConsumeOptions{
		Queue:         QueueBackfillAbsent,
		ConsumerTag:   ConsumerBackfillAbsent,
		PrefetchCount: 1,
		Handler:       bc.Handle,
		OnDiscard:     bc.Discard,
	})
}
