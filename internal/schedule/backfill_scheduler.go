package schedule

// 缺勤补录调度器：每天 00:05 为前一天投递一次补录任务

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"AttendTrack/internal/queue"
	"AttendTrack/pkg/logger"
	"AttendTrack/utils"
)

const (
	runHour   = 0
	runMinute = 5
	// 锁覆盖一整天，多个实例对同一日期只投递一次
	lockTTL    = 25 * time.Hour
	runTimeout = 5 * time.Minute
)

// Locker 由 internal/cache.Cache 实现
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// BackfillDeps Locker 为空时不做跨实例互斥
type BackfillDeps struct {
	Publisher queue.Publisher
	Locker    Locker
	Location  *time.Location
	Clock     func() time.Time
	// Interval > 0 时按固定间隔运行，development 环境使用
	Interval time.Duration
}

type BackfillScheduler struct {
	logger    *zap.Logger
	publisher queue.Publisher
	locker    Locker
	loc       *time.Location
	now       func() time.Time
	interval  time.Duration

	mu      sync.Mutex
	running bool
}

func NewBackfillScheduler(d BackfillDeps) *BackfillScheduler {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	now := d.Clock
	if now == nil {
		now = time.Now
	}
	return &BackfillScheduler{
		logger:    logger.Logger,
		publisher: d.Publisher,
		locker:    d.Locker,
		loc:       loc,
		now:       now,
		interval:  d.Interval,
	}
}

// RunOnce 投递前一天的补录任务，返回是否由本实例投递
func (s *BackfillScheduler) RunOnce(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Info("Backfill job already running, skipping")
		return false, nil
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	now := s.now()
	date := utils.PreviousDate(now, s.loc)
	lockKey := queue.BackfillLockKey(date)

	if s.locker != nil {
		acquired, err := s.locker.TryLock(ctx, lockKey, lockTTL)
		if err != nil {
			return false, fmt.Errorf("failed to acquire backfill lock: %w", err)
		}
		if !acquired {
			s.logger.Debug("Backfill already scheduled by another instance", zap.String("date", date))
			return false, nil
		}
	}

	if _, err := queue.PublishBackfillAbsent(ctx, s.publisher, date, now); err != nil {
		// 投递失败释放锁，下一轮重试
		if s.locker != nil {
			if uerr := s.locker.Unlock(ctx, lockKey); uerr != nil {
				s.logger.Warn("Failed to release backfill lock", zap.String("date", date), zap.Error(uerr))
			}
		}
		return false, err
	}

	s.logger.Info("Scheduled absent backfill", zap.String("date", date))
	return true, nil
}

// Run 阻塞直到 ctx 结束
func (s *BackfillScheduler) Run(ctx context.Context) {
	if s.interval > 0 {
		s.runEvery(ctx)
		return
	}

	for {
		// 计算下一次运行时间（今天/明天的 00:05）
		now := s.now()
		next := utils.NextDailyRun(now, s.loc, runHour, runMinute)
		delay := next.Sub(now)
		s.logger.Info("Scheduled next backfill run",
			zap.Time("next_run", next),
			zap.Duration("delay", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.runWithTimeout(ctx)
		}
	}
}

func (s *BackfillScheduler) runEvery(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Backfill scheduler running with fixed interval", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runWithTimeout(ctx)
		}
	}
}

func (s *BackfillScheduler) runWithTimeout(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()
	if _, err := s.RunOnce(runCtx); err != nil {
		s.logger.Error("Backfill scheduler run failed", zap.Error(err))
	}
}
